package model

// Development region reported for namespace development identities
const (
	DevRegionID          = "dev-lcl"
	DevRegionDisplayName = "Local"
	DevProviderName      = "Development"
)

// Region is a read-only datacenter descriptor
type Region struct {
	ID                  RegionID
	NameID              string // e.g. "us-east"
	DisplayName         string
	ProviderDisplayName string
	Coord               Coord
}
