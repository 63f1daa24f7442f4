package model

// Coord is a geographic coordinate in degrees
type Coord struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ClientInfo describes the client that issued a request
type ClientInfo struct {
	RemoteAddress string `json:"remote_address"`
	OriginHost    string `json:"origin_host,omitempty"`
	UserAgent     string `json:"user_agent,omitempty"`
	Coord         *Coord `json:"coord,omitempty"`
}

// Player is the player descriptor issued for a single find or join request.
// A fresh ID is generated for every request.
type Player struct {
	ID             PlayerID
	Token          string
	TokenSessionID string
}

// PublicToken is a namespace-scoped credential used by game clients.
// Only the bcrypt hash of the secret half is stored.
type PublicToken struct {
	ID          string
	NamespaceID NamespaceID
	SecretHash  string
}
