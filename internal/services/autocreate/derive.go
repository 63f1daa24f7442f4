// Package autocreate picks the game mode and region a new session is created
// in when no existing session can take the player.
package autocreate

import "github.com/mcoot/matchmaker/internal/model"

// Derive returns the first (game mode, region) pair where the game mode is
// enabled in the region. Modes are tried in order and, within a mode, regions
// in priority order. It returns false when no mode is enabled in any region.
func Derive(modes []model.GameMode, regionPriority []model.RegionID) (*model.AutoCreate, bool) {
	for i := range modes {
		for _, regionID := range regionPriority {
			if modes[i].EnabledIn(regionID) {
				return &model.AutoCreate{
					GameModeID: modes[i].ID,
					RegionID:   regionID,
				}, true
			}
		}
	}
	return nil, false
}
