package redis

import (
	"fmt"

	"github.com/mcoot/matchmaker/internal/model"
)

// keyspace builds keys under a configurable prefix so several matchmakers
// can share one Redis database
type keyspace struct {
	prefix string
}

func (k keyspace) namespaceKey(id model.NamespaceID) string {
	return fmt.Sprintf("%s:namespace:%s", k.prefix, id)
}

func (k keyspace) versionKey(id model.VersionID) string {
	return fmt.Sprintf("%s:version:%s", k.prefix, id)
}

// gameModeVersionKey maps a game mode to the version that owns it
func (k keyspace) gameModeVersionKey(id model.GameModeID) string {
	return fmt.Sprintf("%s:game_mode_version:%s", k.prefix, id)
}

func (k keyspace) regionKey(id model.RegionID) string {
	return fmt.Sprintf("%s:region:%s", k.prefix, id)
}

// regionNameIndexKey maps a region name id to its region id
func (k keyspace) regionNameIndexKey(name string) string {
	return fmt.Sprintf("%s:idx:region_name:%s", k.prefix, name)
}

func (k keyspace) sessionKey(id model.SessionID) string {
	return fmt.Sprintf("%s:session:%s", k.prefix, id)
}

// namespaceSessionsIndexKey is the SET of session ids in a namespace
func (k keyspace) namespaceSessionsIndexKey(ns model.NamespaceID) string {
	return fmt.Sprintf("%s:idx:ns_sessions:%s", k.prefix, ns)
}

func (k keyspace) playerCountKey(id model.SessionID) string {
	return fmt.Sprintf("%s:player_count:%s", k.prefix, id)
}

func (k keyspace) runKey(id model.RunID) string {
	return fmt.Sprintf("%s:run:%s", k.prefix, id)
}

func (k keyspace) publicTokenKey(id string) string {
	return fmt.Sprintf("%s:public_token:%s", k.prefix, id)
}
