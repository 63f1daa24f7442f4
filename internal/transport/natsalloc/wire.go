package natsalloc

import (
	"errors"
	"fmt"
	"time"

	"github.com/mcoot/matchmaker/internal/model"
)

var errMalformed = errors.New("malformed find request")

// Subject prefixes
const (
	findSubjectPrefix   = "mm.lobby.find."
	readySubjectPrefix  = "mm.lobby.ready."
	closedSubjectPrefix = "mm.lobby.closed_set."
)

func findSubject(ns model.NamespaceID) string {
	return findSubjectPrefix + string(ns)
}

func readySubject(id model.SessionID) string {
	return readySubjectPrefix + string(id)
}

func closedSubject(id model.SessionID) string {
	return closedSubjectPrefix + string(id)
}

var joinKindNames = map[model.JoinKind]string{
	model.JoinKindNormal: "normal",
	model.JoinKindDirect: "direct",
	model.JoinKindParty:  "party",
}

type playerMsg struct {
	PlayerID       model.PlayerID   `json:"player_id"`
	TokenSessionID string           `json:"token_session_id"`
	ClientInfo     model.ClientInfo `json:"client_info"`
}

type autoCreateMsg struct {
	GameModeID model.GameModeID `json:"game_mode_id"`
	RegionID   model.RegionID   `json:"region_id"`
}

type directMsg struct {
	LobbyID model.SessionID `json:"lobby_id"`
}

type gameModesMsg struct {
	GameModeIDs []model.GameModeID `json:"game_mode_ids"`
	RegionIDs   []model.RegionID   `json:"region_ids"`
	AutoCreate  *autoCreateMsg     `json:"auto_create,omitempty"`
}

type queryMsg struct {
	Direct    *directMsg    `json:"direct,omitempty"`
	GameModes *gameModesMsg `json:"game_modes,omitempty"`
}

type findRequestMsg struct {
	QueryID     model.QueryID     `json:"query_id"`
	NamespaceID model.NamespaceID `json:"namespace_id"`
	JoinKind    string            `json:"join_kind"`
	Players     []playerMsg       `json:"players"`
	Query       queryMsg          `json:"query"`
	SentAt      time.Time         `json:"sent_at"`
}

type findReplyMsg struct {
	QueryID   model.QueryID      `json:"query_id"`
	LobbyID   model.SessionID    `json:"lobby_id,omitempty"`
	ErrorCode *model.FailureCode `json:"error_code,omitempty"`
}

type lifecycleMsg struct {
	NamespaceID model.NamespaceID `json:"namespace_id"`
	LobbyID     model.SessionID   `json:"lobby_id"`
	IsClosed    *bool             `json:"is_closed,omitempty"`
}

func encodeRequest(req *model.FindRequest) (*findRequestMsg, error) {
	kind, ok := joinKindNames[req.JoinKind]
	if !ok {
		return nil, fmt.Errorf("unknown join kind %d", req.JoinKind)
	}

	msg := &findRequestMsg{
		QueryID:     req.QueryID,
		NamespaceID: req.NamespaceID,
		JoinKind:    kind,
		Players:     make([]playerMsg, len(req.Players)),
		SentAt:      req.SentAt,
	}
	for i, p := range req.Players {
		msg.Players[i] = playerMsg(p)
	}

	switch q := req.Query.(type) {
	case model.DirectQuery:
		msg.Query.Direct = &directMsg{LobbyID: q.SessionID}
	case model.GameModeQuery:
		gm := &gameModesMsg{GameModeIDs: q.GameModeIDs, RegionIDs: q.RegionIDs}
		if q.AutoCreate != nil {
			gm.AutoCreate = &autoCreateMsg{GameModeID: q.AutoCreate.GameModeID, RegionID: q.AutoCreate.RegionID}
		}
		msg.Query.GameModes = gm
	default:
		return nil, fmt.Errorf("unsupported query type %T", req.Query)
	}
	return msg, nil
}

func decodeRequest(msg *findRequestMsg) (*model.FindRequest, error) {
	req := &model.FindRequest{
		QueryID:     msg.QueryID,
		NamespaceID: msg.NamespaceID,
		Players:     make([]model.FindPlayer, len(msg.Players)),
		SentAt:      msg.SentAt,
	}

	found := false
	for kind, name := range joinKindNames {
		if name == msg.JoinKind {
			req.JoinKind, found = kind, true
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: join kind %q", errMalformed, msg.JoinKind)
	}

	for i, p := range msg.Players {
		req.Players[i] = model.FindPlayer(p)
	}

	switch {
	case msg.Query.Direct != nil && msg.Query.GameModes == nil:
		req.Query = model.DirectQuery{SessionID: msg.Query.Direct.LobbyID}
	case msg.Query.GameModes != nil && msg.Query.Direct == nil:
		gm := msg.Query.GameModes
		q := model.GameModeQuery{GameModeIDs: gm.GameModeIDs, RegionIDs: gm.RegionIDs}
		if gm.AutoCreate != nil {
			q.AutoCreate = &model.AutoCreate{GameModeID: gm.AutoCreate.GameModeID, RegionID: gm.AutoCreate.RegionID}
		}
		req.Query = q
	default:
		return nil, fmt.Errorf("%w: exactly one query kind must be set", errMalformed)
	}
	return req, nil
}
