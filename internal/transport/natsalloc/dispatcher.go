package natsalloc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/mcoot/matchmaker/internal/model"
)

// ErrNoAllocator is returned when no allocator is subscribed for a namespace
var ErrNoAllocator = errors.New("no allocator is serving this namespace")

// Dispatcher sends find requests to a remote allocator. The request
// deadline comes from ctx.
type Dispatcher struct {
	conn   *nats.Conn
	logger *slog.Logger
}

// NewDispatcher creates a Dispatcher on an open connection
func NewDispatcher(conn *nats.Conn, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{conn: conn, logger: logger}
}

// Dispatch sends req and waits for the allocator's single reply
func (d *Dispatcher) Dispatch(ctx context.Context, req *model.FindRequest) (*model.FindOutcome, error) {
	msg, err := encodeRequest(req)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encoding find request: %w", err)
	}

	resp, err := d.conn.RequestWithContext(ctx, findSubject(req.NamespaceID), data)
	if err != nil {
		if errors.Is(err, nats.ErrNoResponders) {
			return nil, ErrNoAllocator
		}
		return nil, err
	}

	var reply findReplyMsg
	if err := json.Unmarshal(resp.Data, &reply); err != nil {
		return nil, fmt.Errorf("decoding find reply: %w", err)
	}
	if reply.QueryID != req.QueryID {
		return nil, fmt.Errorf("reply for query %s does not match %s", reply.QueryID, req.QueryID)
	}

	if reply.ErrorCode != nil {
		return &model.FindOutcome{Failure: reply.ErrorCode}, nil
	}
	if reply.LobbyID == "" {
		return nil, errors.New("find reply carries neither lobby nor error code")
	}
	return &model.FindOutcome{SessionID: reply.LobbyID}, nil
}
