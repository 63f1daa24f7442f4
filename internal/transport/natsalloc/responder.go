package natsalloc

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/mcoot/matchmaker/internal/model"
)

// queueGroup spreads requests across allocator replicas
const queueGroup = "matchmaker-allocator"

// Allocator serves find requests and applies lifecycle events
type Allocator interface {
	Dispatch(ctx context.Context, req *model.FindRequest) (*model.FindOutcome, error)
	PublishLobbyReady(ctx context.Context, ns model.NamespaceID, lobbyID model.SessionID) error
	PublishLobbyClosed(ctx context.Context, ns model.NamespaceID, lobbyID model.SessionID, isClosed bool) error
}

// Responder exposes an Allocator on NATS
type Responder struct {
	conn      *nats.Conn
	allocator Allocator
	logger    *slog.Logger
	timeout   time.Duration

	subs []*nats.Subscription
}

// NewResponder creates a Responder. timeout bounds the handling of each message.
func NewResponder(conn *nats.Conn, allocator Allocator, logger *slog.Logger, timeout time.Duration) *Responder {
	return &Responder{
		conn:      conn,
		allocator: allocator,
		logger:    logger,
		timeout:   timeout,
	}
}

// Start subscribes to find and lifecycle subjects for every namespace
func (r *Responder) Start() error {
	handlers := map[string]nats.MsgHandler{
		findSubjectPrefix + "*":   r.handleFind,
		readySubjectPrefix + "*":  r.handleReady,
		closedSubjectPrefix + "*": r.handleClosed,
	}
	for subject, handler := range handlers {
		sub, err := r.conn.QueueSubscribe(subject, queueGroup, handler)
		if err != nil {
			r.Stop()
			return err
		}
		r.subs = append(r.subs, sub)
	}
	return r.conn.Flush()
}

// Stop drains all subscriptions. No new messages are delivered once it returns.
func (r *Responder) Stop() {
	for _, sub := range r.subs {
		if err := sub.Drain(); err != nil {
			r.logger.Warn("failed to drain subscription",
				slog.String("subject", sub.Subject),
				slog.Any("error", err),
			)
		}
	}
	r.subs = nil
	if err := r.conn.Flush(); err != nil {
		r.logger.Warn("failed to flush unsubscribes", slog.Any("error", err))
	}
}

func (r *Responder) handleFind(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	var wire findRequestMsg
	if err := json.Unmarshal(msg.Data, &wire); err != nil {
		r.logger.Error("dropping undecodable find request", slog.Any("error", err))
		return
	}

	reply := findReplyMsg{QueryID: wire.QueryID}
	req, err := decodeRequest(&wire)
	if err == nil && strings.TrimPrefix(msg.Subject, findSubjectPrefix) != string(req.NamespaceID) {
		err = errors.New("namespace does not match subject")
	}

	var outcome *model.FindOutcome
	if err == nil {
		outcome, err = r.allocator.Dispatch(ctx, req)
	}
	if err != nil {
		r.logger.Error("find request failed",
			slog.String("query_id", string(wire.QueryID)),
			slog.Any("error", err),
		)
		code := model.FailureUnknown
		reply.ErrorCode = &code
	} else {
		reply.LobbyID = outcome.SessionID
		reply.ErrorCode = outcome.Failure
	}

	r.respond(msg, reply)
}

func (r *Responder) respond(msg *nats.Msg, reply findReplyMsg) {
	data, err := json.Marshal(reply)
	if err != nil {
		r.logger.Error("failed to encode find reply", slog.Any("error", err))
		return
	}
	if err := msg.Respond(data); err != nil {
		r.logger.Error("failed to respond to find request",
			slog.String("query_id", string(reply.QueryID)),
			slog.Any("error", err),
		)
	}
}

func (r *Responder) handleReady(msg *nats.Msg) {
	r.handleLifecycle(msg, func(ctx context.Context, ev lifecycleMsg) error {
		return r.allocator.PublishLobbyReady(ctx, ev.NamespaceID, ev.LobbyID)
	})
}

func (r *Responder) handleClosed(msg *nats.Msg) {
	r.handleLifecycle(msg, func(ctx context.Context, ev lifecycleMsg) error {
		if ev.IsClosed == nil {
			return errors.New("closed event without is_closed")
		}
		return r.allocator.PublishLobbyClosed(ctx, ev.NamespaceID, ev.LobbyID, *ev.IsClosed)
	})
}

func (r *Responder) handleLifecycle(msg *nats.Msg, apply func(context.Context, lifecycleMsg) error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	var ev lifecycleMsg
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		r.logger.Error("dropping undecodable lifecycle event",
			slog.String("subject", msg.Subject),
			slog.Any("error", err),
		)
		return
	}
	if err := apply(ctx, ev); err != nil {
		r.logger.Error("failed to apply lifecycle event",
			slog.String("subject", msg.Subject),
			slog.String("lobby_id", string(ev.LobbyID)),
			slog.Any("error", err),
		)
	}
}
