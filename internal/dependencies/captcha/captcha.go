// Package captcha gates find requests behind a solved captcha challenge.
package captcha

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mcoot/matchmaker/internal/dependencies/clock"
	"github.com/mcoot/matchmaker/internal/model"
)

// FindTopic scopes verification state to find requests
const FindTopic = "mm:find"

// Service decides when a client must solve a captcha and verifies solutions
type Service interface {
	// NeedsVerification reports whether the client must solve a captcha
	// before this request proceeds. Each call counts as one request.
	NeedsVerification(ctx context.Context, remoteAddr string, cfg *model.CaptchaConfig) (bool, error)

	// Verify checks a client response. It returns model.ErrCaptchaInvalid
	// when the response is rejected.
	Verify(ctx context.Context, remoteAddr string, cfg *model.CaptchaConfig, resp model.CaptchaResponse) error
}

// Verifier checks a client response with the captcha provider
type Verifier interface {
	Verify(ctx context.Context, provider model.CaptchaProvider, secret, response, remoteAddr string) (bool, error)
}

type verification struct {
	verifiedAt time.Time
	remaining  int
}

// Gate is an in-process Service. A verification is good for
// RequestsBeforeReverify further requests within VerificationTTL.
type Gate struct {
	verifier Verifier
	clock    clock.Clock

	mu      sync.Mutex
	clients map[string]*verification
}

// Ensure Gate implements Service
var _ Service = (*Gate)(nil)

// NewGate creates a Gate that checks responses with verifier
func NewGate(verifier Verifier, clock clock.Clock) *Gate {
	return &Gate{
		verifier: verifier,
		clock:    clock,
		clients:  make(map[string]*verification),
	}
}

func (g *Gate) NeedsVerification(ctx context.Context, remoteAddr string, cfg *model.CaptchaConfig) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := clientKey(remoteAddr)
	v, ok := g.clients[key]
	if !ok {
		return true, nil
	}
	if v.remaining <= 0 || g.clock.Since(v.verifiedAt) > cfg.VerificationTTL {
		delete(g.clients, key)
		return true, nil
	}
	v.remaining--
	return false, nil
}

func (g *Gate) Verify(ctx context.Context, remoteAddr string, cfg *model.CaptchaConfig, resp model.CaptchaResponse) error {
	provider, ok := cfg.Provider()
	if !ok {
		return fmt.Errorf("%w: captcha config has no provider", model.ErrInternal)
	}
	if resp.Provider != provider {
		return model.ErrCaptchaInvalid
	}

	valid, err := g.verifier.Verify(ctx, provider, cfg.Secret(), resp.ClientResponse, remoteAddr)
	if err != nil {
		return fmt.Errorf("verifying captcha: %w", err)
	}
	if !valid {
		return model.ErrCaptchaInvalid
	}

	g.mu.Lock()
	g.clients[clientKey(remoteAddr)] = &verification{
		verifiedAt: g.clock.Now(),
		remaining:  cfg.RequestsBeforeReverify,
	}
	g.mu.Unlock()
	return nil
}

func clientKey(remoteAddr string) string {
	return FindTopic + ":" + remoteAddr
}

// StaticVerifier accepts exactly one response string. It is meant for
// development deployments without a provider account.
type StaticVerifier struct {
	Response string
}

func (v StaticVerifier) Verify(_ context.Context, _ model.CaptchaProvider, _, response, _ string) (bool, error) {
	return v.Response != "" && response == v.Response, nil
}
