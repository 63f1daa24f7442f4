package factory

import (
	"context"
	"time"

	"github.com/mcoot/matchmaker/internal/dependencies/captcha"
	"github.com/mcoot/matchmaker/internal/dependencies/mocks"
	"github.com/mcoot/matchmaker/internal/services/auth"
	"github.com/mcoot/matchmaker/internal/storage/memory"
	"github.com/mcoot/matchmaker/internal/testutil"
)

// Test credentials
const (
	TestTokenSecret     = "test-secret-0123456789abcdefghijklmnop"
	TestCaptchaResponse = "captcha-ok"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked dependencies.
// Captcha responses equal to TestCaptchaResponse pass verification.
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	cfg := Config{AuthConfig: auth.Config{Secret: TestTokenSecret}}
	verifier := captcha.StaticVerifier{Response: TestCaptchaResponse}
	app := newWithDependencies(store, mockClock, mockRandom, verifier, cfg, testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}

// Seed stores the fixture namespace, version and regions
func (t *TestApp) Seed(ctx context.Context) error {
	return testutil.SeedNamespace(ctx, t.Storage)
}

// PublicToken creates a public token for the fixture namespace
func (t *TestApp) PublicToken(ctx context.Context) (string, error) {
	return t.AuthService.CreatePublicToken(ctx, testutil.NamespaceID)
}
