package captcha

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mcoot/matchmaker/internal/model"
)

// Provider verification endpoints
const (
	HCaptchaVerifyURL  = "https://api.hcaptcha.com/siteverify"
	TurnstileVerifyURL = "https://challenges.cloudflare.com/turnstile/v0/siteverify"
)

// SiteVerifier posts responses to the provider's siteverify endpoint
type SiteVerifier struct {
	httpClient *http.Client
	endpoints  map[model.CaptchaProvider]string
}

// NewSiteVerifier creates a verifier using the public provider endpoints
func NewSiteVerifier(timeout time.Duration) *SiteVerifier {
	return NewSiteVerifierWithEndpoints(timeout, map[model.CaptchaProvider]string{
		model.CaptchaProviderHCaptcha:  HCaptchaVerifyURL,
		model.CaptchaProviderTurnstile: TurnstileVerifyURL,
	})
}

// NewSiteVerifierWithEndpoints creates a verifier with custom endpoints (for testing)
func NewSiteVerifierWithEndpoints(timeout time.Duration, endpoints map[model.CaptchaProvider]string) *SiteVerifier {
	return &SiteVerifier{
		httpClient: &http.Client{Timeout: timeout},
		endpoints:  endpoints,
	}
}

type siteVerifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

func (v *SiteVerifier) Verify(ctx context.Context, provider model.CaptchaProvider, secret, response, remoteAddr string) (bool, error) {
	endpoint, ok := v.endpoints[provider]
	if !ok {
		return false, fmt.Errorf("%w: no endpoint for captcha provider %q", model.ErrInternal, provider)
	}

	form := url.Values{}
	form.Set("secret", secret)
	form.Set("response", response)
	if remoteAddr != "" {
		form.Set("remoteip", remoteAddr)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("captcha provider returned status %d", resp.StatusCode)
	}

	var body siteVerifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("decoding captcha provider response: %w", err)
	}
	return body.Success, nil
}
