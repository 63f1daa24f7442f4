package model

// CaptchaProvider names a captcha vendor
type CaptchaProvider string

const (
	CaptchaProviderHCaptcha  CaptchaProvider = "hcaptcha"
	CaptchaProviderTurnstile CaptchaProvider = "turnstile"
)

// CaptchaResponse is a solved challenge supplied by the client
type CaptchaResponse struct {
	Provider       CaptchaProvider
	ClientResponse string
}

// Provider returns the configured provider. It reports false unless the
// config names exactly one.
func (c *CaptchaConfig) Provider() (CaptchaProvider, bool) {
	switch {
	case c.HCaptcha != nil && c.Turnstile != nil:
		return "", false
	case c.HCaptcha != nil:
		return CaptchaProviderHCaptcha, true
	case c.Turnstile != nil:
		return CaptchaProviderTurnstile, true
	default:
		return "", false
	}
}

// Secret returns the server-side secret for the configured provider
func (c *CaptchaConfig) Secret() string {
	switch {
	case c.HCaptcha != nil && c.Turnstile != nil:
		return ""
	case c.HCaptcha != nil:
		return c.HCaptcha.Secret
	case c.Turnstile != nil:
		return c.Turnstile.Secret
	default:
		return ""
	}
}
