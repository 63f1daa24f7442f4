package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCaptchaConfigProvider(t *testing.T) {
	tests := []struct {
		name       string
		cfg        CaptchaConfig
		want       CaptchaProvider
		wantOK     bool
		wantSecret string
	}{
		{"none", CaptchaConfig{}, "", false, ""},
		{"hcaptcha", CaptchaConfig{HCaptcha: &HCaptchaConfig{Secret: "h"}}, CaptchaProviderHCaptcha, true, "h"},
		{"turnstile", CaptchaConfig{Turnstile: &TurnstileConfig{Secret: "t"}}, CaptchaProviderTurnstile, true, "t"},
		{"both", CaptchaConfig{HCaptcha: &HCaptchaConfig{Secret: "h"}, Turnstile: &TurnstileConfig{Secret: "t"}}, "", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.cfg.Provider()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantSecret, tt.cfg.Secret())
		})
	}
}
