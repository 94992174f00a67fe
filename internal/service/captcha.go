package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pressrank/pressrank/internal/config"
)

// CaptchaVerifier checks a client-supplied captcha token. Verify returns nil
// for a passing token and an error otherwise.
type CaptchaVerifier interface {
	Verify(ctx context.Context, token, remoteIP string) error
}

// remoteCaptchaVerifier validates tokens against a Turnstile-compatible
// siteverify endpoint.
type remoteCaptchaVerifier struct {
	secret    string
	verifyURL string
	client    *http.Client
}

// NewCaptchaVerifier creates a verifier for the configured siteverify endpoint.
func NewCaptchaVerifier(cfg config.CaptchaConfig) CaptchaVerifier {
	return &remoteCaptchaVerifier{
		secret:    cfg.Secret,
		verifyURL: cfg.VerifyURL,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

type captchaVerifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

func (v *remoteCaptchaVerifier) Verify(ctx context.Context, token, remoteIP string) error {
	if token == "" {
		return fmt.Errorf("captcha token is empty")
	}

	form := url.Values{}
	form.Set("secret", v.secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build captcha request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("captcha verification request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("captcha endpoint returned status %d", resp.StatusCode)
	}

	var result captchaVerifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode captcha response: %w", err)
	}

	if !result.Success {
		return fmt.Errorf("captcha rejected: %s", strings.Join(result.ErrorCodes, ", "))
	}

	return nil
}
