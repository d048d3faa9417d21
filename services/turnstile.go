package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrCaptchaFailed is returned when a public form submission fails the Turnstile challenge
var ErrCaptchaFailed = errors.New("captcha verification failed")

var turnstileVerifyURL = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

var turnstileClient = &http.Client{Timeout: 10 * time.Second}

// TurnstileResponse is the siteverify answer
type TurnstileResponse struct {
	Success     bool      `json:"success"`
	ChallengeTS time.Time `json:"challenge_ts"`
	Hostname    string    `json:"hostname"`
	ErrorCodes  []string  `json:"error-codes"`
}

// VerifyTurnstileToken checks a Turnstile token with Cloudflare. When host is set the
// challenge must have been solved on that host, so a token earned on one mairie's portal
// cannot be replayed on another's. Public forms only call it when a secret key is configured.
func VerifyTurnstileToken(ctx context.Context, token, secretKey, ip, host string) error {
	if token == "" || secretKey == "" {
		return fmt.Errorf("%w: missing token or secret key", ErrCaptchaFailed)
	}

	form := url.Values{
		"secret":   {secretKey},
		"response": {token},
		"remoteip": {ip},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, turnstileVerifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build turnstile request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := turnstileClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to verify token: %w", err)
	}
	defer resp.Body.Close()

	var result TurnstileResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode turnstile response: %w", err)
	}
	if !result.Success {
		return fmt.Errorf("%w: error codes %v", ErrCaptchaFailed, result.ErrorCodes)
	}
	if host != "" && !strings.EqualFold(result.Hostname, host) {
		return fmt.Errorf("%w: solved on %q", ErrCaptchaFailed, result.Hostname)
	}
	return nil
}
