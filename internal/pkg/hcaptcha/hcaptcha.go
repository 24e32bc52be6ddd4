package hcaptcha

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/SkillBinder/GrandFinale/internal/pkg/env"
)

const verifyURL = "https://hcaptcha.com/siteverify"

type verifyResponse struct {
	Success     bool     `json:"success"`
	ChallengeTS string   `json:"challenge_ts"`
	Hostname    string   `json:"hostname"`
	ErrorCodes  []string `json:"error-codes"`
}

// Verify checks a client captcha token against the hCaptcha API. It guards
// the guest-facing forms (registration, support) against bot submissions.
func Verify(token string) (bool, error) {
	if token == "" {
		return false, fmt.Errorf("hCaptcha token is empty")
	}

	secret := env.GetEnv("HCAPTCHA_SECRET", "")
	if secret == "" {
		return false, fmt.Errorf("hCaptcha secret is not set")
	}

	resp, err := http.PostForm(verifyURL, url.Values{
		"secret":   {secret},
		"response": {token},
	})
	if err != nil {
		return false, fmt.Errorf("hCaptcha request failed: %v", err)
	}
	defer resp.Body.Close()

	var result verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, fmt.Errorf("hCaptcha response unreadable: %v", err)
	}

	if !result.Success {
		msg := "hCaptcha validation failed"
		if len(result.ErrorCodes) > 0 {
			msg += ": " + strings.Join(result.ErrorCodes, ", ")
		}
		return false, fmt.Errorf("%s", msg)
	}

	return true, nil
}
