package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gamestore/gamestore-admin/internal/shared"
)

// ExternalChecker delegates password verification to a remote auth service.
type ExternalChecker struct {
	baseURL string
	client  *http.Client
}

// NewExternalChecker builds a checker for baseURL. An empty URL is a
// configuration error.
func NewExternalChecker(baseURL string, client *http.Client) (*ExternalChecker, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("%w: external auth url is not set", shared.ErrConfiguration)
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &ExternalChecker{baseURL: baseURL, client: client}, nil
}

// CheckPassword posts the credentials to {baseURL}/api/auth/login.
func (c *ExternalChecker) CheckPassword(ctx context.Context, email, password string) error {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth/login", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("external auth: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden, resp.StatusCode == http.StatusBadRequest:
		return shared.ErrInvalidCredentials
	default:
		return fmt.Errorf("external auth: unexpected status %d", resp.StatusCode)
	}
}
