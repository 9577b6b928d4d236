package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fleetops/fleet-gateway/internal/config"
)

// MicrosoftClient exchanges OAuth authorization codes at the Microsoft
// identity platform and resolves the signed-in user's email via Graph.
type MicrosoftClient struct {
	cfg    config.MicrosoftConfig
	client *http.Client
}

// NewMicrosoftClient creates a Microsoft OAuth client.
func NewMicrosoftClient(cfg config.MicrosoftConfig) *MicrosoftClient {
	return &MicrosoftClient{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type msTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type msProfile struct {
	Mail              string `json:"mail"`
	UserPrincipalName string `json:"userPrincipalName"`
}

// Exchange redeems an authorization code and returns the Microsoft access
// token plus the account email. An invalid or expired code surfaces as
// ErrInvalidCredentials.
func (m *MicrosoftClient) Exchange(ctx context.Context, authCode, redirectURI string) (token, email string, err error) {
	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {authCode},
		"redirect_uri":  {redirectURI},
		"client_id":     {m.cfg.ClientID},
		"client_secret": {m.cfg.ClientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", "", fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("token exchange failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", ErrInvalidCredentials
	}

	var tok msTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil || tok.AccessToken == "" {
		return "", "", ErrInvalidCredentials
	}

	email, err = m.profileEmail(ctx, tok.AccessToken)
	if err != nil {
		return "", "", err
	}
	return tok.AccessToken, email, nil
}

func (m *MicrosoftClient) profileEmail(ctx context.Context, accessToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.cfg.GraphURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build profile request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := m.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("profile lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", ErrInvalidCredentials
	}

	var profile msProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return "", fmt.Errorf("failed to decode profile: %w", err)
	}
	if profile.Mail != "" {
		return profile.Mail, nil
	}
	if profile.UserPrincipalName != "" {
		return profile.UserPrincipalName, nil
	}
	return "", ErrInvalidCredentials
}
