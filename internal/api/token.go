package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenRequest are the user-registration parameters exchanged for a
// provider access token.
type TokenRequest struct {
	UserID    string `json:"userId"`
	ServiceID string `json:"serviceId"`
	Region    string `json:"region"`
	APIKey    string `json:"apiKey"`
}

type tokenResponse struct {
	Status string `json:"status"`
	Data   struct {
		AccessToken string `json:"accessToken"`
	} `json:"data"`
	Timestamp int64 `json:"timestamp"`
}

// TokenClient issues provider access tokens through the registration API.
type TokenClient struct {
	baseURL string
	http    *http.Client
}

// NewTokenClient creates a token client against baseURL.
func NewTokenClient(baseURL string) *TokenClient {
	return &TokenClient{baseURL: baseURL, http: http.DefaultClient}
}

// RegisterUser registers userID and returns its access token. A response
// with a non-"success" status is an error.
func (c *TokenClient) RegisterUser(req TokenRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal token request: %w", err)
	}

	httpReq, err := http.NewRequest(http.MethodPost, c.baseURL+"/v2/register_user", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("http %d: %s", resp.StatusCode, string(respBody))
	}

	var tr tokenResponse
	if err := json.Unmarshal(respBody, &tr); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if tr.Status != "success" {
		return "", fmt.Errorf("token generation failed: %s", tr.Status)
	}

	return tr.Data.AccessToken, nil
}

// IsTokenExpired reports whether the JWT's exp claim has passed. Unparsable
// tokens are treated as expired.
func IsTokenExpired(token string) bool {
	exp, err := TokenExpiration(token)
	if err != nil {
		return true
	}
	return exp.Before(time.Now())
}

// TokenExpiration extracts the expiry time from a JWT without verifying its
// signature; callers only schedule refreshes with it.
func TokenExpiration(token string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, fmt.Errorf("parse token: %w", err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, fmt.Errorf("token has no expiration claim")
	}
	return exp.Time, nil
}
