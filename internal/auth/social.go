package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

const DefaultUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

var ErrEmailNotVerified = errors.New("social account email not verified")

// UserInfoProvider verifies a social sign-in access token against the
// provider's userinfo endpoint.
type UserInfoProvider struct {
	userInfoURL string
	httpClient  *http.Client
}

func NewUserInfoProvider(userInfoURL string, httpClient *http.Client) *UserInfoProvider {
	return &UserInfoProvider{
		userInfoURL: userInfoURL,
		httpClient:  httpClient,
	}
}

func (p *UserInfoProvider) Exchange(ctx context.Context, providerToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return "", fmt.Errorf("create userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+providerToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("get userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("userinfo endpoint returned %d", resp.StatusCode)
	}

	var userInfo struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		return "", fmt.Errorf("unmarshal userinfo: %w", err)
	}

	if userInfo.Email == "" {
		return "", errors.New("userinfo response carries no email")
	}
	if !userInfo.EmailVerified {
		return "", ErrEmailNotVerified
	}

	return userInfo.Email, nil
}
