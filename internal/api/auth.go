package api

import (
	"context"
	"errors"
	"fmt"
)

// CreateAccessToken logs in with a username and password and creates a
// long-lived access token for that user. This is the only call qontrol
// makes that changes cluster state.
func CreateAccessToken(ctx context.Context, cfg Config, username, password string) (string, error) {
	session := New(cfg)

	var login loginResponse
	if err := session.postJSON(ctx, PathLogin, loginRequest{Username: username, Password: password}, &login); err != nil {
		return "", fmt.Errorf("logging in: %w", err)
	}
	if login.BearerToken == "" {
		return "", errors.New("logging in: empty session token")
	}
	session.token = login.BearerToken

	var me whoAmI
	if err := session.getJSON(ctx, PathWhoAmI, &me); err != nil {
		return "", fmt.Errorf("resolving user: %w", err)
	}

	var tok accessTokenResponse
	req := accessTokenRequest{User: accessTokenUser{AuthID: fmt.Sprintf("%d", me.ID)}}
	if err := session.postJSON(ctx, PathAccessTokens, req, &tok); err != nil {
		return "", fmt.Errorf("creating access token: %w", err)
	}
	if tok.BearerToken == "" {
		return "", errors.New("creating access token: empty token in response")
	}
	return tok.BearerToken, nil
}
