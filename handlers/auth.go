package handlers

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/Nerzal/gocloak/v13"
	"github.com/golang-jwt/jwt/v5"

	"github.com/kova98/yars/models"
)

// tokenVerifier is the part of *gocloak.GoCloak used to check bearer tokens.
type tokenVerifier interface {
	DecodeAccessToken(ctx context.Context, accessToken, realm string) (*jwt.Token, *jwt.MapClaims, error)
	GetUserInfo(ctx context.Context, accessToken, realm string) (*gocloak.UserInfo, error)
}

// AuthHandler accepts either the configured API key in x-api-key or a
// Keycloak bearer token. With neither configured every request is let in.
type AuthHandler struct {
	keycloak tokenVerifier
	realm    string
	apiKey   string
}

func NewAuthHandler(keycloak *gocloak.GoCloak, realm, apiKey string) *AuthHandler {
	h := &AuthHandler{realm: realm, apiKey: apiKey}
	if keycloak != nil {
		h.keycloak = keycloak
	}
	return h
}

func (h *AuthHandler) Enabled() bool {
	return h.apiKey != "" || h.keycloak != nil
}

func (h *AuthHandler) GetCaller(ctx context.Context, keyHeader, authHeader string) Result {
	if !h.Enabled() {
		return Ok(models.Caller{Name: "anonymous", Method: models.AuthMethodNone})
	}

	if keyHeader != "" && h.apiKey != "" {
		if subtle.ConstantTimeCompare([]byte(keyHeader), []byte(h.apiKey)) != 1 {
			return Unauthorized("Invalid API key")
		}
		return Ok(models.Caller{Name: "api-key", Method: models.AuthMethodAPIKey})
	}

	if authHeader == "" || h.keycloak == nil {
		return Unauthorized("Missing authorization header")
	}

	res := h.getUserFromAuthHeader(ctx, authHeader)
	if res.Code != http.StatusOK {
		return res
	}
	userInfo := res.Body.(gocloak.UserInfo)

	// If preferred_username is empty, use the part before the @ in the email
	email := gocloak.PString(userInfo.Email)
	name := gocloak.PString(userInfo.PreferredUsername)
	if name == "" {
		name = strings.Split(email, "@")[0]
	}

	return Ok(models.Caller{Name: name, Email: email, Method: models.AuthMethodKeycloak})
}

func (h *AuthHandler) getUserFromAuthHeader(ctx context.Context, authHeader string) Result {
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return Unauthorized("Invalid authorization header format")
	}
	authHeader = strings.TrimPrefix(authHeader, "Bearer ")

	// Validate the token
	_, _, err := h.keycloak.DecodeAccessToken(ctx, authHeader, h.realm)
	if err != nil {
		return Unauthorized("Invalid token")
	}

	userInfo, err := h.keycloak.GetUserInfo(ctx, authHeader, h.realm)
	if err != nil {
		return InternalError(err, "Failed to get user info")
	}

	if userInfo == nil {
		return Unauthorized("User not found")
	}

	return Ok(*userInfo)
}
