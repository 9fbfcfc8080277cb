// Package auth resolves bearer tokens on incoming requests to user ids.
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/rustyeddy/arena/pkg/errors"
)

// Verifier maps an opaque token to the user it was issued to.
type Verifier interface {
	UserForToken(ctx context.Context, token string) (string, error)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Authenticate returns the user id behind the request's bearer token.
// Any failure, including a store fault, is reported as unauthorized.
func Authenticate(ctx context.Context, v Verifier, r *http.Request) (string, error) {
	token, ok := BearerToken(r.Header.Get("Authorization"))
	if !ok {
		return "", errors.New(errors.ErrCodeUnauthorized, "Unauthorized")
	}

	userID, err := v.UserForToken(ctx, token)
	if err != nil || userID == "" {
		return "", errors.Wrap(errors.ErrCodeUnauthorized, "Unauthorized", err)
	}
	return userID, nil
}
