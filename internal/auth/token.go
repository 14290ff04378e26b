package auth

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/evcraddock/devmate/internal/session"
)

// IdentityFromToken reads the user id, name and avatar from the claims of a
// JWT bearer token. The signature is not checked: the backend verifies the
// token on every request, and these claims only label the UI.
//
// Tokens that are not JWTs yield an empty identity and no error.
func IdentityFromToken(token string) (session.Identity, error) {
	token = strings.TrimSpace(token)
	if strings.Count(token, ".") != 2 {
		return session.Identity{}, nil
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return session.Identity{}, fmt.Errorf("parsing token claims: %w", err)
	}

	return session.Identity{
		UserID:    firstClaim(claims, "id", "userId", "uid", "sub"),
		Username:  firstClaim(claims, "username", "name"),
		AvatarURL: firstClaim(claims, "avatar_url", "avatarUrl", "picture"),
	}, nil
}

// MergeIdentity fills empty fields of id from fallback.
func MergeIdentity(id, fallback session.Identity) session.Identity {
	if id.UserID == "" {
		id.UserID = fallback.UserID
	}
	if id.Username == "" {
		id.Username = fallback.Username
	}
	if id.AvatarURL == "" {
		id.AvatarURL = fallback.AvatarURL
	}
	return id
}

func firstClaim(claims jwt.MapClaims, keys ...string) string {
	for _, k := range keys {
		switch v := claims[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return fmt.Sprintf("%.0f", v)
		}
	}
	return ""
}
