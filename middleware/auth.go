package middleware

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/httperr"
)

const identityKey = "identity"

// Identity is the request-scoped owner identity resolved from the
// bearer token. Handlers read it from the gin context; nothing in the
// request path consults global session state.
type Identity struct {
	UserID primitive.ObjectID
	Role   string
}

// Blacklist answers whether a token was revoked by logout. A nil
// Blacklist skips the check.
type Blacklist interface {
	Contains(ctx context.Context, token string) bool
}

// SignToken issues the HS256 JWT carrying userId and role.
func SignToken(userID primitive.ObjectID, role string, secret []byte, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": userID.Hex(),
		"role":   role,
		"exp":    time.Now().Add(ttl).Unix(),
	})
	return token.SignedString(secret)
}

// ParseToken validates the token and extracts the identity.
func ParseToken(raw string, secret []byte) (Identity, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return Identity{}, errors.New("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, errors.New("malformed claims")
	}

	userHex, _ := claims["userId"].(string)
	userID, err := primitive.ObjectIDFromHex(userHex)
	if err != nil {
		return Identity{}, errors.New("malformed userId claim")
	}

	role, _ := claims["role"].(string)
	return Identity{UserID: userID, Role: role}, nil
}

// BearerToken pulls the raw token out of the Authorization header.
func BearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	return strings.TrimPrefix(header, "Bearer "), true
}

// RequireAuth resolves the bearer token into an Identity and aborts
// with 401 otherwise.
func RequireAuth(secret []byte, blacklist Blacklist) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := BearerToken(c)
		if !ok {
			abortWith(c, httperr.Errorf(httperr.EUNAUTHENTICATED, "token required"))
			return
		}

		if blacklist != nil && blacklist.Contains(c.Request.Context(), raw) {
			abortWith(c, httperr.Errorf(httperr.EUNAUTHENTICATED, "token has been revoked"))
			return
		}

		ident, err := ParseToken(raw, secret)
		if err != nil {
			abortWith(c, httperr.Errorf(httperr.EUNAUTHENTICATED, "invalid or expired token"))
			return
		}

		c.Set(identityKey, ident)
		c.Next()
	}
}

func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := IdentityFrom(c)
		if !ok || ident.Role != "admin" {
			abortWith(c, httperr.Errorf(httperr.EFORBIDDEN, "access denied: admin only"))
			return
		}
		c.Next()
	}
}

// IdentityFrom returns the identity RequireAuth stored on the context.
func IdentityFrom(c *gin.Context) (Identity, bool) {
	v, exists := c.Get(identityKey)
	if !exists {
		return Identity{}, false
	}
	ident, ok := v.(Identity)
	return ident, ok
}

func abortWith(c *gin.Context, err error) {
	httperr.Respond(c, err)
	c.Abort()
}
