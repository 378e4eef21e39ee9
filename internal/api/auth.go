package api

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/clubport/clubport/internal/errcode"
)

// AuthConfig token verification configuration
type AuthConfig struct {
	// Secret HMAC signing secret
	Secret string `mapstructure:"secret"`

	// Issuer expected token issuer (optional)
	Issuer string `mapstructure:"issuer"`
}

// Claims carried by portal access tokens. Capability strings decide what
// the caller may do; the check happens once at this boundary, never inside
// the ranking engine.
type Claims struct {
	Capabilities []string `json:"caps"`
	jwt.RegisteredClaims
}

const claimsKey = "auth_claims"

// AuthRequired verifies the bearer token and stores the claims on the
// request context.
func AuthRequired(cfg AuthConfig, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			HandleError(c, log, errcode.ErrUnauthorized.WithMsgf("missing bearer token"))
			return
		}

		claims := &Claims{}
		opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
		if cfg.Issuer != "" {
			opts = append(opts, jwt.WithIssuer(cfg.Issuer))
		}
		_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
			return []byte(cfg.Secret), nil
		}, opts...)
		if err != nil {
			HandleError(c, log, errcode.ErrUnauthorized.Wrap(err))
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequireCapability gates a route on a capability claim.
// Must run after AuthRequired.
func RequireCapability(capability string, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get(claimsKey)
		if !ok {
			HandleError(c, log, errcode.ErrUnauthorized)
			return
		}
		claims := v.(*Claims)
		for _, have := range claims.Capabilities {
			if have == capability {
				c.Next()
				return
			}
		}
		HandleError(c, log, errcode.ErrForbidden.WithMsgf("capability %q required", capability))
	}
}

// IssueToken signs an access token with the given capabilities.
// Session issuance proper lives outside this service; this is used by
// admin tooling and tests.
func IssueToken(cfg AuthConfig, subject string, capabilities []string, expires jwt.NumericDate) (string, error) {
	claims := Claims{
		Capabilities: capabilities,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    cfg.Issuer,
			ExpiresAt: &expires,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("sign token failed: %w", err)
	}
	return signed, nil
}
