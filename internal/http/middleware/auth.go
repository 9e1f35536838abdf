package middleware

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/yungbote/storyfeed-backend/internal/http/response"
	"github.com/yungbote/storyfeed-backend/internal/platform/ctxutil"
	"github.com/yungbote/storyfeed-backend/internal/platform/logger"
)

const RoleAnon = "anon"

var allowedRoles = map[string]bool{
	RoleAnon:        true,
	"authenticated": true,
	"service_role":  true,
}

var errMissingAuthorization = errors.New("missing authorization header")

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AuthRejections counts rejected requests; *observability.Metrics implements it.
type AuthRejections interface {
	IncAuthRejected(reason string)
}

type AuthMiddleware struct {
	log       *logger.Logger
	anonKey   []byte
	jwtSecret []byte
	parser    *jwt.Parser
	rejects   AuthRejections
}

func NewAuthMiddleware(log *logger.Logger, anonKey, jwtSecret string, rejects AuthRejections) *AuthMiddleware {
	return &AuthMiddleware{
		log:       log.With("middleware", "AuthMiddleware"),
		anonKey:   []byte(strings.TrimSpace(anonKey)),
		jwtSecret: []byte(strings.TrimSpace(jwtSecret)),
		parser:    jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
		rejects:   rejects,
	}
}

// Enabled reports whether any credential is configured. Without one the
// middleware is not installed.
func (am *AuthMiddleware) Enabled() bool {
	return am != nil && (len(am.anonKey) > 0 || len(am.jwtSecret) > 0)
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			am.reject(c, "missing", errMissingAuthorization)
			return
		}
		ad, err := am.authenticate(token)
		if err != nil {
			am.log.Debug("rejected credential", "error", err, "path", c.FullPath())
			am.reject(c, "invalid", errors.New("invalid authorization token"))
			return
		}
		c.Request = c.Request.WithContext(ctxutil.WithAuthData(c.Request.Context(), ad))
		c.Next()
	}
}

func (am *AuthMiddleware) reject(c *gin.Context, reason string, err error) {
	if am.rejects != nil {
		am.rejects.IncAuthRejected(reason)
	}
	response.AbortError(c, http.StatusUnauthorized, "unauthorized", err)
}

func (am *AuthMiddleware) authenticate(token string) (*ctxutil.AuthData, error) {
	if len(am.anonKey) > 0 && subtle.ConstantTimeCompare([]byte(token), am.anonKey) == 1 {
		return &ctxutil.AuthData{Role: RoleAnon}, nil
	}
	if len(am.jwtSecret) == 0 {
		return nil, errors.New("token does not match the anon key")
	}
	claims := &Claims{}
	tok, err := am.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return am.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !tok.Valid {
		return nil, errors.New("token is not valid")
	}
	if !allowedRoles[claims.Role] {
		return nil, fmt.Errorf("role %q not allowed", claims.Role)
	}
	return &ctxutil.AuthData{Role: claims.Role, Subject: claims.Subject}, nil
}

// extractToken reads "Authorization: Bearer <token>" and falls back to the
// apikey header.
func extractToken(c *gin.Context) string {
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return strings.TrimSpace(c.GetHeader("apikey"))
}
