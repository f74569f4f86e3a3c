package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/pkg/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const claimsKey = "claims"

// TokenValidator is implemented by *auth.JWTManager.
type TokenValidator interface {
	Validate(token string) (*domain.Claims, error)
}

// Authenticate requires a bearer credential. A missing or malformed
// Authorization header is 401; a credential that fails verification is 403.
func Authenticate(v TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, found := strings.Cut(header, " ")
		if header == "" || !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			abort(c, http.StatusUnauthorized, "missing or malformed authorization header")
			return
		}

		claims, err := v.Validate(strings.TrimSpace(token))
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, auth.ErrTokenExpired) {
				msg = "token has expired"
			}
			abort(c, http.StatusForbidden, msg)
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// Claims returns the verified claims stored by Authenticate.
func Claims(c *gin.Context) (*domain.Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*domain.Claims)
	return claims, ok
}

// SubjectChecker is implemented by *service.AuthService.
type SubjectChecker interface {
	SubjectExists(ctx context.Context, id uuid.UUID, role domain.Role) (bool, error)
}

// Guard authorizes authenticated requests by role and re-checks that the
// account behind the credential still exists.
type Guard struct {
	subjects    SubjectChecker
	strictAdmin bool
	log         *zap.Logger
}

// NewGuard builds the role guards. With strictAdmin false, an admin credential
// whose account is gone is let through with a warning.
func NewGuard(subjects SubjectChecker, strictAdmin bool, log *zap.Logger) *Guard {
	return &Guard{subjects: subjects, strictAdmin: strictAdmin, log: log.Named("guard")}
}

func (g *Guard) RequireAdmin() gin.HandlerFunc   { return g.RequireRoles(domain.RoleAdmin) }
func (g *Guard) RequireDoctor() gin.HandlerFunc  { return g.RequireRoles(domain.RoleDoctor) }
func (g *Guard) RequirePatient() gin.HandlerFunc { return g.RequireRoles(domain.RolePatient) }

func (g *Guard) RequireRoles(roles ...domain.Role) gin.HandlerFunc {
	allowed := make(map[domain.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(c *gin.Context) {
		claims, ok := Claims(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "authentication required")
			return
		}
		if !allowed[claims.Role] {
			abort(c, http.StatusForbidden, "access denied")
			return
		}

		exists, err := g.subjects.SubjectExists(c.Request.Context(), claims.UserID, claims.Role)
		if err != nil {
			g.log.Error("subject lookup failed",
				zap.String("user_id", claims.UserID.String()),
				zap.Error(err),
			)
			abort(c, http.StatusInternalServerError, "internal server error")
			return
		}

		if !exists {
			if claims.Role == domain.RoleAdmin && !g.strictAdmin {
				g.log.Warn("admin credential for missing account accepted",
					zap.String("user_id", claims.UserID.String()),
					zap.String("path", c.FullPath()),
				)
				c.Next()
				return
			}
			abort(c, http.StatusForbidden, "account no longer exists")
			return
		}

		c.Next()
	}
}

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
