package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"

	"meytle/internal/app/services/auth"
	domainauth "meytle/internal/domain/auth"
	domainuser "meytle/internal/domain/user"
)

const principalContextKey = "meytle.principal"

// activeRoleHeader selects which of the caller's roles this request acts
// under; a dual-role user books as a client and manages a schedule as a
// companion without separate accounts.
const activeRoleHeader = "X-Active-Role"

type principal struct {
	ID         string
	Email      string
	Name       string
	Roles      []string
	ActiveRole string
	Token      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (p principal) HasRole(role string) bool {
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		return false
	}
	for _, r := range p.Roles {
		if strings.ToLower(r) == role {
			return true
		}
	}
	return false
}

type AuthMiddleware struct {
	Service *auth.Service
	Logger  *slog.Logger
}

func (m AuthMiddleware) Handle(c *gin.Context) {
	token := extractBearerToken(c.GetHeader("Authorization"))
	if token == "" || m.Service == nil {
		c.Next()
		return
	}
	resolved, err := m.Service.ResolveToken(c.Request.Context(), token)
	if err != nil {
		if !errors.Is(err, domainauth.ErrSessionNotFound) && m.Logger != nil {
			m.Logger.Debug("token validation failed", "error", err)
		}
		c.Next()
		return
	}
	user := resolved.User
	roles := mapRoles(user.Roles)
	active, ok := selectActiveRole(c.GetHeader(activeRoleHeader), roles)
	if !ok {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "requested active role is not held"})
		return
	}
	setPrincipal(c, principal{
		ID:         string(user.ID),
		Email:      user.Email,
		Name:       user.Name,
		Roles:      roles,
		ActiveRole: active,
		Token:      token,
		CreatedAt:  user.CreatedAt,
		UpdatedAt:  user.UpdatedAt,
	})
	c.Next()
}

// selectActiveRole resolves the role a request acts under. An explicit
// header must name a held role; without one, client is the default and
// single-role users act as what they are.
func selectActiveRole(requested string, roles []string) (string, bool) {
	requested = strings.ToLower(strings.TrimSpace(requested))
	if requested != "" {
		for _, r := range roles {
			if strings.ToLower(r) == requested {
				return requested, true
			}
		}
		return "", false
	}
	for _, r := range roles {
		if strings.ToLower(r) == string(domainuser.RoleClient) {
			return string(domainuser.RoleClient), true
		}
	}
	if len(roles) > 0 {
		return strings.ToLower(roles[0]), true
	}
	return "", true
}

func mapRoles(roles []domainuser.Role) []string {
	result := make([]string, 0, len(roles))
	for _, r := range roles {
		result = append(result, string(r))
	}
	return result
}

func setPrincipal(c *gin.Context, p principal) {
	c.Set(principalContextKey, p)
}

func currentPrincipal(c *gin.Context) (principal, bool) {
	val, exists := c.Get(principalContextKey)
	if !exists {
		return principal{}, false
	}
	p, ok := val.(principal)
	return p, ok
}

func requireRole(c *gin.Context, role string) (principal, bool) {
	p, ok := currentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "auth required"})
		return principal{}, false
	}
	if role != "" && p.ActiveRole != role {
		c.JSON(http.StatusForbidden, gin.H{"error": "acting role " + role + " required"})
		return principal{}, false
	}
	return p, true
}

func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	token := strings.TrimSpace(header[7:])
	return token
}
