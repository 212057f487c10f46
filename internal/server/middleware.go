package server

import (
	"math"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/volunteerhub/internal/authorization"
	obscontext "github.com/smallbiznis/volunteerhub/internal/observability/context"
	"github.com/smallbiznis/volunteerhub/internal/ratelimit"
)

const (
	contextCallerKey = "caller"
	bearerPrefix     = "bearer "
)

// BearerAuth resolves the Authorization header to a caller and stores it on
// the request. Missing or invalid tokens stop the chain with 401.
func (s *Server) BearerAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		caller, err := s.authsvc.Authenticate(c.Request.Context(), strings.TrimSpace(header[len(bearerPrefix):]))
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(contextCallerKey, caller)
		ctx := obscontext.WithActor(c.Request.Context(), caller.ID.String(), string(caller.Role))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func callerFrom(c *gin.Context) (authorization.Caller, bool) {
	value, ok := c.Get(contextCallerKey)
	if !ok {
		return authorization.Caller{}, false
	}
	caller, ok := value.(authorization.Caller)
	return caller, ok
}

// requireCaller writes 401 when no caller was resolved.
func requireCaller(c *gin.Context) (authorization.Caller, bool) {
	caller, ok := callerFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
	}
	return caller, ok
}

// authorizeAction guards routes whose resource is not owned by anyone in
// particular, such as the system log.
func (s *Server) authorizeAction(object, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := requireCaller(c)
		if !ok {
			return
		}
		if err := s.authzSvc.Authorize(c.Request.Context(), caller, action, authorization.Resource{Object: object}); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

// LoginRateLimit throttles login attempts per client address.
func (s *Server) LoginRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.loginLimiter == nil {
			c.Next()
			return
		}
		result := s.loginLimiter.Allow(c.Request.Context(), c.ClientIP())
		if !result.Allowed {
			if result.RetryAfter > 0 {
				c.Header("Retry-After", strconv.Itoa(int(math.Ceil(result.RetryAfter.Seconds()))))
			}
			AbortWithError(c, ratelimit.ErrRateLimited)
			return
		}
		c.Next()
	}
}
