package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/volunteerhub/internal/audit/domain"
	authdomain "github.com/smallbiznis/volunteerhub/internal/auth/domain"
	"github.com/smallbiznis/volunteerhub/internal/authorization"
	"github.com/smallbiznis/volunteerhub/pkg/db/pagination"
)

type listUsersQuery struct {
	pagination.Pagination
	Role   string `form:"role" binding:"omitempty,role"`
	Search string `form:"search"`
}

type listSystemLogsQuery struct {
	pagination.Pagination
	Level  string `form:"level" binding:"omitempty,oneof=info warning error"`
	Source string `form:"source"`
	Action string `form:"action"`
}

func (s *Server) AdminDashboard(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	dashboard, err := s.reportingSvc.Dashboard(c.Request.Context(), caller)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respond(c, http.StatusOK, dashboard)
}

func (s *Server) ListUsers(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	var query listUsersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, bindingError(err))
		return
	}

	page, err := s.authsvc.ListUsers(c.Request.Context(), caller, authdomain.ListUsersRequest{
		Role:   authorization.Role(strings.TrimSpace(query.Role)),
		Search: strings.TrimSpace(query.Search),
		Page:   query.Pagination,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respond(c, http.StatusOK, page)
}

func (s *Server) GetUser(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	user, err := s.authsvc.GetUser(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respond(c, http.StatusOK, user)
}

func (s *Server) DeleteUser(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	if err := s.authsvc.DeleteUser(c.Request.Context(), caller, c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListSystemLogs is reachable only through the system_log read policy.
func (s *Server) ListSystemLogs(c *gin.Context) {
	var query listSystemLogsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, bindingError(err))
		return
	}

	page, err := s.auditSvc.List(c.Request.Context(), auditdomain.ListRequest{
		Level:  strings.TrimSpace(query.Level),
		Source: strings.TrimSpace(query.Source),
		Action: strings.TrimSpace(query.Action),
		Page:   query.Pagination,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respond(c, http.StatusOK, page)
}
