package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/volunteerhub/internal/auth/domain"
	"github.com/smallbiznis/volunteerhub/internal/authorization"
	"go.uber.org/zap"
)

type registerRequest struct {
	Username         string `json:"username" binding:"required,min=3,max=50"`
	Email            string `json:"email" binding:"required,email"`
	Password         string `json:"password" binding:"required,min=8"`
	Role             string `json:"role" binding:"omitempty,role"`
	OrganizationName string `json:"organization_name"`
	AdminKey         string `json:"admin_key"`
}

type loginRequest struct {
	// Login accepts a username or an email address.
	Login    string `json:"login"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type updateMeRequest struct {
	Email    *string `json:"email" binding:"omitempty,email"`
	Password *string `json:"password" binding:"omitempty,min=8"`
}

func (s *Server) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindingError(err))
		return
	}

	role := authorization.Role(strings.TrimSpace(req.Role))
	if role == "" {
		role = authorization.RoleVolunteer
	}

	user, err := s.authsvc.Register(c.Request.Context(), authdomain.RegisterRequest{
		Username:         strings.TrimSpace(req.Username),
		Email:            strings.TrimSpace(req.Email),
		Password:         req.Password,
		Role:             role,
		OrganizationName: strings.TrimSpace(req.OrganizationName),
		AdminKey:         strings.TrimSpace(req.AdminKey),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respond(c, http.StatusCreated, user)
}

func (s *Server) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindingError(err))
		return
	}

	login := firstNonEmpty(req.Login, req.Username, req.Email)
	if login == "" {
		AbortWithError(c, newValidationError("login", "required", "login is required"))
		return
	}

	result, err := s.authsvc.Login(c.Request.Context(), authdomain.LoginRequest{
		Login:    login,
		Password: req.Password,
	})
	if err != nil {
		s.log.Info("login failed", zap.String("client_ip", c.ClientIP()), zap.Error(err))
		AbortWithError(c, err)
		return
	}

	respond(c, http.StatusOK, result)
}

func (s *Server) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindingError(err))
		return
	}

	result, err := s.authsvc.Refresh(c.Request.Context(), strings.TrimSpace(req.RefreshToken))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respond(c, http.StatusOK, result)
}

func (s *Server) Me(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	user, err := s.authsvc.Me(c.Request.Context(), caller)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respond(c, http.StatusOK, user)
}

func (s *Server) UpdateMe(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	var req updateMeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindingError(err))
		return
	}

	user, err := s.authsvc.UpdateMe(c.Request.Context(), caller, authdomain.UpdateMeRequest{
		Email:    trimmedPtr(req.Email),
		Password: req.Password,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respond(c, http.StatusOK, user)
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
