package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	organizationdomain "github.com/smallbiznis/volunteerhub/internal/organization/domain"
	"github.com/smallbiznis/volunteerhub/pkg/db/pagination"
)

type listOrganizationsQuery struct {
	pagination.Pagination
	Name     string `form:"name"`
	Location string `form:"location"`
}

type updateOrganizationRequest struct {
	Name         *string `json:"name" binding:"omitempty,min=1,max=200"`
	Description  *string `json:"description"`
	ContactEmail *string `json:"contact_email" binding:"omitempty,email"`
	Location     *string `json:"location"`
}

func (s *Server) ListOrganizations(c *gin.Context) {
	var query listOrganizationsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, bindingError(err))
		return
	}

	page, err := s.organizationSvc.List(c.Request.Context(), organizationdomain.ListRequest{
		Name:     strings.TrimSpace(query.Name),
		Location: strings.TrimSpace(query.Location),
		Page:     query.Pagination,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respond(c, http.StatusOK, page)
}

func (s *Server) GetOrganization(c *gin.Context) {
	org, err := s.organizationSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respond(c, http.StatusOK, org)
}

func (s *Server) UpdateOrganization(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	var req updateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindingError(err))
		return
	}

	org, err := s.organizationSvc.Update(c.Request.Context(), caller, c.Param("id"), organizationdomain.UpdateRequest{
		Name:         trimmedPtr(req.Name),
		Description:  req.Description,
		ContactEmail: trimmedPtr(req.ContactEmail),
		Location:     trimmedPtr(req.Location),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respond(c, http.StatusOK, org)
}
