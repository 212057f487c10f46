package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	opportunitydomain "github.com/smallbiznis/volunteerhub/internal/opportunity/domain"
	"github.com/smallbiznis/volunteerhub/pkg/db/pagination"
)

type listOpportunitiesQuery struct {
	pagination.Pagination
	Title          string `form:"title"`
	Location       string `form:"location"`
	OrganizationID string `form:"organization_id" binding:"omitempty,snowflake"`
}

type createOpportunityRequest struct {
	OrganizationID string `json:"organization_id" binding:"omitempty,snowflake"`
	Title          string `json:"title" binding:"required,max=200"`
	Description    string `json:"description"`
	SkillsRequired string `json:"skills_required"`
	Location       string `json:"location"`
	StartDate      string `json:"start_date" binding:"required"`
	EndDate        string `json:"end_date"`
}

type updateOpportunityRequest struct {
	Title          *string `json:"title" binding:"omitempty,min=1,max=200"`
	Description    *string `json:"description"`
	SkillsRequired *string `json:"skills_required"`
	Location       *string `json:"location"`
	StartDate      *string `json:"start_date"`
	EndDate        *string `json:"end_date"`
}

func (s *Server) ListOpportunities(c *gin.Context) {
	var query listOpportunitiesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, bindingError(err))
		return
	}

	page, err := s.opportunitySvc.List(c.Request.Context(), opportunitydomain.ListRequest{
		Title:          strings.TrimSpace(query.Title),
		Location:       strings.TrimSpace(query.Location),
		OrganizationID: strings.TrimSpace(query.OrganizationID),
		Page:           query.Pagination,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respond(c, http.StatusOK, page)
}

func (s *Server) GetOpportunity(c *gin.Context) {
	item, err := s.opportunitySvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respond(c, http.StatusOK, item)
}

func (s *Server) CreateOpportunity(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	var req createOpportunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindingError(err))
		return
	}

	startDate, err := parseTimeField("start_date", req.StartDate, false)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if startDate == nil {
		AbortWithError(c, newValidationError("start_date", "required", "start_date is required"))
		return
	}
	endDate, err := parseTimeField("end_date", req.EndDate, false)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	item, err := s.opportunitySvc.Create(c.Request.Context(), caller, opportunitydomain.CreateRequest{
		OrganizationID: strings.TrimSpace(req.OrganizationID),
		Title:          strings.TrimSpace(req.Title),
		Description:    req.Description,
		SkillsRequired: req.SkillsRequired,
		Location:       strings.TrimSpace(req.Location),
		StartDate:      *startDate,
		EndDate:        endDate,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respond(c, http.StatusCreated, item)
}

func (s *Server) UpdateOpportunity(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	var req updateOpportunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindingError(err))
		return
	}

	var startDate, endDate *time.Time
	if req.StartDate != nil {
		parsed, err := parseTimeField("start_date", *req.StartDate, false)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if parsed == nil {
			AbortWithError(c, newValidationError("start_date", "required", "start_date cannot be empty"))
			return
		}
		startDate = parsed
	}
	if req.EndDate != nil {
		parsed, err := parseTimeField("end_date", *req.EndDate, false)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		endDate = parsed
	}

	item, err := s.opportunitySvc.Update(c.Request.Context(), caller, c.Param("id"), opportunitydomain.UpdateRequest{
		Title:          trimmedPtr(req.Title),
		Description:    req.Description,
		SkillsRequired: req.SkillsRequired,
		Location:       trimmedPtr(req.Location),
		StartDate:      startDate,
		EndDate:        endDate,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respond(c, http.StatusOK, item)
}

func (s *Server) DeleteOpportunity(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	if err := s.opportunitySvc.Delete(c.Request.Context(), caller, c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
