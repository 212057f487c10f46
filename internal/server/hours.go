package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	hourdomain "github.com/smallbiznis/volunteerhub/internal/volunteerhour/domain"
)

type listHoursQuery struct {
	OpportunityID string `form:"opportunity_id" binding:"omitempty,snowflake"`
	Status        string `form:"status"`
}

type logHoursRequest struct {
	OpportunityID string  `json:"opportunity_id" binding:"required,snowflake"`
	Hours         float64 `json:"hours"`
	Date          string  `json:"date" binding:"required"`
	Description   string  `json:"description"`
}

type updateHourRequest struct {
	Hours       *float64 `json:"hours"`
	Date        *string  `json:"date"`
	Description *string  `json:"description"`
}

type verifyHourRequest struct {
	Status string `json:"status" binding:"required"`
}

func (s *Server) ListHours(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	var query listHoursQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, bindingError(err))
		return
	}

	items, err := s.hourSvc.List(c.Request.Context(), caller, hourdomain.ListRequest{
		OpportunityID: strings.TrimSpace(query.OpportunityID),
		Status:        strings.TrimSpace(query.Status),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if items == nil {
		items = []hourdomain.Hour{}
	}

	respond(c, http.StatusOK, items)
}

func (s *Server) GetHour(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	item, err := s.hourSvc.Get(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respond(c, http.StatusOK, item)
}

// LogHours leaves the hours range check to the service, so a missing value
// is reported as invalid_hours.
func (s *Server) LogHours(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	var req logHoursRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindingError(err))
		return
	}

	date, err := parseTimeField("date", req.Date, false)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if date == nil {
		AbortWithError(c, newValidationError("date", "required", "date is required"))
		return
	}

	item, err := s.hourSvc.Log(c.Request.Context(), caller, hourdomain.LogRequest{
		OpportunityID: strings.TrimSpace(req.OpportunityID),
		Hours:         req.Hours,
		Date:          *date,
		Description:   strings.TrimSpace(req.Description),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respond(c, http.StatusCreated, item)
}

func (s *Server) UpdateHour(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	var req updateHourRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindingError(err))
		return
	}

	var date *time.Time
	if req.Date != nil {
		parsed, err := parseTimeField("date", *req.Date, false)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if parsed == nil {
			AbortWithError(c, newValidationError("date", "required", "date cannot be empty"))
			return
		}
		date = parsed
	}

	item, err := s.hourSvc.Update(c.Request.Context(), caller, c.Param("id"), hourdomain.UpdateRequest{
		Hours:       req.Hours,
		Date:        date,
		Description: trimmedPtr(req.Description),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respond(c, http.StatusOK, item)
}

func (s *Server) DeleteHour(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	if err := s.hourSvc.Delete(c.Request.Context(), caller, c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) VerifyHour(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	var req verifyHourRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindingError(err))
		return
	}

	item, err := s.hourSvc.Verify(c.Request.Context(), caller, c.Param("id"), hourdomain.VerifyRequest{
		Decision: strings.ToLower(strings.TrimSpace(req.Status)),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respond(c, http.StatusOK, item)
}
