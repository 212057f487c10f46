package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	matchdomain "github.com/smallbiznis/volunteerhub/internal/match/domain"
)

type listMatchesQuery struct {
	Status        string `form:"status"`
	OpportunityID string `form:"opportunity_id" binding:"omitempty,snowflake"`
}

type createMatchRequest struct {
	OpportunityID string `json:"opportunity_id" binding:"required,snowflake"`
}

type updateMatchStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (s *Server) ListMatches(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	var query listMatchesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, bindingError(err))
		return
	}

	items, err := s.matchSvc.List(c.Request.Context(), caller, matchdomain.ListRequest{
		Status:        strings.TrimSpace(query.Status),
		OpportunityID: strings.TrimSpace(query.OpportunityID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if items == nil {
		items = []matchdomain.Match{}
	}

	respond(c, http.StatusOK, items)
}

func (s *Server) GetMatch(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	item, err := s.matchSvc.Get(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respond(c, http.StatusOK, item)
}

func (s *Server) CreateMatch(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	var req createMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindingError(err))
		return
	}

	item, err := s.matchSvc.Create(c.Request.Context(), caller, matchdomain.CreateRequest{
		OpportunityID: strings.TrimSpace(req.OpportunityID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respond(c, http.StatusCreated, item)
}

// UpdateMatchStatus leaves status validation to the service so that an
// unknown status and a terminal match are reported the same way everywhere.
func (s *Server) UpdateMatchStatus(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	var req updateMatchStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindingError(err))
		return
	}

	item, err := s.matchSvc.UpdateStatus(c.Request.Context(), caller, c.Param("id"), matchdomain.UpdateStatusRequest{
		Status: strings.ToLower(strings.TrimSpace(req.Status)),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respond(c, http.StatusOK, item)
}

func (s *Server) SuggestMatches(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	items, err := s.matchSvc.Suggest(c.Request.Context(), caller)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if items == nil {
		items = []matchdomain.Suggestion{}
	}

	respond(c, http.StatusOK, items)
}
