package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	volunteerdomain "github.com/smallbiznis/volunteerhub/internal/volunteer/domain"
)

type updateVolunteerProfileRequest struct {
	FullName     *string  `json:"full_name" binding:"omitempty,max=200"`
	Bio          *string  `json:"bio"`
	Phone        *string  `json:"phone" binding:"omitempty,max=50"`
	Location     *string  `json:"location"`
	Skills       []string `json:"skills" binding:"omitempty,dive,max=100"`
	Availability *string  `json:"availability"`
}

func (s *Server) GetVolunteerProfile(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	profile, err := s.volunteerSvc.GetProfile(c.Request.Context(), caller)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respond(c, http.StatusOK, profile)
}

func (s *Server) UpdateVolunteerProfile(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	var req updateVolunteerProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindingError(err))
		return
	}

	profile, err := s.volunteerSvc.UpdateProfile(c.Request.Context(), caller, volunteerdomain.UpdateProfileRequest{
		FullName:     trimmedPtr(req.FullName),
		Bio:          req.Bio,
		Phone:        trimmedPtr(req.Phone),
		Location:     trimmedPtr(req.Location),
		Skills:       req.Skills,
		Availability: trimmedPtr(req.Availability),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respond(c, http.StatusOK, profile)
}

func (s *Server) GetVolunteerStats(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	stats, err := s.volunteerSvc.Stats(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respond(c, http.StatusOK, stats)
}
