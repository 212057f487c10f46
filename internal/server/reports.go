package server

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	reportingdomain "github.com/smallbiznis/volunteerhub/internal/reporting/domain"
)

type matchReportQuery struct {
	OrganizationID string `form:"organization_id"`
}

type hoursReportQuery struct {
	OrganizationID string `form:"organization_id"`
	From           string `form:"from"`
	To             string `form:"to"`
}

func (s *Server) MatchReport(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	var query matchReportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, bindingError(err))
		return
	}

	stats, err := s.reportingSvc.MatchStats(c.Request.Context(), caller, reportingdomain.MatchStatsRequest{
		OrganizationID: strings.TrimSpace(query.OrganizationID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respond(c, http.StatusOK, stats)
}

func (s *Server) HoursReport(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	req, err := bindHoursReportQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	report, err := s.reportingSvc.HoursReport(c.Request.Context(), caller, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respond(c, http.StatusOK, report)
}

func (s *Server) HoursReportPDF(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	req, err := bindHoursReportQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	doc, err := s.reportingSvc.HoursReportPDF(c.Request.Context(), caller, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	body, err := io.ReadAll(doc)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "volunteer-hours.pdf"))
	c.Data(http.StatusOK, "application/pdf", body)
}

func bindHoursReportQuery(c *gin.Context) (reportingdomain.HoursReportRequest, error) {
	var query hoursReportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		return reportingdomain.HoursReportRequest{}, bindingError(err)
	}

	from, err := parseTimeField("from", query.From, false)
	if err != nil {
		return reportingdomain.HoursReportRequest{}, err
	}
	to, err := parseTimeField("to", query.To, true)
	if err != nil {
		return reportingdomain.HoursReportRequest{}, err
	}

	return reportingdomain.HoursReportRequest{
		OrganizationID: strings.TrimSpace(query.OrganizationID),
		From:           from,
		To:             to,
	}, nil
}
