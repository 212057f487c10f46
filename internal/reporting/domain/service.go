package domain

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/smallbiznis/volunteerhub/internal/authorization"
)

type MatchStatsRequest struct {
	// OrganizationID narrows an admin's view; organization users always see their own.
	OrganizationID string
}

type HoursReportRequest struct {
	OrganizationID string
	From           *time.Time
	To             *time.Time
}

type Service interface {
	Dashboard(ctx context.Context, caller authorization.Caller) (*Dashboard, error)
	MatchStats(ctx context.Context, caller authorization.Caller, req MatchStatsRequest) (*MatchStats, error)
	HoursReport(ctx context.Context, caller authorization.Caller, req HoursReportRequest) (*HoursReport, error)
	// HoursReportPDF renders HoursReport as a PDF document.
	HoursReportPDF(ctx context.Context, caller authorization.Caller, req HoursReportRequest) (io.Reader, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization_id")
	ErrInvalidRange        = errors.New("invalid_date_range")
)
