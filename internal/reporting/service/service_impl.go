package service

import (
	"context"
	"io"
	"math"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/volunteerhub/internal/authorization"
	"github.com/smallbiznis/volunteerhub/internal/clock"
	"github.com/smallbiznis/volunteerhub/internal/providers/pdf"
	"github.com/smallbiznis/volunteerhub/internal/reporting/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	recentUsersLimit = 5
	allScopeLabel    = "All organizations"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	Repo  domain.Repository
	Authz authorization.Service
	PDF   pdf.Provider
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	repo  domain.Repository
	authz authorization.Service
	pdf   pdf.Provider
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("reporting.service"),
		clock: p.Clock,
		repo:  p.Repo,
		authz: p.Authz,
		pdf:   p.PDF,
	}
}

func (s *Service) Dashboard(ctx context.Context, caller authorization.Caller) (*domain.Dashboard, error) {
	if err := s.authz.Authorize(ctx, caller, authorization.ActionRead, authorization.Resource{
		Object: authorization.ObjectReport,
	}); err != nil {
		return nil, err
	}

	roles, err := s.repo.CountUsersByRole(ctx, s.db)
	if err != nil {
		return nil, err
	}
	totals, err := s.repo.Totals(ctx, s.db)
	if err != nil {
		return nil, err
	}
	recent, err := s.repo.RecentUsers(ctx, s.db, recentUsersLimit)
	if err != nil {
		return nil, err
	}
	if recent == nil {
		recent = []domain.RecentUser{}
	}

	counts := domain.UserCounts{
		Volunteers:    roles[string(authorization.RoleVolunteer)],
		Organizations: roles[string(authorization.RoleOrganization)],
		Admins:        roles[string(authorization.RoleAdmin)],
	}
	for _, n := range roles {
		counts.Total += n
	}

	return &domain.Dashboard{
		UserCounts:          counts,
		OrganizationCount:   totals.Organizations,
		OpportunityCount:    totals.Opportunities,
		MatchCount:          totals.Matches,
		PendingMatchCount:   totals.PendingMatches,
		HourRecordCount:     totals.HourRecords,
		UnverifiedHourCount: totals.UnverifiedHours,
		TotalVerifiedHours:  roundTo(totals.TotalVerifiedHours, 2),
		RecentUsers:         recent,
	}, nil
}

func (s *Service) MatchStats(ctx context.Context, caller authorization.Caller, req domain.MatchStatsRequest) (*domain.MatchStats, error) {
	orgID, err := s.authorizeScope(ctx, caller, req.OrganizationID)
	if err != nil {
		return nil, err
	}

	stats, err := s.repo.MatchStats(ctx, s.db, orgID)
	if err != nil {
		return nil, err
	}
	stats.AcceptanceRate = acceptanceRate(stats.AcceptedMatches, stats.TotalMatches)
	return &stats, nil
}

func (s *Service) HoursReport(ctx context.Context, caller authorization.Caller, req domain.HoursReportRequest) (*domain.HoursReport, error) {
	orgID, err := s.authorizeScope(ctx, caller, req.OrganizationID)
	if err != nil {
		return nil, err
	}
	if req.From != nil && req.To != nil && req.To.Before(*req.From) {
		return nil, domain.ErrInvalidRange
	}

	lines, err := s.repo.VerifiedHours(ctx, s.db, domain.HoursFilter{
		OrganizationID: orgID,
		From:           req.From,
		To:             req.To,
	})
	if err != nil {
		return nil, err
	}
	if lines == nil {
		lines = []domain.HoursLine{}
	}

	report := &domain.HoursReport{
		Scope:       allScopeLabel,
		From:        req.From,
		To:          req.To,
		Lines:       lines,
		GeneratedAt: s.clock.Now(),
	}
	if orgID != 0 {
		report.OrganizationID = &orgID
		name, err := s.repo.OrganizationName(ctx, s.db, orgID)
		if err != nil {
			return nil, err
		}
		report.Scope = name
	}
	for _, line := range lines {
		report.TotalHours += line.Hours
	}
	report.TotalHours = roundTo(report.TotalHours, 2)
	return report, nil
}

func (s *Service) HoursReportPDF(ctx context.Context, caller authorization.Caller, req domain.HoursReportRequest) (io.Reader, error) {
	report, err := s.HoursReport(ctx, caller, req)
	if err != nil {
		return nil, err
	}

	doc := pdf.HoursReport{
		Title:       "Verified volunteer hours",
		Scope:       report.Scope,
		GeneratedAt: report.GeneratedAt,
		From:        report.From,
		To:          report.To,
		TotalHours:  report.TotalHours,
		Rows:        make([]pdf.HoursRow, 0, len(report.Lines)),
	}
	for _, line := range report.Lines {
		doc.Rows = append(doc.Rows, pdf.HoursRow{
			Volunteer:   line.Volunteer,
			Opportunity: line.OpportunityTitle,
			Entries:     line.Entries,
			Hours:       line.Hours,
		})
	}

	out, err := s.pdf.GenerateHoursReport(ctx, doc)
	if err != nil {
		s.log.Error("failed to render hours report", zap.Error(err))
		return nil, err
	}
	return out, nil
}

// authorizeScope resolves the organization a report covers. Organization
// users are pinned to their own organization; zero means every organization.
func (s *Service) authorizeScope(ctx context.Context, caller authorization.Caller, requested string) (snowflake.ID, error) {
	var orgID snowflake.ID
	if trimmed := strings.TrimSpace(requested); trimmed != "" {
		parsed, err := snowflake.ParseString(trimmed)
		if err != nil || parsed == 0 {
			return 0, domain.ErrInvalidOrganization
		}
		orgID = parsed
	} else if caller.Is(authorization.RoleOrganization) {
		orgID, _ = caller.OrgID()
	}

	if err := s.authz.Authorize(ctx, caller, authorization.ActionRead, authorization.Resource{
		Object:         authorization.ObjectReport,
		OrganizationID: orgID,
	}); err != nil {
		return 0, err
	}
	return orgID, nil
}

func acceptanceRate(accepted, total int64) float64 {
	if total == 0 {
		return 0
	}
	return roundTo(float64(accepted)/float64(total)*100, 2)
}

func roundTo(v float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}
