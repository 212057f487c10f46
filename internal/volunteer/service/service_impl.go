package service

import (
	"context"
	"math"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/volunteerhub/internal/authorization"
	"github.com/smallbiznis/volunteerhub/internal/clock"
	"github.com/smallbiznis/volunteerhub/internal/volunteer/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	recentActivityLimit = 5
	maxSkills           = 50
	maxSkillLength      = 64
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	Repo  domain.Repository
	Authz authorization.Service
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	repo  domain.Repository
	authz authorization.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("volunteer.service"),
		clock: p.Clock,
		repo:  p.Repo,
		authz: p.Authz,
	}
}

func (s *Service) ProvisionProfile(ctx context.Context, tx *gorm.DB, userID snowflake.ID, fullName string) (*domain.Profile, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidID
	}
	if tx == nil {
		tx = s.db
	}

	now := s.clock.Now()
	profile := domain.Profile{
		UserID:    userID,
		FullName:  strings.TrimSpace(fullName),
		Skills:    datatypes.JSONSlice[string]{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Insert(ctx, tx, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (s *Service) GetProfile(ctx context.Context, caller authorization.Caller) (*domain.Profile, error) {
	if err := s.authz.Authorize(ctx, caller, authorization.ActionRead, authorization.Resource{
		Object:  authorization.ObjectVolunteerProfile,
		OwnerID: caller.ID,
	}); err != nil {
		return nil, err
	}
	return s.load(ctx, caller.ID)
}

func (s *Service) UpdateProfile(ctx context.Context, caller authorization.Caller, req domain.UpdateProfileRequest) (*domain.Profile, error) {
	if err := s.authz.Authorize(ctx, caller, authorization.ActionUpdate, authorization.Resource{
		Object:  authorization.ObjectVolunteerProfile,
		OwnerID: caller.ID,
	}); err != nil {
		return nil, err
	}

	profile, err := s.load(ctx, caller.ID)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		profile.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Bio != nil {
		profile.Bio = strings.TrimSpace(*req.Bio)
	}
	if req.Phone != nil {
		profile.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Location != nil {
		profile.Location = strings.TrimSpace(*req.Location)
	}
	if req.Availability != nil {
		profile.Availability = strings.TrimSpace(*req.Availability)
	}
	if req.Skills != nil {
		skills, err := normalizeSkills(req.Skills)
		if err != nil {
			return nil, err
		}
		profile.Skills = skills
	}
	profile.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *Service) Stats(ctx context.Context, caller authorization.Caller, volunteerID string) (*domain.Stats, error) {
	id, err := parseID(volunteerID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, caller, authorization.ActionRead, authorization.Resource{
		Object:  authorization.ObjectVolunteerProfile,
		OwnerID: id,
	}); err != nil {
		return nil, err
	}

	hours, err := s.repo.SumHours(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	matches, err := s.repo.CountMatches(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	recent, err := s.repo.RecentHours(ctx, s.db, id, recentActivityLimit)
	if err != nil {
		return nil, err
	}
	if recent == nil {
		recent = []domain.RecentHour{}
	}

	return &domain.Stats{
		VolunteerID:          id,
		TotalHours:           hours.Verified,
		TotalLoggedHours:     hours.Logged,
		TotalApplications:    matches.Total,
		AcceptedApplications: matches.Accepted,
		CompletionRate:       completionRate(matches),
		RecentActivity:       recent,
	}, nil
}

func (s *Service) Skills(ctx context.Context, volunteerID snowflake.ID) ([]string, error) {
	profile, err := s.repo.FindByUserID(ctx, s.db, volunteerID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return []string{}, nil
	}
	return []string(profile.Skills), nil
}

func (s *Service) load(ctx context.Context, userID snowflake.ID) (*domain.Profile, error) {
	profile, err := s.repo.FindByUserID(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, domain.ErrProfileNotFound
	}
	if profile.Skills == nil {
		profile.Skills = datatypes.JSONSlice[string]{}
	}
	return profile, nil
}

// completionRate is accepted applications as a percentage of all
// applications, rounded to two decimals.
func completionRate(m domain.MatchTotals) float64 {
	if m.Total == 0 {
		return 0
	}
	rate := float64(m.Accepted) / float64(m.Total) * 100
	return math.Round(rate*100) / 100
}

func normalizeSkills(values []string) (datatypes.JSONSlice[string], error) {
	if len(values) > maxSkills {
		return nil, domain.ErrInvalidSkill
	}
	seen := make(map[string]struct{}, len(values))
	out := make(datatypes.JSONSlice[string], 0, len(values))
	for _, value := range values {
		skill := strings.TrimSpace(value)
		if skill == "" {
			continue
		}
		if len(skill) > maxSkillLength {
			return nil, domain.ErrInvalidSkill
		}
		key := strings.ToLower(skill)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, skill)
	}
	return out, nil
}

func parseID(value string) (snowflake.ID, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, domain.ErrInvalidID
	}
	id, err := snowflake.ParseString(trimmed)
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
