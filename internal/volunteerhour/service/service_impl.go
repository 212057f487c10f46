package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/volunteerhub/internal/audit/domain"
	"github.com/smallbiznis/volunteerhub/internal/authorization"
	"github.com/smallbiznis/volunteerhub/internal/clock"
	notificationdomain "github.com/smallbiznis/volunteerhub/internal/notification/domain"
	"github.com/smallbiznis/volunteerhub/internal/observability/metrics"
	opportunitydomain "github.com/smallbiznis/volunteerhub/internal/opportunity/domain"
	"github.com/smallbiznis/volunteerhub/internal/volunteerhour/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxDescriptionLength = 2000

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	Clock         clock.Clock
	Repo          domain.Repository
	Authz         authorization.Service
	Opportunities opportunitydomain.Service
	Notifier      notificationdomain.Enqueuer
	Audit         auditdomain.Service
	Metrics       *metrics.Metrics `optional:"true"`
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	genID         *snowflake.Node
	clock         clock.Clock
	repo          domain.Repository
	authz         authorization.Service
	opportunities opportunitydomain.Service
	notifier      notificationdomain.Enqueuer
	audit         auditdomain.Service
	metrics       *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("volunteerhour.service"),
		genID:         p.GenID,
		clock:         p.Clock,
		repo:          p.Repo,
		authz:         p.Authz,
		opportunities: p.Opportunities,
		notifier:      p.Notifier,
		audit:         p.Audit,
		metrics:       p.Metrics,
	}
}

func (s *Service) Log(ctx context.Context, caller authorization.Caller, req domain.LogRequest) (*domain.Hour, error) {
	if err := s.authz.Authorize(ctx, caller, authorization.ActionCreate, authorization.Resource{
		Object:  authorization.ObjectHour,
		OwnerID: caller.ID,
	}); err != nil {
		return nil, err
	}

	if err := validateHours(req.Hours); err != nil {
		return nil, err
	}
	if req.Date.IsZero() {
		return nil, domain.ErrInvalidDate
	}
	description := clipDescription(req.Description)

	oppID, err := snowflake.ParseString(strings.TrimSpace(req.OpportunityID))
	if err != nil || oppID == 0 {
		return nil, domain.ErrInvalidOpportunityID
	}
	opp, err := s.opportunities.GetByID(ctx, oppID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	hour := domain.Hour{
		ID:            s.genID.Generate(),
		VolunteerID:   caller.ID,
		OpportunityID: opp.ID,
		Hours:         req.Hours,
		Date:          req.Date.UTC(),
		Description:   description,
		Verified:      false,
		Status:        domain.StatusUnverified,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Insert(ctx, s.db, &hour); err != nil {
		s.log.Error("failed to log hours",
			zap.String("volunteer_id", caller.ID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	s.metrics.RecordHoursLogged(ctx, hour.Hours)
	s.log.Info("hours logged",
		zap.String("hour_id", hour.ID.String()),
		zap.String("volunteer_id", caller.ID.String()),
		zap.Float64("hours", hour.Hours),
	)
	return &hour, nil
}

func (s *Service) List(ctx context.Context, caller authorization.Caller, req domain.ListRequest) ([]domain.Hour, error) {
	scope, err := s.authz.Scope(ctx, caller, authorization.ObjectHour, authorization.ActionRead)
	if err != nil {
		return nil, err
	}

	filter := domain.ListFilter{}
	switch scope {
	case authorization.ScopeAll:
	case authorization.ScopeOrganization:
		orgID, ok := caller.OrgID()
		if !ok {
			return []domain.Hour{}, nil
		}
		filter.OrganizationID = orgID
	case authorization.ScopeSelf:
		filter.VolunteerID = caller.ID
	default:
		return []domain.Hour{}, nil
	}

	if status := strings.TrimSpace(req.Status); status != "" {
		st := domain.Status(strings.ToLower(status))
		if st != domain.StatusUnverified && !st.Terminal() {
			return nil, domain.ErrInvalidStatus
		}
		filter.Status = st
	}
	if oppID := strings.TrimSpace(req.OpportunityID); oppID != "" {
		id, err := snowflake.ParseString(oppID)
		if err != nil || id == 0 {
			return nil, domain.ErrInvalidOpportunityID
		}
		filter.OpportunityID = id
	}

	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Hour{}
	}
	return items, nil
}

func (s *Service) Get(ctx context.Context, caller authorization.Caller, id string) (*domain.Hour, error) {
	hour, opp, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, caller, authorization.ActionRead, resourceOf(hour, opp)); err != nil {
		return nil, err
	}
	return hour, nil
}

func (s *Service) Update(ctx context.Context, caller authorization.Caller, id string, req domain.UpdateRequest) (*domain.Hour, error) {
	hour, opp, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, caller, authorization.ActionUpdate, resourceOf(hour, opp)); err != nil {
		return nil, err
	}
	if hour.Status.Terminal() {
		return nil, domain.ErrAlreadyDecided
	}

	if req.Hours != nil {
		if err := validateHours(*req.Hours); err != nil {
			return nil, err
		}
		hour.Hours = *req.Hours
	}
	if req.Date != nil {
		if req.Date.IsZero() {
			return nil, domain.ErrInvalidDate
		}
		hour.Date = req.Date.UTC()
	}
	if req.Description != nil {
		hour.Description = clipDescription(*req.Description)
	}
	hour.UpdatedAt = s.clock.Now()

	changed, err := s.repo.UpdateUnverified(ctx, s.db, hour)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, domain.ErrAlreadyDecided
	}
	return hour, nil
}

func (s *Service) Delete(ctx context.Context, caller authorization.Caller, id string) error {
	hour, opp, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authz.Authorize(ctx, caller, authorization.ActionDelete, resourceOf(hour, opp)); err != nil {
		return err
	}
	if hour.Status.Terminal() {
		return domain.ErrAlreadyDecided
	}

	deleted, err := s.repo.DeleteUnverified(ctx, s.db, hour.ID)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrAlreadyDecided
	}

	s.log.Info("hours deleted",
		zap.String("hour_id", hour.ID.String()),
		zap.String("actor_id", caller.ID.String()),
	)
	return nil
}

func (s *Service) Verify(ctx context.Context, caller authorization.Caller, id string, req domain.VerifyRequest) (*domain.Hour, error) {
	decision := domain.Decision(strings.ToLower(strings.TrimSpace(req.Decision)))
	if !decision.Valid() {
		return nil, domain.ErrInvalidDecision
	}

	hour, opp, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, caller, authorization.ActionVerify, resourceOf(hour, opp)); err != nil {
		return nil, err
	}
	if hour.Status.Terminal() {
		return nil, domain.ErrAlreadyDecided
	}

	now := s.clock.Now()
	status := decision.Status()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		changed, err := s.repo.Decide(ctx, tx, hour.ID, status, caller.ID, now)
		if err != nil {
			return err
		}
		if !changed {
			return domain.ErrAlreadyDecided
		}

		if err := s.notifier.Enqueue(ctx, tx, notificationdomain.Message{
			Event:       notificationdomain.EventHoursVerified,
			RecipientID: hour.VolunteerID,
			Data: map[string]any{
				"Title":         opp.Title,
				"Hours":         strconv.FormatFloat(hour.Hours, 'f', -1, 64),
				"Date":          hour.Date.Format(time.DateOnly),
				"Decision":      decisionLabel(status),
				"DecisionLower": string(status),
				"HourID":        hour.ID.String(),
			},
		}); err != nil {
			return err
		}

		actorID := caller.ID
		return s.audit.Record(ctx, tx, auditdomain.Entry{
			Level:      auditdomain.LevelInfo,
			Source:     "volunteer_hours",
			Action:     "hours." + string(status),
			Message:    "hour record " + string(status),
			ActorID:    &actorID,
			TargetType: authorization.ObjectHour,
			TargetID:   hour.ID.String(),
			Metadata: map[string]any{
				"decision":       string(decision),
				"hours":          hour.Hours,
				"opportunity_id": opp.ID.String(),
				"volunteer_id":   hour.VolunteerID.String(),
			},
		})
	})
	if err != nil {
		if !errors.Is(err, domain.ErrAlreadyDecided) {
			s.log.Error("failed to verify hours",
				zap.String("hour_id", hour.ID.String()),
				zap.Error(err),
			)
		}
		return nil, err
	}

	verifiedBy := caller.ID
	hour.Status = status
	hour.Verified = status == domain.StatusVerified
	hour.VerifiedBy = &verifiedBy
	hour.VerifiedAt = &now
	hour.UpdatedAt = now

	s.metrics.RecordHoursDecision(ctx, string(decision))
	s.log.Info("hours decided",
		zap.String("hour_id", hour.ID.String()),
		zap.String("decision", string(decision)),
		zap.String("actor_id", caller.ID.String()),
	)
	return hour, nil
}

func (s *Service) load(ctx context.Context, id string) (*domain.Hour, *opportunitydomain.Opportunity, error) {
	hourID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || hourID == 0 {
		return nil, nil, domain.ErrNotFound
	}

	hour, err := s.repo.FindByID(ctx, s.db, hourID)
	if err != nil {
		return nil, nil, err
	}
	if hour == nil {
		return nil, nil, domain.ErrNotFound
	}

	opp, err := s.opportunities.GetByID(ctx, hour.OpportunityID)
	if err != nil {
		if errors.Is(err, opportunitydomain.ErrNotFound) {
			return nil, nil, domain.ErrNotFound
		}
		return nil, nil, err
	}
	return hour, opp, nil
}

func resourceOf(hour *domain.Hour, opp *opportunitydomain.Opportunity) authorization.Resource {
	return authorization.Resource{
		Object:         authorization.ObjectHour,
		OwnerID:        hour.VolunteerID,
		OrganizationID: opp.OrganizationID,
	}
}

func decisionLabel(status domain.Status) string {
	if status == domain.StatusVerified {
		return "Verified"
	}
	return "Rejected"
}

func validateHours(hours float64) error {
	if hours <= 0 || hours > domain.MaxHoursPerEntry {
		return domain.ErrInvalidHours
	}
	return nil
}

// clipDescription trims and caps a description at maxDescriptionLength bytes
// without splitting a multi-byte rune.
func clipDescription(raw string) string {
	description := strings.TrimSpace(raw)
	if len(description) <= maxDescriptionLength {
		return description
	}
	n := maxDescriptionLength
	for n > 0 && !utf8.RuneStart(description[n]) {
		n--
	}
	return description[:n]
}
