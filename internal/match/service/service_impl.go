package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/volunteerhub/internal/audit/domain"
	"github.com/smallbiznis/volunteerhub/internal/authorization"
	"github.com/smallbiznis/volunteerhub/internal/clock"
	"github.com/smallbiznis/volunteerhub/internal/match/domain"
	notificationdomain "github.com/smallbiznis/volunteerhub/internal/notification/domain"
	"github.com/smallbiznis/volunteerhub/internal/observability/metrics"
	opportunitydomain "github.com/smallbiznis/volunteerhub/internal/opportunity/domain"
	volunteerdomain "github.com/smallbiznis/volunteerhub/internal/volunteer/domain"
	"github.com/smallbiznis/volunteerhub/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	suggestionLimit      = 10
	suggestionCandidates = 100
)

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	Clock         clock.Clock
	Repo          domain.Repository
	Authz         authorization.Service
	Opportunities opportunitydomain.Service
	Volunteers    volunteerdomain.Service
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
	volunteers    volunteerdomain.Service
	notifier      notificationdomain.Enqueuer
	audit         auditdomain.Service
	metrics       *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("match.service"),
		genID:         p.GenID,
		clock:         p.Clock,
		repo:          p.Repo,
		authz:         p.Authz,
		opportunities: p.Opportunities,
		volunteers:    p.Volunteers,
		notifier:      p.Notifier,
		audit:         p.Audit,
		metrics:       p.Metrics,
	}
}

func (s *Service) List(ctx context.Context, caller authorization.Caller, req domain.ListRequest) ([]domain.Match, error) {
	scope, err := s.authz.Scope(ctx, caller, authorization.ObjectMatch, authorization.ActionRead)
	if err != nil {
		return nil, err
	}

	filter := domain.ListFilter{}
	switch scope {
	case authorization.ScopeAll:
	case authorization.ScopeOrganization:
		orgID, ok := caller.OrgID()
		if !ok {
			return []domain.Match{}, nil
		}
		filter.OrganizationID = orgID
	case authorization.ScopeSelf:
		filter.VolunteerID = caller.ID
	default:
		return []domain.Match{}, nil
	}

	if status := strings.TrimSpace(req.Status); status != "" {
		st := domain.Status(strings.ToLower(status))
		if st != domain.StatusPending && !st.Settable() {
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
		items = []domain.Match{}
	}
	return items, nil
}

func (s *Service) Get(ctx context.Context, caller authorization.Caller, id string) (*domain.Match, error) {
	match, opp, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, caller, authorization.ActionRead, resourceOf(match, opp)); err != nil {
		return nil, err
	}
	return match, nil
}

func (s *Service) Create(ctx context.Context, caller authorization.Caller, req domain.CreateRequest) (*domain.Match, error) {
	if err := s.authz.Authorize(ctx, caller, authorization.ActionCreate, authorization.Resource{
		Object:  authorization.ObjectMatch,
		OwnerID: caller.ID,
	}); err != nil {
		return nil, err
	}

	oppID, err := snowflake.ParseString(strings.TrimSpace(req.OpportunityID))
	if err != nil || oppID == 0 {
		return nil, domain.ErrInvalidOpportunityID
	}
	opp, err := s.opportunities.GetByID(ctx, oppID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	match := domain.Match{
		ID:            s.genID.Generate(),
		VolunteerID:   caller.ID,
		OpportunityID: opp.ID,
		Status:        domain.StatusPending,
		MatchedOn:     now,
		UpdatedAt:     now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := s.repo.Exists(ctx, tx, caller.ID, opp.ID)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrAlreadyApplied
		}
		if err := s.repo.Insert(ctx, tx, &match); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrAlreadyApplied
			}
			return err
		}
		return s.notifier.Enqueue(ctx, tx, notificationdomain.Message{
			Event:       notificationdomain.EventMatchCreated,
			RecipientID: caller.ID,
			Data: map[string]any{
				"Title":         opp.Title,
				"OpportunityID": opp.ID.String(),
				"MatchID":       match.ID.String(),
			},
		})
	})
	if err != nil {
		if !errors.Is(err, domain.ErrAlreadyApplied) {
			s.log.Error("failed to create match",
				zap.String("volunteer_id", caller.ID.String()),
				zap.String("opportunity_id", opp.ID.String()),
				zap.Error(err),
			)
		}
		return nil, err
	}

	s.metrics.RecordMatchCreated(ctx)
	s.log.Info("match created",
		zap.String("match_id", match.ID.String()),
		zap.String("volunteer_id", caller.ID.String()),
		zap.String("opportunity_id", opp.ID.String()),
	)
	return &match, nil
}

func (s *Service) UpdateStatus(ctx context.Context, caller authorization.Caller, id string, req domain.UpdateStatusRequest) (*domain.Match, error) {
	status := domain.Status(strings.ToLower(strings.TrimSpace(req.Status)))
	if !status.Settable() {
		return nil, domain.ErrInvalidStatus
	}

	match, opp, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, caller, authorization.ActionUpdateStatus, resourceOf(match, opp)); err != nil {
		return nil, err
	}
	if match.Status.Terminal() {
		return nil, domain.ErrAlreadyDecided
	}

	now := s.clock.Now()
	previous := match.Status
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		changed, err := s.repo.Transition(ctx, tx, match.ID, status, now)
		if err != nil {
			return err
		}
		if !changed {
			return domain.ErrAlreadyDecided
		}

		if err := s.notifier.Enqueue(ctx, tx, notificationdomain.Message{
			Event:       notificationdomain.EventMatchStatusChanged,
			RecipientID: match.VolunteerID,
			Data: map[string]any{
				"Title":         opp.Title,
				"Status":        string(status),
				"StatusMessage": statusMessage(status),
				"OpportunityID": opp.ID.String(),
				"MatchID":       match.ID.String(),
			},
		}); err != nil {
			return err
		}

		actorID := caller.ID
		return s.audit.Record(ctx, tx, auditdomain.Entry{
			Level:      auditdomain.LevelInfo,
			Source:     "match",
			Action:     "match.status_changed",
			Message:    "match " + string(previous) + " -> " + string(status),
			ActorID:    &actorID,
			TargetType: authorization.ObjectMatch,
			TargetID:   match.ID.String(),
			Metadata: map[string]any{
				"from":           string(previous),
				"to":             string(status),
				"opportunity_id": opp.ID.String(),
				"volunteer_id":   match.VolunteerID.String(),
			},
		})
	})
	if err != nil {
		if !errors.Is(err, domain.ErrAlreadyDecided) {
			s.log.Error("failed to update match status",
				zap.String("match_id", match.ID.String()),
				zap.Error(err),
			)
		}
		return nil, err
	}

	match.Status = status
	match.UpdatedAt = now
	s.metrics.RecordMatchTransition(ctx, string(status))
	s.log.Info("match status changed",
		zap.String("match_id", match.ID.String()),
		zap.String("from", string(previous)),
		zap.String("to", string(status)),
		zap.String("actor_id", caller.ID.String()),
	)
	return match, nil
}

func (s *Service) Suggest(ctx context.Context, caller authorization.Caller) ([]domain.Suggestion, error) {
	// suggestions are only meaningful to someone who may apply
	if err := s.authz.Authorize(ctx, caller, authorization.ActionCreate, authorization.Resource{
		Object:  authorization.ObjectMatch,
		OwnerID: caller.ID,
	}); err != nil {
		return nil, err
	}

	skills, err := s.volunteers.Skills(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	applied, err := s.repo.OpportunityIDsForVolunteer(ctx, s.db, caller.ID)
	if err != nil {
		return nil, err
	}
	candidates, err := s.opportunities.Unapplied(ctx, applied, suggestionCandidates)
	if err != nil {
		return nil, err
	}

	return rank(skills, candidates, suggestionLimit), nil
}

// load resolves a match together with the opportunity that decides who owns it.
func (s *Service) load(ctx context.Context, id string) (*domain.Match, *opportunitydomain.Opportunity, error) {
	matchID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || matchID == 0 {
		// a malformed id cannot name an existing match
		return nil, nil, domain.ErrNotFound
	}

	match, err := s.repo.FindByID(ctx, s.db, matchID)
	if err != nil {
		return nil, nil, err
	}
	if match == nil {
		return nil, nil, domain.ErrNotFound
	}

	opp, err := s.opportunities.GetByID(ctx, match.OpportunityID)
	if err != nil {
		if errors.Is(err, opportunitydomain.ErrNotFound) {
			return nil, nil, domain.ErrNotFound
		}
		return nil, nil, err
	}
	return match, opp, nil
}

func statusMessage(status domain.Status) string {
	switch status {
	case domain.StatusAccepted:
		return "has been accepted"
	case domain.StatusRejected:
		return "has not been accepted"
	default:
		return "is being reviewed"
	}
}

func resourceOf(match *domain.Match, opp *opportunitydomain.Opportunity) authorization.Resource {
	return authorization.Resource{
		Object:         authorization.ObjectMatch,
		OwnerID:        match.VolunteerID,
		OrganizationID: opp.OrganizationID,
	}
}

// rank orders candidates by shared skills, then by start date.
func rank(skills []string, candidates []opportunitydomain.Opportunity, limit int) []domain.Suggestion {
	have := make(map[string]struct{}, len(skills))
	for _, skill := range skills {
		have[strings.ToLower(strings.TrimSpace(skill))] = struct{}{}
	}

	suggestions := make([]domain.Suggestion, 0, len(candidates))
	for _, opp := range candidates {
		matched := []string{}
		for _, required := range splitSkills(opp.SkillsRequired) {
			if _, ok := have[strings.ToLower(required)]; ok {
				matched = append(matched, required)
			}
		}
		suggestions = append(suggestions, domain.Suggestion{
			Opportunity:   opp,
			MatchedSkills: matched,
			Score:         len(matched),
		})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		if suggestions[i].Score != suggestions[j].Score {
			return suggestions[i].Score > suggestions[j].Score
		}
		return suggestions[i].Opportunity.StartDate.Before(suggestions[j].Opportunity.StartDate)
	})

	if len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions
}

func splitSkills(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n'
	})
	out := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		skill := strings.TrimSpace(field)
		key := strings.ToLower(skill)
		if skill == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, skill)
	}
	return out
}
