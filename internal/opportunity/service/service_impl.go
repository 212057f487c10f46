package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/volunteerhub/internal/audit/domain"
	"github.com/smallbiznis/volunteerhub/internal/authorization"
	"github.com/smallbiznis/volunteerhub/internal/clock"
	"github.com/smallbiznis/volunteerhub/internal/opportunity/domain"
	"github.com/smallbiznis/volunteerhub/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxTitleLength = 200

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
	Authz authorization.Service
	Audit auditdomain.Service
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
	authz authorization.Service
	audit auditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("opportunity.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
		authz: p.Authz,
		audit: p.Audit,
	}
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (pagination.Page[domain.Opportunity], error) {
	filter := domain.ListFilter{
		Title:    req.Title,
		Location: req.Location,
	}
	if strings.TrimSpace(req.OrganizationID) != "" {
		orgID, err := snowflake.ParseString(strings.TrimSpace(req.OrganizationID))
		if err != nil || orgID == 0 {
			return pagination.Page[domain.Opportunity]{}, domain.ErrInvalidOrganization
		}
		filter.OrganizationID = orgID
	}

	page := req.Page.Normalize()
	items, total, err := s.repo.List(ctx, s.db, filter, page)
	if err != nil {
		return pagination.Page[domain.Opportunity]{}, err
	}
	return pagination.NewPage(items, page, total), nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Opportunity, error) {
	oppID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, oppID)
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*domain.Opportunity, error) {
	opp, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if opp == nil {
		return nil, domain.ErrNotFound
	}
	return opp, nil
}

func (s *Service) Unapplied(ctx context.Context, exclude []snowflake.ID, limit int) ([]domain.Opportunity, error) {
	items, _, err := s.repo.List(ctx, s.db, domain.ListFilter{ExcludeIDs: exclude}, pagination.Pagination{
		Page:     1,
		PageSize: limit,
	})
	return items, err
}

func (s *Service) Create(ctx context.Context, caller authorization.Caller, req domain.CreateRequest) (*domain.Opportunity, error) {
	orgID, err := s.targetOrganization(ctx, caller, req.OrganizationID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, caller, authorization.ActionCreate, authorization.Resource{
		Object:         authorization.ObjectOpportunity,
		OrganizationID: orgID,
	}); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" || len(title) > maxTitleLength {
		return nil, domain.ErrInvalidTitle
	}
	if req.StartDate.IsZero() {
		return nil, domain.ErrInvalidDates
	}
	if req.EndDate != nil && req.EndDate.Before(req.StartDate) {
		return nil, domain.ErrInvalidDates
	}

	exists, err := s.repo.OrganizationExists(ctx, s.db, orgID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrInvalidOrganization
	}

	now := s.clock.Now()
	opp := domain.Opportunity{
		ID:             s.genID.Generate(),
		OrganizationID: orgID,
		Title:          title,
		Description:    strings.TrimSpace(req.Description),
		SkillsRequired: strings.TrimSpace(req.SkillsRequired),
		Location:       strings.TrimSpace(req.Location),
		StartDate:      req.StartDate.UTC(),
		EndDate:        utcPtr(req.EndDate),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Insert(ctx, s.db, &opp); err != nil {
		return nil, err
	}

	s.log.Info("opportunity created",
		zap.String("opportunity_id", opp.ID.String()),
		zap.String("organization_id", orgID.String()),
	)
	return &opp, nil
}

func (s *Service) Update(ctx context.Context, caller authorization.Caller, id string, req domain.UpdateRequest) (*domain.Opportunity, error) {
	opp, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, caller, authorization.ActionUpdate, authorization.Resource{
		Object:         authorization.ObjectOpportunity,
		OrganizationID: opp.OrganizationID,
	}); err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" || len(title) > maxTitleLength {
			return nil, domain.ErrInvalidTitle
		}
		opp.Title = title
	}
	if req.Description != nil {
		opp.Description = strings.TrimSpace(*req.Description)
	}
	if req.SkillsRequired != nil {
		opp.SkillsRequired = strings.TrimSpace(*req.SkillsRequired)
	}
	if req.Location != nil {
		opp.Location = strings.TrimSpace(*req.Location)
	}
	if req.StartDate != nil {
		if req.StartDate.IsZero() {
			return nil, domain.ErrInvalidDates
		}
		opp.StartDate = req.StartDate.UTC()
	}
	if req.EndDate != nil {
		opp.EndDate = utcPtr(req.EndDate)
	}
	if opp.EndDate != nil && opp.EndDate.Before(opp.StartDate) {
		return nil, domain.ErrInvalidDates
	}
	opp.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, opp); err != nil {
		return nil, err
	}
	return opp, nil
}

func (s *Service) Delete(ctx context.Context, caller authorization.Caller, id string) error {
	opp, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authz.Authorize(ctx, caller, authorization.ActionDelete, authorization.Resource{
		Object:         authorization.ObjectOpportunity,
		OrganizationID: opp.OrganizationID,
	}); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dependents, err := s.repo.CountDependents(ctx, tx, opp.ID)
		if err != nil {
			return err
		}
		if dependents > 0 {
			return domain.ErrHasDependents
		}
		if err := s.repo.Delete(ctx, tx, opp.ID); err != nil {
			return err
		}

		actorID := caller.ID
		return s.audit.Record(ctx, tx, auditdomain.Entry{
			Level:      auditdomain.LevelWarning,
			Source:     "opportunity",
			Action:     "opportunity.deleted",
			Message:    "opportunity deleted: " + opp.Title,
			ActorID:    &actorID,
			TargetType: authorization.ObjectOpportunity,
			TargetID:   opp.ID.String(),
			Metadata: map[string]any{
				"organization_id": opp.OrganizationID.String(),
			},
		})
	})
}

// targetOrganization resolves the organization an opportunity is created in.
// Organization users always create into their own organization.
func (s *Service) targetOrganization(ctx context.Context, caller authorization.Caller, requested string) (snowflake.ID, error) {
	if caller.Is(authorization.RoleOrganization) {
		orgID, ok := caller.OrgID()
		if !ok {
			return 0, authorization.ErrForbidden
		}
		return orgID, nil
	}

	trimmed := strings.TrimSpace(requested)
	if trimmed == "" {
		if caller.Is(authorization.RoleAdmin) {
			return 0, domain.ErrInvalidOrganization
		}
		return 0, authorization.ErrForbidden
	}
	orgID, err := snowflake.ParseString(trimmed)
	if err != nil || orgID == 0 {
		return 0, domain.ErrInvalidOrganization
	}
	return orgID, nil
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

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
