package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/volunteerhub/internal/authorization"
	"github.com/smallbiznis/volunteerhub/internal/clock"
	"github.com/smallbiznis/volunteerhub/internal/organization/domain"
	"github.com/smallbiznis/volunteerhub/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxSlugAttempts = 20

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
	Authz authorization.Service
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
	authz authorization.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("organization.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
		authz: p.Authz,
	}
}

func (s *Service) Provision(ctx context.Context, tx *gorm.DB, req domain.ProvisionRequest) (*domain.Organization, error) {
	if tx == nil {
		tx = s.db
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	email := strings.TrimSpace(req.ContactEmail)
	if email != "" && !strings.Contains(email, "@") {
		return nil, domain.ErrInvalidEmail
	}

	orgSlug, err := s.uniqueSlug(ctx, tx, name)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	org := domain.Organization{
		ID:           s.genID.Generate(),
		Name:         name,
		Slug:         orgSlug,
		Description:  strings.TrimSpace(req.Description),
		ContactEmail: email,
		Location:     strings.TrimSpace(req.Location),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Insert(ctx, tx, &org); err != nil {
		return nil, err
	}

	s.log.Info("organization provisioned",
		zap.String("organization_id", org.ID.String()),
		zap.String("slug", org.Slug),
	)
	return &org, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Organization, error) {
	orgID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	org, err := s.repo.FindByID(ctx, s.db, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, domain.ErrNotFound
	}
	return org, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (pagination.Page[domain.Organization], error) {
	page := req.Page.Normalize()
	items, total, err := s.repo.List(ctx, s.db, domain.ListFilter{
		Name:     req.Name,
		Location: req.Location,
	}, page)
	if err != nil {
		return pagination.Page[domain.Organization]{}, err
	}
	return pagination.NewPage(items, page, total), nil
}

func (s *Service) Update(ctx context.Context, caller authorization.Caller, id string, req domain.UpdateRequest) (*domain.Organization, error) {
	org, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.authz.Authorize(ctx, caller, authorization.ActionUpdate, authorization.Resource{
		Object:         authorization.ObjectOrganization,
		OrganizationID: org.ID,
	}); err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		org.Name = name
	}
	if req.ContactEmail != nil {
		email := strings.TrimSpace(*req.ContactEmail)
		if email != "" && !strings.Contains(email, "@") {
			return nil, domain.ErrInvalidEmail
		}
		org.ContactEmail = email
	}
	if req.Description != nil {
		org.Description = strings.TrimSpace(*req.Description)
	}
	if req.Location != nil {
		org.Location = strings.TrimSpace(*req.Location)
	}
	org.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, org); err != nil {
		return nil, err
	}
	return org, nil
}

func (s *Service) uniqueSlug(ctx context.Context, db *gorm.DB, name string) (string, error) {
	base := slug.Make(name)
	if base == "" {
		base = "organization"
	}

	candidate := base
	for i := 2; i <= maxSlugAttempts+1; i++ {
		exists, err := s.repo.SlugExists(ctx, db, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return fmt.Sprintf("%s-%s", base, s.genID.Generate().String()), nil
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
