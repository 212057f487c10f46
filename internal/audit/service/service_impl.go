package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/volunteerhub/internal/audit/domain"
	"github.com/smallbiznis/volunteerhub/internal/audit/masking"
	"github.com/smallbiznis/volunteerhub/internal/clock"
	obscontext "github.com/smallbiznis/volunteerhub/internal/observability/context"
	"github.com/smallbiznis/volunteerhub/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  auditdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  auditdomain.Repository
}

func NewService(p Params) auditdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Record(ctx context.Context, tx *gorm.DB, entry auditdomain.Entry) error {
	action := strings.TrimSpace(entry.Action)
	if action == "" {
		return auditdomain.ErrInvalidAction
	}

	level := strings.ToLower(strings.TrimSpace(entry.Level))
	switch level {
	case "":
		level = auditdomain.LevelInfo
	case auditdomain.LevelInfo, auditdomain.LevelWarning, auditdomain.LevelError:
	default:
		return auditdomain.ErrInvalidLevel
	}

	source := strings.TrimSpace(entry.Source)
	if source == "" {
		source = "system"
	}
	message := strings.TrimSpace(entry.Message)
	if message == "" {
		message = action
	}

	payload := map[string]any{}
	for key, value := range masking.MaskSensitive(entry.Metadata) {
		payload[key] = value
	}
	if requestID := obscontext.RequestIDFromContext(ctx); requestID != "" {
		payload["request_id"] = requestID
	}

	record := auditdomain.SystemLog{
		ID:         s.genID.Generate(),
		Level:      level,
		Source:     source,
		Action:     action,
		Message:    message,
		ActorID:    s.resolveActor(ctx, entry.ActorID),
		TargetType: strings.TrimSpace(entry.TargetType),
		TargetID:   normalize(entry.TargetID),
		Metadata:   datatypes.JSONMap(payload),
		CreatedAt:  s.clock.Now(),
	}

	if tx == nil {
		tx = s.db
	}
	if err := s.repo.Insert(ctx, tx, &record); err != nil {
		s.log.Warn("failed to write system log", zap.String("action", action), zap.Error(err))
		return err
	}
	return nil
}

func (s *Service) List(ctx context.Context, req auditdomain.ListRequest) (pagination.Page[auditdomain.SystemLog], error) {
	page := req.Page.Normalize()
	items, total, err := s.repo.List(ctx, s.db, auditdomain.ListFilter{
		Level:  strings.ToLower(req.Level),
		Source: req.Source,
		Action: req.Action,
	}, page)
	if err != nil {
		return pagination.Page[auditdomain.SystemLog]{}, err
	}
	return pagination.NewPage(items, page, total), nil
}

func (s *Service) resolveActor(ctx context.Context, actorID *snowflake.ID) *snowflake.ID {
	if actorID != nil && *actorID != 0 {
		return actorID
	}
	raw, _ := obscontext.ActorFromContext(ctx)
	if raw == "" {
		return nil
	}
	id, err := snowflake.ParseString(raw)
	if err != nil || id == 0 {
		return nil
	}
	return &id
}

func normalize(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
