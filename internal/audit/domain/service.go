package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/volunteerhub/pkg/db/pagination"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	LevelInfo    = "info"
	LevelWarning = "warning"
	LevelError   = "error"
)

// SystemLog is an append-only record of a state change.
type SystemLog struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id"`
	Level      string            `gorm:"type:text;not null;index" json:"level"`
	Source     string            `gorm:"type:text;not null;index" json:"source"`
	Action     string            `gorm:"type:text;not null" json:"action"`
	Message    string            `gorm:"type:text;not null" json:"message"`
	ActorID    *snowflake.ID     `json:"actor_id,omitempty"`
	TargetType string            `gorm:"type:text" json:"target_type,omitempty"`
	TargetID   *string           `gorm:"type:text" json:"target_id,omitempty"`
	Metadata   datatypes.JSONMap `gorm:"type:json" json:"metadata,omitempty"`
	CreatedAt  time.Time         `gorm:"not null;index" json:"created_at"`
}

func (SystemLog) TableName() string { return "system_logs" }

type Entry struct {
	Level      string
	Source     string
	Action     string
	Message    string
	ActorID    *snowflake.ID
	TargetType string
	TargetID   string
	Metadata   map[string]any
}

type ListFilter struct {
	Level  string
	Source string
	Action string
}

type ListRequest struct {
	Level  string
	Source string
	Action string
	Page   pagination.Pagination
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *SystemLog) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter, page pagination.Pagination) ([]SystemLog, int64, error)
}

type Service interface {
	// Record writes entry through tx so it commits with the change it describes.
	Record(ctx context.Context, tx *gorm.DB, entry Entry) error
	List(ctx context.Context, req ListRequest) (pagination.Page[SystemLog], error)
}

var (
	ErrInvalidAction = errors.New("invalid_action")
	ErrInvalidLevel  = errors.New("invalid_level")
)
