package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/volunteerhub/internal/authorization"
)

const MaxHoursPerEntry = 24

type ListRequest struct {
	OpportunityID string
	Status        string
}

type LogRequest struct {
	OpportunityID string
	Hours         float64
	Date          time.Time
	Description   string
}

type UpdateRequest struct {
	Hours       *float64
	Date        *time.Time
	Description *string
}

type VerifyRequest struct {
	Decision string
}

type Service interface {
	Log(ctx context.Context, caller authorization.Caller, req LogRequest) (*Hour, error)
	List(ctx context.Context, caller authorization.Caller, req ListRequest) ([]Hour, error)
	Get(ctx context.Context, caller authorization.Caller, id string) (*Hour, error)
	Update(ctx context.Context, caller authorization.Caller, id string, req UpdateRequest) (*Hour, error)
	Delete(ctx context.Context, caller authorization.Caller, id string) error
	Verify(ctx context.Context, caller authorization.Caller, id string, req VerifyRequest) (*Hour, error)
}

var (
	ErrInvalidOpportunityID = errors.New("invalid_opportunity_id")
	ErrInvalidHours         = errors.New("invalid_hours")
	ErrInvalidDate          = errors.New("invalid_date")
	ErrInvalidDecision      = errors.New("invalid_verification_decision")
	ErrInvalidStatus        = errors.New("invalid_hour_status")
	ErrNotFound             = errors.New("hour_record_not_found")
	ErrAlreadyDecided       = errors.New("hour_record_already_decided")
)
