package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/volunteerhub/internal/authorization"
	opportunitydomain "github.com/smallbiznis/volunteerhub/internal/opportunity/domain"
)

type ListRequest struct {
	Status        string
	OpportunityID string
}

type CreateRequest struct {
	OpportunityID string
}

type UpdateStatusRequest struct {
	Status string
}

// Suggestion is an opportunity ranked for a volunteer by shared skills.
type Suggestion struct {
	Opportunity   opportunitydomain.Opportunity `json:"opportunity"`
	MatchedSkills []string                      `json:"matched_skills"`
	Score         int                           `json:"score"`
}

type Service interface {
	List(ctx context.Context, caller authorization.Caller, req ListRequest) ([]Match, error)
	Get(ctx context.Context, caller authorization.Caller, id string) (*Match, error)
	Create(ctx context.Context, caller authorization.Caller, req CreateRequest) (*Match, error)
	UpdateStatus(ctx context.Context, caller authorization.Caller, id string, req UpdateStatusRequest) (*Match, error)
	Suggest(ctx context.Context, caller authorization.Caller) ([]Suggestion, error)
}

var (
	ErrInvalidOpportunityID = errors.New("invalid_opportunity_id")
	ErrInvalidStatus        = errors.New("invalid_match_status")
	ErrNotFound             = errors.New("match_not_found")
	ErrAlreadyApplied       = errors.New("match_already_exists")
	ErrAlreadyDecided       = errors.New("match_already_decided")
)
