package authorization

import (
	"github.com/bwmarrin/snowflake"
)

type Role string

const (
	RoleVolunteer    Role = "volunteer"
	RoleOrganization Role = "organization"
	RoleAdmin        Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleVolunteer, RoleOrganization, RoleAdmin:
		return true
	default:
		return false
	}
}

// Caller is the authenticated user a request acts on behalf of.
type Caller struct {
	ID             snowflake.ID
	Role           Role
	OrganizationID *snowflake.ID
}

// OrgID returns the caller's organization, if any.
func (c Caller) OrgID() (snowflake.ID, bool) {
	if c.OrganizationID == nil || *c.OrganizationID == 0 {
		return 0, false
	}
	return *c.OrganizationID, true
}

func (c Caller) Is(role Role) bool {
	return c.Role == role
}

// Resource describes the target of an action by its ownership.
// OwnerID is the volunteer that owns the record; OrganizationID is the
// organization the record belongs to, directly or through its opportunity.
type Resource struct {
	Object         string
	OwnerID        snowflake.ID
	OrganizationID snowflake.ID
}

// Scope is the widest set of resources a caller may see for an action.
type Scope int

const (
	ScopeNone Scope = iota
	ScopeSelf
	ScopeOrganization
	ScopeAll
)

func (s Scope) String() string {
	switch s {
	case ScopeSelf:
		return "self"
	case ScopeOrganization:
		return "organization"
	case ScopeAll:
		return "all"
	default:
		return "none"
	}
}
