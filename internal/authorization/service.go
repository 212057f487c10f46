package authorization

import "context"

const (
	ObjectMatch            = "match"
	ObjectHour             = "hour"
	ObjectOpportunity      = "opportunity"
	ObjectOrganization     = "organization"
	ObjectVolunteerProfile = "volunteer_profile"
	ObjectReport           = "report"
	ObjectUser             = "user"
	ObjectSystemLog        = "system_log"
)

const (
	ActionCreate       = "create"
	ActionRead         = "read"
	ActionUpdate       = "update"
	ActionDelete       = "delete"
	ActionUpdateStatus = "update_status"
	ActionVerify       = "verify"
)

const (
	RelationAny  = "any"
	RelationOrg  = "org"
	RelationSelf = "self"
	RelationNone = "none"
)

type Service interface {
	// Can reports whether caller may perform action on resource.
	Can(ctx context.Context, caller Caller, action string, resource Resource) (bool, error)
	// Authorize is Can that returns ErrForbidden on denial.
	Authorize(ctx context.Context, caller Caller, action string, resource Resource) error
	// Scope returns the widest relation under which caller may perform action on object.
	Scope(ctx context.Context, caller Caller, object string, action string) (Scope, error)
}
