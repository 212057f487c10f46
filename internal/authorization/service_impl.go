package authorization

import (
	"context"
	_ "embed"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
}

// NewEnforcer loads the policy table from casbin_rule and seeds the default rows.
func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
	}
}

func (s *ServiceImpl) Can(ctx context.Context, caller Caller, action string, resource Resource) (bool, error) {
	if err := validate(caller, resource.Object, action); err != nil {
		return false, err
	}

	for _, rel := range relations(caller, resource) {
		allowed, err := s.enforcer.Enforce(string(caller.Role), resource.Object, action, rel)
		if err != nil {
			return false, err
		}
		if allowed {
			return true, nil
		}
	}
	return false, nil
}

func (s *ServiceImpl) Authorize(ctx context.Context, caller Caller, action string, resource Resource) error {
	allowed, err := s.Can(ctx, caller, action, resource)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Debug("authorization denied",
			zap.String("caller_id", caller.ID.String()),
			zap.String("role", string(caller.Role)),
			zap.String("object", resource.Object),
			zap.String("action", action),
		)
		return ErrForbidden
	}
	return nil
}

func (s *ServiceImpl) Scope(ctx context.Context, caller Caller, object string, action string) (Scope, error) {
	if err := validate(caller, object, action); err != nil {
		return ScopeNone, err
	}

	// RelationNone only matches "any" rows, so probing it first finds the widest grant.
	probes := []struct {
		rel   string
		scope Scope
	}{
		{RelationNone, ScopeAll},
		{RelationOrg, ScopeOrganization},
		{RelationSelf, ScopeSelf},
	}
	for _, probe := range probes {
		allowed, err := s.enforcer.Enforce(string(caller.Role), object, action, probe.rel)
		if err != nil {
			return ScopeNone, err
		}
		if allowed {
			return probe.scope, nil
		}
	}
	return ScopeNone, nil
}

func validate(caller Caller, object string, action string) error {
	if caller.ID == 0 || !caller.Role.Valid() {
		return ErrInvalidCaller
	}
	if strings.TrimSpace(object) == "" {
		return ErrInvalidObject
	}
	if strings.TrimSpace(action) == "" {
		return ErrInvalidAction
	}
	return nil
}

func relations(caller Caller, resource Resource) []string {
	rels := []string{RelationNone}
	if resource.OwnerID != 0 && resource.OwnerID == caller.ID {
		rels = append(rels, RelationSelf)
	}
	if orgID, ok := caller.OrgID(); ok && resource.OrganizationID == orgID {
		rels = append(rels, RelationOrg)
	}
	return rels
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	volunteer := string(RoleVolunteer)
	organization := string(RoleOrganization)
	admin := string(RoleAdmin)

	policies := [][]string{
		// Matches
		{volunteer, ObjectMatch, ActionCreate, RelationAny},
		{volunteer, ObjectMatch, ActionRead, RelationSelf},
		{organization, ObjectMatch, ActionRead, RelationOrg},
		{organization, ObjectMatch, ActionUpdateStatus, RelationOrg},
		{admin, ObjectMatch, ActionRead, RelationAny},
		{admin, ObjectMatch, ActionUpdateStatus, RelationAny},

		// Volunteer hours
		{volunteer, ObjectHour, ActionCreate, RelationAny},
		{volunteer, ObjectHour, ActionRead, RelationSelf},
		{volunteer, ObjectHour, ActionUpdate, RelationSelf},
		{volunteer, ObjectHour, ActionDelete, RelationSelf},
		{organization, ObjectHour, ActionRead, RelationOrg},
		{organization, ObjectHour, ActionVerify, RelationOrg},
		{admin, ObjectHour, ActionRead, RelationAny},
		{admin, ObjectHour, ActionUpdate, RelationAny},
		{admin, ObjectHour, ActionDelete, RelationAny},
		{admin, ObjectHour, ActionVerify, RelationAny},

		// Opportunities
		{organization, ObjectOpportunity, ActionCreate, RelationOrg},
		{organization, ObjectOpportunity, ActionUpdate, RelationOrg},
		{organization, ObjectOpportunity, ActionDelete, RelationOrg},
		{admin, ObjectOpportunity, ActionCreate, RelationAny},
		{admin, ObjectOpportunity, ActionUpdate, RelationAny},
		{admin, ObjectOpportunity, ActionDelete, RelationAny},

		// Organizations
		{organization, ObjectOrganization, ActionUpdate, RelationOrg},
		{admin, ObjectOrganization, ActionUpdate, RelationAny},

		// Volunteer profiles
		{volunteer, ObjectVolunteerProfile, ActionRead, RelationSelf},
		{volunteer, ObjectVolunteerProfile, ActionUpdate, RelationSelf},
		{admin, ObjectVolunteerProfile, ActionRead, RelationAny},

		// Reporting and administration
		{organization, ObjectReport, ActionRead, RelationOrg},
		{admin, ObjectReport, ActionRead, RelationAny},
		{admin, ObjectUser, ActionRead, RelationAny},
		{admin, ObjectUser, ActionDelete, RelationAny},
		{admin, ObjectSystemLog, ActionRead, RelationAny},
	}

	for _, policy := range policies {
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	return nil
}
