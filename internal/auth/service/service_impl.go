package service

import (
	"context"
	"crypto/subtle"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/volunteerhub/internal/audit/domain"
	"github.com/smallbiznis/volunteerhub/internal/auth/domain"
	"github.com/smallbiznis/volunteerhub/internal/auth/password"
	"github.com/smallbiznis/volunteerhub/internal/auth/token"
	"github.com/smallbiznis/volunteerhub/internal/authorization"
	"github.com/smallbiznis/volunteerhub/internal/clock"
	"github.com/smallbiznis/volunteerhub/internal/config"
	notificationdomain "github.com/smallbiznis/volunteerhub/internal/notification/domain"
	"github.com/smallbiznis/volunteerhub/internal/observability/metrics"
	organizationdomain "github.com/smallbiznis/volunteerhub/internal/organization/domain"
	volunteerdomain "github.com/smallbiznis/volunteerhub/internal/volunteer/domain"
	"github.com/smallbiznis/volunteerhub/pkg/db"
	"github.com/smallbiznis/volunteerhub/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 50

	defaultOrganizationDescription = "Organization profile"
	defaultOrganizationLocation    = "Not specified"
)

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	Clock         clock.Clock
	Config        config.Config
	Repo          domain.Repository
	Tokens        *token.Manager
	Authz         authorization.Service
	Organizations organizationdomain.Service
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
	cfg           config.AuthConfig
	repo          domain.Repository
	tokens        *token.Manager
	authz         authorization.Service
	organizations organizationdomain.Service
	volunteers    volunteerdomain.Service
	notifier      notificationdomain.Enqueuer
	audit         auditdomain.Service
	metrics       *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("auth.service"),
		genID:         p.GenID,
		clock:         p.Clock,
		cfg:           p.Config.Auth,
		repo:          p.Repo,
		tokens:        p.Tokens,
		authz:         p.Authz,
		organizations: p.Organizations,
		volunteers:    p.Volunteers,
		notifier:      p.Notifier,
		audit:         p.Audit,
		metrics:       p.Metrics,
	}
}

func (s *Service) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	role := authorization.Role(strings.ToLower(strings.TrimSpace(string(req.Role))))
	if role == "" {
		role = authorization.RoleVolunteer
	}
	if !role.Valid() {
		return nil, domain.ErrInvalidRole
	}

	if role == authorization.RoleAdmin {
		if !s.adminKeyMatches(req.AdminKey) {
			return nil, domain.ErrInvalidAdminKey
		}
	}

	return s.register(ctx, req.Username, req.Email, req.Password, role, req.OrganizationName)
}

func (s *Service) CreateAdmin(ctx context.Context, req domain.CreateAdminRequest) (*domain.User, error) {
	return s.register(ctx, req.Username, req.Email, req.Password, authorization.RoleAdmin, "")
}

func (s *Service) register(ctx context.Context, rawUsername, rawEmail, rawPassword string, role authorization.Role, orgName string) (*domain.User, error) {
	username, err := normalizeUsername(rawUsername)
	if err != nil {
		return nil, err
	}
	email, err := normalizeEmail(rawEmail)
	if err != nil {
		return nil, err
	}
	if err := password.Validate(rawPassword); err != nil {
		return nil, domain.ErrInvalidPassword
	}

	exists, err := s.repo.Exists(ctx, s.db, username, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrUserExists
	}

	hashed, err := password.Hash(rawPassword)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	user := &domain.User{
		ID:           s.genID.Generate(),
		Username:     username,
		Email:        email,
		PasswordHash: hashed,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if role == authorization.RoleAdmin {
			count, err := s.repo.CountByRole(ctx, tx, authorization.RoleAdmin)
			if err != nil {
				return err
			}
			if count >= int64(s.maxAdmins()) {
				return domain.ErrAdminLimitReached
			}
		}

		if role == authorization.RoleOrganization {
			name := strings.TrimSpace(orgName)
			if name == "" {
				name = username
			}
			org, err := s.organizations.Provision(ctx, tx, organizationdomain.ProvisionRequest{
				Name:         name,
				ContactEmail: email,
				Description:  defaultOrganizationDescription,
				Location:     defaultOrganizationLocation,
			})
			if err != nil {
				return err
			}
			user.OrganizationID = &org.ID
		}

		if err := s.repo.Insert(ctx, tx, user); err != nil {
			return err
		}

		if role == authorization.RoleVolunteer {
			if _, err := s.volunteers.ProvisionProfile(ctx, tx, user.ID, username); err != nil {
				return err
			}
		}

		return s.notifier.Enqueue(ctx, tx, notificationdomain.Message{
			Event:       notificationdomain.EventUserWelcome,
			RecipientID: user.ID,
			Data:        map[string]any{"Role": string(role)},
		})
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrUserExists
		}
		return nil, err
	}

	s.metrics.RecordRegistration(ctx, string(role))
	s.log.Info("user registered",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(role)),
	)
	return user, nil
}

func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResult, error) {
	login := strings.TrimSpace(req.Login)
	if login == "" || req.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByLogin(ctx, s.db, login)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive || !password.Verify(req.Password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	if password.NeedsRehash(user.PasswordHash) {
		s.rehash(ctx, user, req.Password)
	}

	return s.issue(user)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (*domain.LoginResult, error) {
	claims, err := s.tokens.Validate(refreshToken, token.TypeRefresh)
	if err != nil {
		return nil, domain.ErrUnauthenticated
	}
	user, err := s.activeUser(ctx, claims)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

func (s *Service) Authenticate(ctx context.Context, accessToken string) (authorization.Caller, error) {
	claims, err := s.tokens.Validate(accessToken, token.TypeAccess)
	if err != nil {
		return authorization.Caller{}, domain.ErrUnauthenticated
	}
	user, err := s.activeUser(ctx, claims)
	if err != nil {
		return authorization.Caller{}, err
	}
	return user.Caller(), nil
}

func (s *Service) Me(ctx context.Context, caller authorization.Caller) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, s.db, caller.ID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

func (s *Service) UpdateMe(ctx context.Context, caller authorization.Caller, req domain.UpdateMeRequest) (*domain.User, error) {
	user, err := s.Me(ctx, caller)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		email, err := normalizeEmail(*req.Email)
		if err != nil {
			return nil, err
		}
		taken, err := s.repo.EmailTaken(ctx, s.db, email, user.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, domain.ErrUserExists
		}
		user.Email = email
	}

	if req.Password != nil {
		if err := password.Validate(*req.Password); err != nil {
			return nil, domain.ErrInvalidPassword
		}
		hashed, err := password.Hash(*req.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hashed
	}

	user.UpdatedAt = s.clock.Now()
	if err := s.repo.UpdateCredentials(ctx, s.db, user); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrUserExists
		}
		return nil, err
	}
	return user, nil
}

func (s *Service) ListUsers(ctx context.Context, caller authorization.Caller, req domain.ListUsersRequest) (pagination.Page[domain.User], error) {
	if err := s.authz.Authorize(ctx, caller, authorization.ActionRead, authorization.Resource{Object: authorization.ObjectUser}); err != nil {
		return pagination.Page[domain.User]{}, err
	}

	role := authorization.Role(strings.ToLower(strings.TrimSpace(string(req.Role))))
	if role != "" && !role.Valid() {
		return pagination.Page[domain.User]{}, domain.ErrInvalidRole
	}

	page := req.Page.Normalize()
	items, total, err := s.repo.List(ctx, s.db, domain.ListFilter{Role: role, Search: req.Search}, page)
	if err != nil {
		return pagination.Page[domain.User]{}, err
	}
	return pagination.NewPage(items, page, total), nil
}

func (s *Service) GetUser(ctx context.Context, caller authorization.Caller, id string) (*domain.User, error) {
	userID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, caller, authorization.ActionRead, authorization.Resource{
		Object:  authorization.ObjectUser,
		OwnerID: userID,
	}); err != nil {
		return nil, err
	}

	user, err := s.repo.FindByID(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

func (s *Service) DeleteUser(ctx context.Context, caller authorization.Caller, id string) error {
	userID, err := parseID(id)
	if err != nil {
		return err
	}
	if err := s.authz.Authorize(ctx, caller, authorization.ActionDelete, authorization.Resource{
		Object:  authorization.ObjectUser,
		OwnerID: userID,
	}); err != nil {
		return err
	}
	if userID == caller.ID {
		return domain.ErrCannotDeleteSelf
	}

	user, err := s.repo.FindByID(ctx, s.db, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return domain.ErrUserNotFound
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dependents, err := s.repo.CountDependents(ctx, tx, userID)
		if err != nil {
			return err
		}
		if dependents > 0 {
			return domain.ErrUserHasDependents
		}
		if err := s.repo.Delete(ctx, tx, userID); err != nil {
			return err
		}
		actorID := caller.ID
		return s.audit.Record(ctx, tx, auditdomain.Entry{
			Level:      auditdomain.LevelWarning,
			Source:     "auth",
			Action:     "user.deleted",
			Message:    "user " + user.Username + " deleted",
			ActorID:    &actorID,
			TargetType: "user",
			TargetID:   userID.String(),
			Metadata:   map[string]any{"role": string(user.Role), "email": user.Email},
		})
	})
}

func (s *Service) issue(user *domain.User) (*domain.LoginResult, error) {
	pair, err := s.tokens.Issue(token.Subject{
		UserID:         user.ID,
		Role:           user.Role,
		OrganizationID: user.OrganizationID,
	})
	if err != nil {
		return nil, err
	}
	return &domain.LoginResult{User: user, Tokens: pair}, nil
}

// activeUser reloads the token subject so that role, organization and
// deactivation always reflect the stored account.
func (s *Service) activeUser(ctx context.Context, claims *token.Claims) (*domain.User, error) {
	userID, err := claims.UserID()
	if err != nil {
		return nil, domain.ErrUnauthenticated
	}
	user, err := s.repo.FindByID(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, domain.ErrUnauthenticated
	}
	return user, nil
}

func (s *Service) rehash(ctx context.Context, user *domain.User, raw string) {
	hashed, err := password.Hash(raw)
	if err != nil {
		return
	}
	user.PasswordHash = hashed
	user.UpdatedAt = s.clock.Now()
	if err := s.repo.UpdateCredentials(ctx, s.db, user); err != nil {
		s.log.Warn("password rehash failed", zap.String("user_id", user.ID.String()), zap.Error(err))
	}
}

func (s *Service) adminKeyMatches(provided string) bool {
	expected := strings.TrimSpace(s.cfg.AdminRegistrationKey)
	provided = strings.TrimSpace(provided)
	if expected == "" || provided == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(provided)) == 1
}

func (s *Service) maxAdmins() int {
	if s.cfg.MaxAdmins <= 0 {
		return 3
	}
	return s.cfg.MaxAdmins
}

func normalizeUsername(value string) (string, error) {
	username := strings.TrimSpace(value)
	n := utf8.RuneCountInString(username)
	if n < minUsernameLength || n > maxUsernameLength {
		return "", domain.ErrInvalidUsername
	}
	if strings.ContainsAny(username, " \t\r\n@") {
		return "", domain.ErrInvalidUsername
	}
	return username, nil
}

func normalizeEmail(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", domain.ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed {
		return "", domain.ErrInvalidEmail
	}
	return strings.ToLower(addr.Address), nil
}

func parseID(value string) (snowflake.ID, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, domain.ErrInvalidUserID
	}
	id, err := snowflake.ParseString(trimmed)
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidUserID
	}
	return id, nil
}

