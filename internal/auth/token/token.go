// Package token issues and validates the HS256 bearer tokens used by the API.
package token

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/smallbiznis/volunteerhub/internal/authorization"
	"github.com/smallbiznis/volunteerhub/internal/clock"
	"github.com/smallbiznis/volunteerhub/internal/config"
	"go.uber.org/zap"
)

var (
	ErrInvalidToken   = errors.New("invalid_token")
	ErrExpiredToken   = errors.New("token_expired")
	ErrWrongTokenType = errors.New("wrong_token_type")
	ErrMissingSecret  = errors.New("jwt_secret_required")
)

type Type string

const (
	TypeAccess  Type = "access"
	TypeRefresh Type = "refresh"
)

const (
	audienceAccess  = "volunteerhub-api"
	audienceRefresh = "volunteerhub-refresh"
)

type Claims struct {
	Role           authorization.Role `json:"role"`
	OrganizationID string             `json:"organization_id,omitempty"`
	Type           Type               `json:"type"`
	jwt.RegisteredClaims
}

// Subject is the identity a token pair is issued for.
type Subject struct {
	UserID         snowflake.ID
	Role           authorization.Role
	OrganizationID *snowflake.ID
}

type Pair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	TokenType        string    `json:"token_type"`
	ExpiresAt        time.Time `json:"expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

type Manager struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	clock      clock.Clock
}

func NewManager(cfg config.AuthConfig, clk clock.Clock) (*Manager, error) {
	secret := strings.TrimSpace(cfg.JWTSecret)
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if clk == nil {
		clk = clock.New()
	}
	accessTTL := cfg.AccessTokenTTL
	if accessTTL <= 0 {
		accessTTL = 30 * time.Minute
	}
	refreshTTL := cfg.RefreshTokenTTL
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		issuer = "volunteerhub"
	}
	return &Manager{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		clock:      clk,
	}, nil
}

// Provide builds the manager from application config. Outside production a
// missing secret is replaced by a random per-process one, which invalidates
// tokens on restart.
func Provide(cfg config.Config, clk clock.Clock, log *zap.Logger) (*Manager, error) {
	authCfg := cfg.Auth
	if strings.TrimSpace(authCfg.JWTSecret) == "" && !cfg.IsProduction() {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, err
		}
		authCfg.JWTSecret = hex.EncodeToString(buf)
		log.Warn("AUTH_JWT_SECRET not set, using an ephemeral signing secret")
	}
	return NewManager(authCfg, clk)
}

func (m *Manager) Issue(sub Subject) (Pair, error) {
	now := m.clock.Now()

	access, err := m.sign(sub, TypeAccess, audienceAccess, now, now.Add(m.accessTTL))
	if err != nil {
		return Pair{}, err
	}
	refresh, err := m.sign(sub, TypeRefresh, audienceRefresh, now, now.Add(m.refreshTTL))
	if err != nil {
		return Pair{}, err
	}

	return Pair{
		AccessToken:      access,
		RefreshToken:     refresh,
		TokenType:        "bearer",
		ExpiresAt:        now.Add(m.accessTTL),
		RefreshExpiresAt: now.Add(m.refreshTTL),
	}, nil
}

// Validate parses raw and checks signature, expiry, issuer and token type.
func (m *Manager) Validate(raw string, want Type) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithTimeFunc(m.clock.Now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != want {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}

// UserID returns the snowflake id carried in the subject claim.
func (c *Claims) UserID() (snowflake.ID, error) {
	id, err := snowflake.ParseString(c.Subject)
	if err != nil || id == 0 {
		return 0, ErrInvalidToken
	}
	return id, nil
}

func (m *Manager) sign(sub Subject, typ Type, audience string, issuedAt, expiresAt time.Time) (string, error) {
	claims := Claims{
		Role: sub.Role,
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub.UserID.String(),
			Issuer:    m.issuer,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}
	if sub.OrganizationID != nil && *sub.OrganizationID != 0 {
		claims.OrganizationID = sub.OrganizationID.String()
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}
