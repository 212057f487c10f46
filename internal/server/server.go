package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/volunteerhub/internal/audit"
	auditdomain "github.com/smallbiznis/volunteerhub/internal/audit/domain"
	"github.com/smallbiznis/volunteerhub/internal/auth"
	authdomain "github.com/smallbiznis/volunteerhub/internal/auth/domain"
	"github.com/smallbiznis/volunteerhub/internal/authorization"
	"github.com/smallbiznis/volunteerhub/internal/config"
	"github.com/smallbiznis/volunteerhub/internal/match"
	matchdomain "github.com/smallbiznis/volunteerhub/internal/match/domain"
	"github.com/smallbiznis/volunteerhub/internal/notification"
	"github.com/smallbiznis/volunteerhub/internal/observability"
	obsmiddleware "github.com/smallbiznis/volunteerhub/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/volunteerhub/internal/observability/metrics"
	obstracing "github.com/smallbiznis/volunteerhub/internal/observability/tracing"
	"github.com/smallbiznis/volunteerhub/internal/opportunity"
	opportunitydomain "github.com/smallbiznis/volunteerhub/internal/opportunity/domain"
	"github.com/smallbiznis/volunteerhub/internal/organization"
	organizationdomain "github.com/smallbiznis/volunteerhub/internal/organization/domain"
	"github.com/smallbiznis/volunteerhub/internal/providers"
	"github.com/smallbiznis/volunteerhub/internal/ratelimit"
	"github.com/smallbiznis/volunteerhub/internal/reporting"
	reportingdomain "github.com/smallbiznis/volunteerhub/internal/reporting/domain"
	"github.com/smallbiznis/volunteerhub/internal/volunteer"
	volunteerdomain "github.com/smallbiznis/volunteerhub/internal/volunteer/domain"
	"github.com/smallbiznis/volunteerhub/internal/volunteerhour"
	hourdomain "github.com/smallbiznis/volunteerhub/internal/volunteerhour/domain"
	"github.com/smallbiznis/volunteerhub/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Services provides every domain service without the HTTP layer. One-shot
// commands use it directly.
var Services = fx.Options(
	authorization.Module,
	audit.Module,
	providers.Module,
	notification.Module,
	organization.Module,
	volunteer.Module,
	auth.Module,
	opportunity.Module,
	match.Module,
	volunteerhour.Module,
	reporting.Module,
	ratelimit.Module,
)

var Module = fx.Module("http.server",
	Services,
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	registerValidators()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	if httpMetrics != nil {
		r.Use(httpMetrics.GinMiddleware())
	}
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log = log.Named("http.server")

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	db              *gorm.DB
	log             *zap.Logger
	authsvc         authdomain.Service
	authzSvc        authorization.Service
	auditSvc        auditdomain.Service
	organizationSvc organizationdomain.Service
	opportunitySvc  opportunitydomain.Service
	matchSvc        matchdomain.Service
	hourSvc         hourdomain.Service
	volunteerSvc    volunteerdomain.Service
	reportingSvc    reportingdomain.Service
	loginLimiter    *ratelimit.LoginLimiter
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	DB              *gorm.DB
	Log             *zap.Logger
	Authsvc         authdomain.Service
	AuthzSvc        authorization.Service
	AuditSvc        auditdomain.Service
	OrganizationSvc organizationdomain.Service
	OpportunitySvc  opportunitydomain.Service
	MatchSvc        matchdomain.Service
	HourSvc         hourdomain.Service
	VolunteerSvc    volunteerdomain.Service
	ReportingSvc    reportingdomain.Service
	LoginLimiter    *ratelimit.LoginLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		db:              p.DB,
		log:             log.Named("http.handler"),
		authsvc:         p.Authsvc,
		authzSvc:        p.AuthzSvc,
		auditSvc:        p.AuditSvc,
		organizationSvc: p.OrganizationSvc,
		opportunitySvc:  p.OpportunitySvc,
		matchSvc:        p.MatchSvc,
		hourSvc:         p.HourSvc,
		volunteerSvc:    p.VolunteerSvc,
		reportingSvc:    p.ReportingSvc,
		loginLimiter:    p.LoginLimiter,
	}

	svc.registerHealthRoutes()
	svc.registerAuthRoutes()
	svc.registerPublicRoutes()
	svc.registerAPIRoutes()
	svc.registerAdminRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerHealthRoutes() {
	health := s.engine.Group("/api/health")
	health.GET("", s.Health)
	health.GET("/db", s.HealthDB)
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/api/auth")

	auth.POST("/register", s.Register)
	auth.POST("/login", s.LoginRateLimit(), s.Login)
	auth.POST("/refresh", s.Refresh)
	auth.GET("/me", s.BearerAuth(), s.Me)
	auth.PUT("/me", s.BearerAuth(), s.UpdateMe)
}

func (s *Server) registerPublicRoutes() {
	api := s.engine.Group("/api")

	api.GET("/opportunities", s.ListOpportunities)
	api.GET("/opportunities/:id", s.GetOpportunity)

	api.GET("/organizations", s.ListOrganizations)
	api.GET("/organizations/:id", s.GetOrganization)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", s.BearerAuth())

	// -------- Opportunities --------
	api.POST("/opportunities", s.CreateOpportunity)
	api.PUT("/opportunities/:id", s.UpdateOpportunity)
	api.DELETE("/opportunities/:id", s.DeleteOpportunity)

	// -------- Organizations --------
	api.PUT("/organizations/:id", s.UpdateOrganization)

	// -------- Matches --------
	api.GET("/matches", s.ListMatches)
	api.POST("/matches", s.CreateMatch)
	api.GET("/matches/suggestions", s.SuggestMatches)
	api.GET("/matches/:id", s.GetMatch)
	api.PUT("/matches/:id", s.UpdateMatchStatus)

	// -------- Hours --------
	api.GET("/hours", s.ListHours)
	api.POST("/hours", s.LogHours)
	api.GET("/hours/:id", s.GetHour)
	api.PUT("/hours/:id", s.UpdateHour)
	api.DELETE("/hours/:id", s.DeleteHour)
	api.PUT("/hours/:id/verify", s.VerifyHour)

	// -------- Volunteers --------
	api.GET("/volunteers/me", s.GetVolunteerProfile)
	api.PUT("/volunteers/me", s.UpdateVolunteerProfile)
	api.GET("/volunteers/:id/stats", s.GetVolunteerStats)

	// -------- Reports --------
	api.GET("/reports/matches", s.MatchReport)
	api.GET("/reports/hours", s.HoursReport)
	api.GET("/reports/hours.pdf", s.HoursReportPDF)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/api/admin", s.BearerAuth())

	admin.GET("/dashboard", s.AdminDashboard)
	admin.GET("/users", s.ListUsers)
	admin.GET("/users/:id", s.GetUser)
	admin.DELETE("/users/:id", s.DeleteUser)
	admin.GET("/logs", s.authorizeAction(authorization.ObjectSystemLog, authorization.ActionRead), s.ListSystemLogs)
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"status": "ok", "version": s.cfg.AppVersion}})
}

func (s *Server) HealthDB(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if err := db.Ping(ctx, s.db); err != nil {
		s.log.Warn("database health check failed", zap.Error(err))
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"status": "ok", "database": s.db.Dialector.Name()}})
}

func respond(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"data": data})
}
