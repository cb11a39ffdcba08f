package httpserver

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/jobdeck/gatekeeper/internal/core/domain/ratelimit"
	"github.com/jobdeck/gatekeeper/internal/core/ports"
	customMiddleware "github.com/jobdeck/gatekeeper/internal/infrastructure/httpserver/middleware"
)

type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	TLSCertFile  string
	TLSKeyFile   string
}

// RoutePolicies carries the rate limit policies the route table binds.
// General guards every request; Write guards mutating endpoints; Admission
// guards the sibling-service check endpoint, which absorbs far more
// traffic than the management surface.
type RoutePolicies struct {
	General   *ratelimit.Policy
	Write     *ratelimit.Policy
	Admission *ratelimit.Policy
}

type ServerDeps struct {
	PlanService         ports.PlanService
	SubscriptionService ports.SubscriptionService
	QuotaService        ports.QuotaService
	EntitlementService  ports.EntitlementService
	RateLimiterService  ports.RateLimiterService
	AdmissionService    ports.AdmissionService
	HealthCheckers      []ports.HealthChecker
}

type Server struct {
	echo            *echo.Echo
	config          *ServerConfig
	policies        RoutePolicies
	logger          *logrus.Logger
	planService     ports.PlanService
	subscriptionSvc ports.SubscriptionService
	quotaService    ports.QuotaService
	entitlementSvc  ports.EntitlementService
	admissionSvc    ports.AdmissionService
	middleware      *customMiddleware.MiddlewareCollection
	healthCheckers  []ports.HealthChecker
}

func NewServer(serverConfig *ServerConfig, jwtSecret string, policies RoutePolicies, logger *logrus.Logger, deps ServerDeps) *Server {
	e := echo.New()

	server := &Server{
		echo:            e,
		config:          serverConfig,
		policies:        policies,
		logger:          logger,
		planService:     deps.PlanService,
		subscriptionSvc: deps.SubscriptionService,
		quotaService:    deps.QuotaService,
		entitlementSvc:  deps.EntitlementService,
		admissionSvc:    deps.AdmissionService,
		healthCheckers:  deps.HealthCheckers,
		middleware: customMiddleware.NewMiddlewareCollection(
			deps.RateLimiterService,
			deps.EntitlementService,
			deps.QuotaService,
			logger,
			jwtSecret,
			GetRequestsTotal(),
			GetRequestDuration(),
			GetAdmissionDecisions(),
		),
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}
