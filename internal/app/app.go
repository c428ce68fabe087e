// Package app is the composition root: it picks storage backends from config
// and wires stores, services, handlers and background workers together.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"volunteerhub/internal/access"
	certhandler "volunteerhub/internal/certificate/handler"
	"volunteerhub/internal/certificate/renderer"
	certservice "volunteerhub/internal/certificate/service"
	enrollmenthandler "volunteerhub/internal/enrollment/handler"
	enrollmentmetrics "volunteerhub/internal/enrollment/metrics"
	enrollmentservice "volunteerhub/internal/enrollment/service"
	enrollmentstore "volunteerhub/internal/enrollment/store"
	httpapi "volunteerhub/internal/http"
	"volunteerhub/internal/identity"
	"volunteerhub/internal/identity/revocation"
	opphandler "volunteerhub/internal/opportunity/handler"
	oppmetrics "volunteerhub/internal/opportunity/metrics"
	oppservice "volunteerhub/internal/opportunity/service"
	oppstore "volunteerhub/internal/opportunity/store"
	"volunteerhub/internal/platform/config"
	"volunteerhub/internal/platform/metrics"
	"volunteerhub/internal/platform/postgres"
	platformredis "volunteerhub/internal/platform/redis"
	reporthandler "volunteerhub/internal/report/handler"
	reportmetrics "volunteerhub/internal/report/metrics"
	reportservice "volunteerhub/internal/report/service"
	userhandler "volunteerhub/internal/user/handler"
	usermetrics "volunteerhub/internal/user/metrics"
	userservice "volunteerhub/internal/user/service"
	userstore "volunteerhub/internal/user/store"
	audit "volunteerhub/pkg/platform/audit"
	"volunteerhub/pkg/platform/audit/publisher"
	auditmemory "volunteerhub/pkg/platform/audit/store/memory"
	auditpg "volunteerhub/pkg/platform/audit/store/postgres"
	"volunteerhub/pkg/platform/audit/worker"
	"volunteerhub/pkg/platform/tx"
)

type userStore interface {
	access.Provisioner
	userservice.Store
	enrollmentservice.UserStore
}

type opportunityStore interface {
	oppservice.Store
	enrollmentservice.OpportunityStore
}

type enrollmentStore interface {
	enrollmentservice.Store
	oppservice.EnrollmentStore
	reportservice.EnrollmentStore
}

type revocationList interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

// App holds every long-lived component of one process.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	DB    *sql.DB
	Redis *platformredis.Client

	Tokens      *identity.TokenService
	Revocations revocationList
	Resolver    *access.Resolver

	Users         *userservice.Service
	Opportunities *oppservice.Service
	Enrollments   *enrollmentservice.Service
	Certificates  *certservice.Service
	Reports       *reportservice.Service

	// Relay is nil unless Kafka brokers are configured.
	Relay *worker.Relay

	registry   *prometheus.Registry
	httpMetric *metrics.Metrics
	producer   *worker.KafkaProducer
}

type Option func(*options)

type options struct {
	registry *prometheus.Registry
}

// WithRegistry registers metrics against reg instead of the default registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *options) { o.registry = reg }
}

// New connects the configured backends and builds every service. Callers own
// the returned App and must Close it.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (_ *App, err error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	var reg prometheus.Registerer = prometheus.DefaultRegisterer
	if o.registry != nil {
		reg = o.registry
	}

	a := &App{Config: cfg, Logger: logger, registry: o.registry}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	var (
		users       userStore
		opps        opportunityStore
		enrollments enrollmentStore
		auditStore  audit.Store
		txManager   tx.Manager
	)
	if cfg.UsesPostgres() {
		a.DB, err = postgres.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		users = userstore.NewPostgres(a.DB)
		opps = oppstore.NewPostgres(a.DB)
		enrollments = enrollmentstore.NewPostgres(a.DB)
		auditStore = auditpg.New(a.DB)
		txManager = postgres.NewTxManager(a.DB)
		logger.InfoContext(ctx, "using postgres storage")
	} else {
		users = userstore.NewInMemory()
		opps = oppstore.NewInMemory()
		enrollments = enrollmentstore.NewInMemory()
		auditStore = auditmemory.NewInMemoryStore()
		txManager = tx.NewMemoryManager()
		logger.InfoContext(ctx, "using in-memory storage")
	}

	a.Redis, err = platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	if a.Redis != nil {
		a.Revocations = revocation.NewRedisTRL(a.Redis.Client)
	} else {
		a.Revocations = revocation.NewMemoryTRL()
	}

	a.Tokens = identity.NewTokenService(cfg.Auth.SigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)
	auditPublisher := publisher.NewPublisher(auditStore, publisher.WithLogger(logger))

	a.Resolver = access.NewResolver(users,
		access.WithLogger(logger),
		access.WithAuditPublisher(auditPublisher),
		access.WithTxManager(txManager),
	)

	if a.Users, err = userservice.New(users,
		userservice.WithLogger(logger),
		userservice.WithAuditPublisher(auditPublisher),
		userservice.WithMetrics(usermetrics.NewWith(reg)),
		userservice.WithTxManager(txManager),
	); err != nil {
		return nil, fmt.Errorf("user service: %w", err)
	}
	if a.Opportunities, err = oppservice.New(opps, enrollments,
		oppservice.WithLogger(logger),
		oppservice.WithAuditPublisher(auditPublisher),
		oppservice.WithMetrics(oppmetrics.NewWith(reg)),
		oppservice.WithTxManager(txManager),
	); err != nil {
		return nil, fmt.Errorf("opportunity service: %w", err)
	}
	if a.Enrollments, err = enrollmentservice.New(enrollments, opps, users,
		enrollmentservice.WithLogger(logger),
		enrollmentservice.WithAuditPublisher(auditPublisher),
		enrollmentservice.WithMetrics(enrollmentmetrics.NewWith(reg)),
		enrollmentservice.WithTxManager(txManager),
	); err != nil {
		return nil, fmt.Errorf("enrollment service: %w", err)
	}
	if a.Certificates, err = certservice.New(enrollments, opps, users,
		renderer.New(renderer.WithLocation(cfg.Report.Location)),
		certservice.WithLogger(logger),
		certservice.WithAuditPublisher(auditPublisher),
	); err != nil {
		return nil, fmt.Errorf("certificate service: %w", err)
	}
	if a.Reports, err = reportservice.New(users, opps, enrollments,
		reportservice.WithLocation(cfg.Report.Location),
		reportservice.WithMetrics(reportmetrics.NewWith(reg)),
	); err != nil {
		return nil, fmt.Errorf("report service: %w", err)
	}

	if len(cfg.Audit.KafkaBrokers) > 0 {
		outbox, ok := auditStore.(*auditpg.Store)
		if !ok {
			return nil, errors.New("audit relay requires the postgres outbox")
		}
		a.producer, err = worker.NewKafkaProducer(cfg.Audit.KafkaBrokers)
		if err != nil {
			return nil, err
		}
		a.Relay, err = worker.NewRelay(outbox, a.producer, txManager, cfg.Audit.Topic,
			worker.WithLogger(logger),
			worker.WithMetrics(worker.NewMetricsWith(reg)),
			worker.WithInterval(cfg.Audit.RelayInterval),
		)
		if err != nil {
			return nil, fmt.Errorf("audit relay: %w", err)
		}
	}

	a.httpMetric = metrics.NewWith(reg)
	return a, nil
}

// EnsureTopic creates the audit topic when the relay is enabled.
func (a *App) EnsureTopic(ctx context.Context) error {
	if a.producer == nil {
		return nil
	}
	return a.producer.EnsureTopic(ctx, a.Config.Audit.Topic, 1)
}

// Router builds the HTTP surface with every module mounted.
func (a *App) Router() http.Handler {
	metricsHandler := metrics.Handler()
	if a.registry != nil {
		metricsHandler = metrics.HandlerFor(a.registry)
	}
	return httpapi.NewRouter(httpapi.Config{
		Logger:         a.Logger,
		Validator:      identity.NewMiddlewareValidator(a.Tokens),
		Revocations:    a.Revocations,
		Access:         a.Resolver.Middleware(),
		Metrics:        a.httpMetric,
		RequestTimeout: a.Config.Server.RequestTimeout,
		Ready:          a.Ready,
		MetricsHandler: metricsHandler,
	},
		userhandler.New(a.Users, a.Logger),
		opphandler.New(a.Opportunities, a.Logger),
		enrollmenthandler.New(a.Enrollments, a.Logger),
		certhandler.New(a.Certificates, a.Logger),
		reporthandler.New(a.Reports, a.Logger),
	)
}

// Ready pings every external dependency.
func (a *App) Ready(ctx context.Context) error {
	if a.DB != nil {
		if err := a.DB.PingContext(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Health(ctx); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

func (a *App) Close() error {
	var errs []error
	if a.producer != nil {
		a.producer.Close()
	}
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}
