package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"vifm-portal/internal/auth"
	authstore "vifm-portal/internal/auth/store"
	"vifm-portal/internal/guard"
	jwttoken "vifm-portal/internal/jwt_token"
	"vifm-portal/internal/localstate"
	"vifm-portal/internal/notify"
	"vifm-portal/internal/platform/config"
	"vifm-portal/internal/platform/httpserver"
	"vifm-portal/internal/platform/logger"
	"vifm-portal/internal/platform/metrics"
	"vifm-portal/internal/platform/postgres"
	platformredis "vifm-portal/internal/platform/redis"
	"vifm-portal/internal/profile"
	profilehandler "vifm-portal/internal/profile/handler"
	profilestore "vifm-portal/internal/profile/store"
	recordhandler "vifm-portal/internal/records/handler"
	recordservice "vifm-portal/internal/records/service"
	recordstore "vifm-portal/internal/records/store"
	"vifm-portal/internal/status"
	httptransport "vifm-portal/internal/transport/http"
	audit "vifm-portal/pkg/platform/audit"
	auditpublisher "vifm-portal/pkg/platform/audit/publisher"
	auditmemory "vifm-portal/pkg/platform/audit/store/memory"
	auditworker "vifm-portal/pkg/platform/audit/worker"
)

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("portal exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	db, err := postgres.Open(cfg.PostgresDSN)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	} else {
		log.Warn("postgres not configured; using in-memory stores")
	}

	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	} else {
		log.Warn("redis not configured; session fallback state is process-local")
	}

	var state localstate.Store = localstate.NewMemory()
	if redisClient != nil {
		state = localstate.NewRedis(redisClient.Client)
	}

	var credentials auth.CredentialStore = authstore.NewInMemory()
	var profiles profilestore.Store = profilestore.NewInMemory()
	var opportunities recordstore.OpportunityStore = recordstore.NewInMemoryOpportunities()
	var pipeline recordstore.PipelineStore = recordstore.NewInMemoryPipeline()
	if db != nil {
		credentials = authstore.NewPostgres(db)
		profiles = profilestore.NewPostgres(db)
		opportunities = recordstore.NewPostgresOpportunities(db)
		pipeline = recordstore.NewPostgresPipeline(db)
	}

	group, gctx := errgroup.WithContext(ctx)

	auditPub, err := buildAuditPublisher(cfg, log, group, gctx)
	if err != nil {
		return err
	}

	tokens := jwttoken.NewService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)
	accessor := auth.NewAccessor(tokens, state, log)
	resolver := profile.NewResolver(profiles, state, log)

	authService, err := auth.NewService(credentials, profiles, tokens, state, cfg.SessionTTL, log,
		auth.WithMetrics(m), auth.WithAuditPublisher(auditPub))
	if err != nil {
		return err
	}

	notices := guard.NewNotices(state, log)
	guardCtrl := guard.NewController(accessor, resolver, notices, log,
		guard.WithMetrics(m), guard.WithAuditPublisher(auditPub))

	var mailer notify.Mailer = &notify.LogMailer{Logger: log}
	if cfg.SMTPAddr != "" {
		mailer = notify.NewSMTPMailer(cfg.SMTPAddr, cfg.MailFrom)
	}
	dispatcher, err := notify.NewDispatcher(mailer, cfg.MailRecipient, log,
		notify.WithMetrics(m), notify.WithAuditPublisher(auditPub))
	if err != nil {
		return err
	}
	group.Go(func() error { return ignoreCancel(dispatcher.Run(gctx)) })

	recordsService, err := recordservice.New(opportunities, pipeline, log,
		recordservice.WithNotifier(dispatcher), recordservice.WithAuditPublisher(auditPub))
	if err != nil {
		return err
	}

	checker := status.NewChecker(cfg.StatusCheckInterval, log, status.WithMetrics(m))
	var readyChecks []guard.ReadyChecker
	if db != nil {
		check := func(ctx context.Context) error { return postgres.Health(ctx, db) }
		checker.Register("postgres", check)
		readyChecks = append(readyChecks, check)
	}
	if redisClient != nil {
		checker.Register("redis", redisClient.Health)
		readyChecks = append(readyChecks, redisClient.Health)
	}
	group.Go(func() error { return ignoreCancel(checker.Run(gctx)) })

	// The guard never serves a protected page before its dependencies
	// answer; on timeout it stays closed and denies with a system error.
	if !guardCtrl.WaitReady(ctx, cfg.GuardReadyTimeout, readyChecks...) {
		log.Error("guard dependencies unavailable; serving in fail-closed mode")
	}

	router := httptransport.NewRouter(log, checker,
		httptransport.NewPages(guardCtrl, notices, log),
		httptransport.NewAuthHandler(authService, accessor, cfg.SessionTTL, log),
		profilehandler.New(profiles, guardCtrl, log),
		recordhandler.New(recordsService, guardCtrl, log),
		notify.NewHandler(dispatcher, cfg.NotifyBearerToken, log),
	)

	srv := httpserver.New(cfg.Addr, router)
	group.Go(func() error {
		log.Info("starting vifm-portal", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return ignoreCancel(group.Wait())
}

// buildAuditPublisher prefers Kafka when seed brokers are configured and
// falls back to an in-process store behind a channel worker otherwise.
func buildAuditPublisher(cfg config.Config, log *slog.Logger, group *errgroup.Group, ctx context.Context) (audit.Publisher, error) {
	kafka, err := auditpublisher.NewKafka(cfg.KafkaSeeds, cfg.AuditTopic, log)
	if err != nil {
		return nil, err
	}
	if kafka != nil {
		group.Go(func() error {
			<-ctx.Done()
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return kafka.Close(closeCtx)
		})
		return kafka, nil
	}

	inbox := make(chan audit.Event, 256)
	worker := auditworker.New(auditmemory.New(), inbox)
	group.Go(func() error { return ignoreCancel(worker.Run(ctx)) })
	return auditworker.ChanPublisher{Inbox: inbox}, nil
}

func ignoreCancel(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
