package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"meytle/internal/app/commands"
	"meytle/internal/app/dto"
	availabilityapp "meytle/internal/app/handlers/availability"
	bookingapp "meytle/internal/app/handlers/booking"
	catalogapp "meytle/internal/app/handlers/catalog"
	companionapp "meytle/internal/app/handlers/companion"
	meapp "meytle/internal/app/handlers/me"
	reviewsapp "meytle/internal/app/handlers/reviews"
	userapp "meytle/internal/app/handlers/user"
	"meytle/internal/app/middleware"
	"meytle/internal/app/outbox"
	"meytle/internal/app/policies"
	"meytle/internal/app/queries"
	authsvc "meytle/internal/app/services/auth"
	"meytle/internal/app/uow"
	domainaudit "meytle/internal/domain/audit"
	"meytle/internal/domain/shared/money"
	domainuser "meytle/internal/domain/user"
	"meytle/internal/infra/address"
	"meytle/internal/infra/broker/kafka"
	"meytle/internal/infra/config"
	mongostore "meytle/internal/infra/db/mongo"
	ginserver "meytle/internal/infra/http/gin"
	"meytle/internal/infra/obs"
	infraoutbox "meytle/internal/infra/outbox"
	"meytle/internal/infra/security"
	"meytle/internal/infra/storage/memory"
	"meytle/internal/infra/storage/s3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		obs.NewLogger("dev").Error("configuration invalid", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env)

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("application bootstrap failed", "error", err)
		os.Exit(1)
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Checks: app.readiness,
	}, app.handlers)

	go func() {
		if err := app.worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("outbox worker stopped", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageMode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers  ginserver.Handlers
	worker    *infraoutbox.Worker
	readiness map[string]obs.ReadinessCheck
}

type storageSet struct {
	factory   uow.UoWFactory
	users     domainuser.Repository
	audit     domainaudit.Repository
	readiness map[string]obs.ReadinessCheck
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (application, error) {
	storage, err := buildStorage(ctx, cfg, logger)
	if err != nil {
		return application{}, err
	}

	outboxStore := infraoutbox.NewStore()
	encoder := outbox.JSONEventEncoder{}
	idStore := memory.NewIdempotencyStore(cfg.IdempotencyTTL)

	authService := &authsvc.Service{
		Users:      storage.users,
		Sessions:   memory.NewSessionStore(),
		Passwords:  security.BcryptHasher{},
		Tokens:     security.RandomTokenGenerator{},
		SessionTTL: cfg.SessionTTL,
		Logger:     logger,
	}

	addresses := buildAddressValidator(cfg, logger)
	uploader := buildUploader(cfg, logger)

	commandBus := commands.NewInMemoryBus()
	defaultRate, err := money.New(cfg.DefaultRateCents, cfg.DefaultRateCcy)
	if err != nil {
		return application{}, fmt.Errorf("default hourly rate: %w", err)
	}
	commands.RegisterHandler(commandBus, bookingapp.CreateBookingCommand{}.Key(), &bookingapp.CreateBookingHandler{
		UoWFactory:  storage.factory,
		Addresses:   addresses,
		Encoder:     encoder,
		DefaultRate: defaultRate,
		Logger:      logger,
	})
	commands.RegisterHandler(commandBus, bookingapp.UpdateStatusCommand{}.Key(), &bookingapp.UpdateStatusHandler{
		UoWFactory: storage.factory,
		Encoder:    encoder,
		Logger:     logger,
	})
	commands.RegisterHandler(commandBus, availabilityapp.SetWeeklyCommand{}.Key(), &availabilityapp.SetWeeklyHandler{
		UoWFactory: storage.factory,
		Audit:      storage.audit,
		Logger:     logger,
	})
	commands.RegisterHandler(commandBus, companionapp.ApplyCommand{}.Key(), &companionapp.ApplyHandler{
		UoWFactory: storage.factory,
		Encoder:    encoder,
		Logger:     logger,
	})
	commands.RegisterHandler(commandBus, companionapp.DecideApplicationCommand{}.Key(), &companionapp.DecideApplicationHandler{
		UoWFactory: storage.factory,
		Encoder:    encoder,
		Logger:     logger,
	})
	profileHandler := &companionapp.UpdateProfileHandler{UoWFactory: storage.factory}
	commands.RegisterHandler(commandBus, companionapp.UpdateProfileCommand{}.Key(), profileHandler)
	commands.RegisterHandler(commandBus, companionapp.SetActiveCommand{}.Key(),
		commands.HandlerFunc[companionapp.SetActiveCommand, dto.CompanionProfile](profileHandler.HandleSetActive))
	commands.RegisterHandler(commandBus, companionapp.SetPhotoCommand{}.Key(),
		commands.HandlerFunc[companionapp.SetPhotoCommand, dto.CompanionProfile](profileHandler.HandleSetPhoto))
	commands.RegisterHandler(commandBus, reviewsapp.SubmitReviewCommand{}.Key(), &reviewsapp.SubmitReviewHandler{
		UoWFactory: storage.factory,
		Logger:     logger,
	})
	commands.RegisterHandler(commandBus, userapp.SetBlockedCommand{}.Key(), &userapp.SetBlockedHandler{
		UoWFactory: storage.factory,
		Audit:      storage.audit,
		Logger:     logger,
	})
	categoryHandler := &catalogapp.CreateCategoryHandler{UoWFactory: storage.factory}
	commands.RegisterHandler(commandBus, catalogapp.CreateCategoryCommand{}.Key(), categoryHandler)
	commands.RegisterHandler(commandBus, catalogapp.DeactivateCategoryCommand{}.Key(),
		commands.HandlerFunc[catalogapp.DeactivateCategoryCommand, dto.Category](categoryHandler.HandleDeactivate))

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, availabilityapp.GetWeeklyQuery{}.Key(), &availabilityapp.GetWeeklyHandler{UoWFactory: storage.factory})
	queries.RegisterHandler(queryBus, availabilityapp.OpenSlotsQuery{}.Key(), &availabilityapp.OpenSlotsHandler{UoWFactory: storage.factory})
	queries.RegisterHandler(queryBus, availabilityapp.CalendarQuery{}.Key(), &availabilityapp.CalendarHandler{UoWFactory: storage.factory})
	queries.RegisterHandler(queryBus, bookingapp.ListClientBookingsQuery{}.Key(), &bookingapp.ListClientBookingsHandler{UoWFactory: storage.factory})
	queries.RegisterHandler(queryBus, bookingapp.ListCompanionBookingsQuery{}.Key(), &bookingapp.ListCompanionBookingsHandler{UoWFactory: storage.factory})
	queries.RegisterHandler(queryBus, companionapp.GetCompanionQuery{}.Key(), &companionapp.GetCompanionHandler{UoWFactory: storage.factory})
	queries.RegisterHandler(queryBus, companionapp.BrowseCompanionsQuery{}.Key(), &companionapp.BrowseCompanionsHandler{UoWFactory: storage.factory})
	queries.RegisterHandler(queryBus, reviewsapp.ListCompanionReviewsQuery{}.Key(), &reviewsapp.ListCompanionReviewsHandler{UoWFactory: storage.factory, Logger: logger})
	queries.RegisterHandler(queryBus, catalogapp.ListCategoriesQuery{}.Key(), &catalogapp.ListCategoriesHandler{UoWFactory: storage.factory})
	queries.RegisterHandler(queryBus, meapp.ListMyBookingsQuery{}.Key(), &meapp.ListMyBookingsHandler{UoWFactory: storage.factory, Logger: logger})

	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Validation(middleware.SelfValidator{}),
		middleware.Idempotency(idStore, nil),
		middleware.OutboxFlush(outboxStore),
		middleware.Transaction(storage.factory, nil),
	)
	queryBusWithMiddleware := middleware.ChainQueries(
		queryBus,
		middleware.QueryValidation(middleware.SelfValidator{}),
	)

	worker := &infraoutbox.Worker{
		Store:       outboxStore,
		Producer:    buildProducer(cfg, logger),
		Interval:    cfg.OutboxPollInterval,
		TopicPrefix: cfg.KafkaTopicPrefix,
		Backoff:     cfg.RetryBackoff,
	}

	return application{
		handlers: ginserver.Handlers{
			Booking: ginserver.BookingHandler{
				Commands: commandBusWithMiddleware,
				Queries:  queryBusWithMiddleware,
				Logger:   logger,
			},
			Availability: ginserver.AvailabilityHandler{
				Commands: commandBusWithMiddleware,
				Queries:  queryBusWithMiddleware,
				Logger:   logger,
			},
			Companion: ginserver.CompanionHandler{
				Commands: commandBusWithMiddleware,
				Queries:  queryBusWithMiddleware,
				Uploader: uploader,
				Logger:   logger,
			},
			Reviews: ginserver.ReviewsHandler{
				Commands: commandBusWithMiddleware,
				Queries:  queryBusWithMiddleware,
				Logger:   logger,
			},
			Catalog: ginserver.CatalogHandler{
				Commands: commandBusWithMiddleware,
				Queries:  queryBusWithMiddleware,
				Logger:   logger,
			},
			Auth: ginserver.AuthHandler{
				Service: authService,
				Logger:  logger,
			},
			Admin: ginserver.AdminHandler{
				Users:    storage.users,
				Audit:    storage.audit,
				Commands: commandBusWithMiddleware,
				Logger:   logger,
			},
			Me: ginserver.MeHandler{
				Queries: queryBusWithMiddleware,
				Logger:  logger,
			},
			AuthMiddleware: ginserver.AuthMiddleware{
				Service: authService,
				Logger:  logger,
			}.Handle,
		},
		worker:    worker,
		readiness: storage.readiness,
	}, nil
}

func buildStorage(ctx context.Context, cfg config.Config, logger *slog.Logger) (storageSet, error) {
	if cfg.StorageMode == "mongo" {
		client, err := mongostore.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return storageSet{}, err
		}
		if err := client.Ping(ctx); err != nil {
			return storageSet{}, err
		}
		users := mongostore.NewUserRepository(client.DB)
		audit := mongostore.NewAuditRepository(client.DB)
		factory := mongostore.Factory{
			DB:               client.DB,
			AvailabilityRepo: mongostore.NewAvailabilityRepository(client.DB),
			BookingRepo:      mongostore.NewBookingRepository(client.DB),
			CompanionRepo:    mongostore.NewCompanionRepository(client.DB),
			CatalogRepo:      mongostore.NewCatalogRepository(client.DB),
			ReviewsRepo:      mongostore.NewReviewRepository(client.DB),
			UsersRepo:        users,
			AuditRepo:        audit,
		}
		logger.Info("mongo storage ready", "db", cfg.MongoDB)
		return storageSet{
			factory: factory,
			users:   users,
			audit:   audit,
			readiness: map[string]obs.ReadinessCheck{
				"mongo": client.Ping,
			},
		}, nil
	}

	users := memory.NewUserRepository()
	audit := memory.NewAuditRepository()
	factory := &memory.Factory{
		AvailabilityRepo: memory.NewAvailabilityRepository(),
		BookingRepo:      memory.NewBookingRepository(),
		CompanionRepo:    memory.NewCompanionRepository(),
		CatalogRepo:      memory.NewCatalogRepository(),
		ReviewsRepo:      memory.NewReviewsRepository(),
		UsersRepo:        users,
		AuditRepo:        audit,
	}
	logger.Info("in-memory storage ready")
	return storageSet{
		factory:   factory,
		users:     users,
		audit:     audit,
		readiness: map[string]obs.ReadinessCheck{},
	}, nil
}

func buildAddressValidator(cfg config.Config, logger *slog.Logger) policies.AddressValidatorPort {
	if cfg.AddressCheckURL == "" {
		return address.PermissiveValidator{}
	}
	return &address.HTTPValidator{
		Client:   &http.Client{Timeout: 5 * time.Second},
		Endpoint: cfg.AddressCheckURL,
		Logger:   logger,
	}
}

func buildUploader(cfg config.Config, logger *slog.Logger) s3.Uploader {
	if cfg.S3Endpoint == "" {
		return s3.NoopUploader{}
	}
	client, err := s3.NewClient(cfg.S3Endpoint, cfg.S3UseSSL, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3PublicEndpoint, logger)
	if err != nil {
		logger.Warn("photo storage unavailable, uploads disabled", "error", err)
		return s3.NoopUploader{}
	}
	return client
}

func buildProducer(cfg config.Config, logger *slog.Logger) infraoutbox.Producer {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Warn("kafka brokers not configured, logging events instead")
		return logProducer{logger: logger}
	}
	producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
	if err != nil {
		logger.Warn("kafka producer unavailable, logging events instead", "error", err)
		return logProducer{logger: logger}
	}
	return producer
}

// logProducer stands in for Kafka during local development.
type logProducer struct {
	logger *slog.Logger
}

func (p logProducer) Publish(_ context.Context, topic string, key string, payload []byte, _ map[string]string) error {
	p.logger.Info("event published", "topic", topic, "key", key, "bytes", len(payload))
	return nil
}
