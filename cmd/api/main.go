package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/olahol/melody"
	"golang.org/x/sync/errgroup"

	"tally/internal/config"
	"tally/internal/database"
	"tally/internal/logger"
	"tally/internal/notify"
	"tally/internal/server"
	"tally/internal/services"
	"tally/internal/validator"
)

//go:generate go run github.com/swaggo/swag/cmd/swag@v1.16.4 init -g cmd/api/main.go -d ../.. -o ../../internal/docs --outputTypes go

// @title           Tally API
// @version         1.0
// @description     Tally tracks personal expenses against monthly category budgets and splits shared expenses within groups.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

const shutdownTimeout = 10 * time.Second

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	validator.Register()

	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnf("database close error: %v", err)
		}
	}()

	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Alert sinks
	hub := melody.New()
	dispatcher := notify.NewDispatcher(logger.Named("notify"),
		notify.NewLogNotifier(logger.Named("alerts")),
		notify.NewWSNotifier(hub),
	)
	if appConfig.AMQPEnabled() {
		amqpNotifier, err := notify.NewAMQPNotifier(appConfig.AMQPURL, appConfig.AMQPExchange, appConfig.AMQPQueue)
		if err != nil {
			return fmt.Errorf("failed to connect to message broker: %w", err)
		}
		defer func() {
			if err := amqpNotifier.Close(); err != nil {
				log.Warnf("message broker close error: %v", err)
			}
		}()
		dispatcher.Add(amqpNotifier)
	}
	if appConfig.EmailEnabled() {
		dispatcher.Add(notify.NewEmailNotifier(notify.SMTPConfig{
			Server:   appConfig.SMTPServer,
			Port:     appConfig.SMTPPort,
			Username: appConfig.SMTPUsername,
			Password: appConfig.SMTPPassword,
			From:     appConfig.SMTPFrom,
		}))
	}

	db := dbManager.DB()
	categoryService := services.NewCategoryService(db)
	expenseService := services.NewExpenseService(db, categoryService, dispatcher)

	router := server.NewRouter(appConfig, server.Services{
		Users:      services.NewUserService(db),
		Categories: categoryService,
		Expenses:   expenseService,
		Budgets:    services.NewBudgetService(db, categoryService),
		Groups:     services.NewGroupService(db, expenseService),
		Audit:      services.NewAuditService(db),
		Hub:        hub,
	})

	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infof("Starting Tally server on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := hub.Close(); err != nil {
			log.Warnf("websocket hub close error: %v", err)
		}
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
