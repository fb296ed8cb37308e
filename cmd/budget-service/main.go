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

	"golang.org/x/time/rate"

	"github.com/nurpe/budget-service/internal/auth"
	"github.com/nurpe/budget-service/internal/config"
	"github.com/nurpe/budget-service/internal/db"
	"github.com/nurpe/budget-service/internal/excel"
	httphandler "github.com/nurpe/budget-service/internal/http"
	"github.com/nurpe/budget-service/internal/http/middleware"
	"github.com/nurpe/budget-service/internal/logger"
	"github.com/nurpe/budget-service/internal/pdf"
	"github.com/nurpe/budget-service/internal/repository"
	"github.com/nurpe/budget-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment, cfg.Log.Level)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	store := repository.NewStore(database)
	services := httphandler.Services{
		Organizations: service.NewOrganizationService(store),
		Catalog:       service.NewCatalogService(store, log),
		UPAs:          service.NewUPAService(store),
		Projects:      service.NewProjectService(store),
		Items:         service.NewItemService(store),
		Budgets:       service.NewBudgetService(store, log),
		Exports:       service.NewExportService(store, excel.NewGenerator(), pdf.NewGenerator()),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	limiter := middleware.NewRateLimiter(log, rate.Limit(cfg.RateLimit.RPS), cfg.RateLimit.Burst)
	go limiter.Run(ctx, time.Minute)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(services, log)
	authMiddleware := middleware.Auth(tokenParser, store.Members)
	router := httphandler.NewRouter(handler, authMiddleware, limiter, cfg, log)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("graceful shutdown failed")
		}
	}()

	log.Info().Str("addr", addr).Msg("starting budget service")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
	log.Info().Msg("server stopped")
}
