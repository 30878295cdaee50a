package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "time/tzdata" // Load timezone data

	cron "github.com/robfig/cron/v3"

	"github.com/comunidad/residence-service/internal/app"
	"github.com/comunidad/residence-service/internal/config"
	"github.com/comunidad/residence-service/internal/constants"
	"github.com/comunidad/residence-service/internal/controllers"
	"github.com/comunidad/residence-service/internal/repositories"
	"github.com/comunidad/residence-service/internal/services"
	"github.com/comunidad/residence-service/internal/utils"
)

func main() {
	cfg := config.LoadConfig()
	utils.InitLogger(cfg.AppName, cfg.LogLevel, cfg.LogFormat)
	utils.SetExposeErrorStack(cfg.ExposeErrorStack())

	application, err := app.NewApp(cfg)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize the application:", err)
	}
	defer application.Close()

	residenceRepo := repositories.NewResidenceRepository(application.DB)
	historyRepo := repositories.NewReassignmentHistoryRepository(application.DB)
	userRepo := repositories.NewUserRepository(application.DB)

	if cfg.LDFlag_SeedDbWithDemoData {
		if err := app.SeedDemoData(context.Background(), userRepo, residenceRepo); err != nil {
			utils.Logger.Fatal("Failed to seed demo data:", err)
		}
	}

	residenceService := services.NewResidenceService(cfg, residenceRepo, historyRepo, userRepo)
	consistencyService := services.NewConsistencyService(residenceRepo, historyRepo)

	c := cron.New()
	if _, err := c.AddFunc(cfg.ConsistencyAuditSchedule, consistencyService.RunScheduledAudit); err != nil {
		utils.Logger.WithError(err).Fatal("Failed to schedule consistency audit job")
	}
	c.Start()
	defer c.Stop()

	handler := app.NewRouter(cfg, app.Controllers{
		Health:      controllers.NewHealthController(application.DB),
		Residence:   controllers.NewResidenceController(residenceService),
		Consistency: controllers.NewConsistencyController(consistencyService),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           handler,
		ReadHeaderTimeout: constants.ReadHeaderTimeout,
	}

	go func() {
		utils.Logger.Infof("Starting %s on port: %s", cfg.AppName, cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Logger.Fatal("Failed to start server:", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	utils.Logger.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		utils.Logger.WithError(err).Error("Graceful shutdown failed")
	}
}
