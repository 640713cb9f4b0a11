package main

import (
	"context"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	internalhandler "github.com/sma-timetable/scheduler-api/internal/handler"
	"github.com/sma-timetable/scheduler-api/internal/repository"
	"github.com/sma-timetable/scheduler-api/internal/service"
	"github.com/sma-timetable/scheduler-api/pkg/config"
	"github.com/sma-timetable/scheduler-api/pkg/database"
	"github.com/sma-timetable/scheduler-api/pkg/logger"
	reqidmiddleware "github.com/sma-timetable/scheduler-api/pkg/middleware/requestid"
)

// @title SMA Timetable Scheduler API
// @version 0.1.0
// @description Deterministic timetable generation engine exposed as an HTTP service.
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("failed to load config", zap.Error(err))
	}

	logr, err := logger.New(cfg)
	if err != nil {
		zap.L().Fatal("failed to init logger", zap.Error(err))
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to initialise database", "error", err)
	}
	defer db.Close()

	validate := validator.New()

	classRepo := repository.NewClassRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	teacherPrefRepo := repository.NewTeacherPreferenceRepository(db)
	teacherQualRepo := repository.NewTeacherQualificationRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	basketRepo := repository.NewElectiveBasketRepository(db)
	fixedSlotRepo := repository.NewFixedSlotRepository(db)
	fixedTeacherRepo := repository.NewFixedTeacherAssignmentRepository(db)
	timetableRepo := repository.NewTimetableRepository(db)
	termRepo := repository.NewTermRepository(db)

	loader := service.NewSnapshotLoader(
		classRepo,
		subjectRepo,
		teacherRepo,
		teacherPrefRepo,
		teacherQualRepo,
		roomRepo,
		basketRepo,
		fixedSlotRepo,
		fixedTeacherRepo,
	)

	generationSvc := service.NewGenerationService(
		loader,
		timetableRepo,
		termRepo,
		db,
		validate,
		logr,
		cfg.Engine.ProposalTTL,
		cfg.Engine.DefaultSeed,
		cfg.Engine.RunOptimizer,
	)
	generationHandler := internalhandler.NewGenerationHandler(generationSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group(cfg.APIPrefix)
	{
		timetables := api.Group("/timetables")
		timetables.POST("/generate", generationHandler.Generate)
		timetables.POST("/commit", generationHandler.Commit)
		timetables.GET("", generationHandler.List)
		timetables.GET("/:id/slots", generationHandler.Slots)
	}

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Sugar().Infow("starting server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
