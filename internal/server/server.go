package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/ftzflow/internal/config"
	entrysummarydomain "github.com/smallbiznis/ftzflow/internal/entrysummary/domain"
	"github.com/smallbiznis/ftzflow/internal/observability"
	obslogger "github.com/smallbiznis/ftzflow/internal/observability/logger"
	obstracing "github.com/smallbiznis/ftzflow/internal/observability/tracing"
	preshipmentdomain "github.com/smallbiznis/ftzflow/internal/preshipment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config) *gin.Engine {
	return NewEngine(obsCfg)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
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
	preshipmentSvc  preshipmentdomain.Service
	entrySummarySvc entrysummarydomain.Service
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	PreshipmentSvc  preshipmentdomain.Service
	EntrySummarySvc entrysummarydomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		preshipmentSvc:  p.PreshipmentSvc,
		entrySummarySvc: p.EntrySummarySvc,
	}

	svc.registerAPIRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Preshipments --------
	api.POST("/preshipments", s.CreatePreshipment)
	api.GET("/preshipments/:id", s.GetPreshipment)
	api.POST("/preshipments/:id/stage", s.TransitionStage)
	api.POST("/preshipments/:id/signoff", s.FinalizeShipment)
	api.POST("/preshipments/:id/entry-summary", s.BuildEntrySummaryFromPreshipment)

	// -------- Entry summary groups --------
	api.POST("/entry-groups", s.CreateEntryGroup)
	api.POST("/entry-groups/:id/preshipments", s.AddGroupPreshipments)
	api.POST("/entry-groups/:id/approve", s.ApproveEntryGroup)
	api.POST("/entry-groups/:id/entry-summary", s.BuildEntrySummaryFromGroup)

	// -------- Entry summaries --------
	api.GET("/entry-summaries/:number", s.GetEntrySummary)
	api.POST("/entry-summaries/:number/totals", s.RecomputeGrandTotals)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
