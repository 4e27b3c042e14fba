// Package adminapi exposes the gin-based HTTP CRUD surface over the
// Instrument Store: the external collaborator spec.md §1 calls "plumbing"
// but treats as a described contract.
package adminapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/deltafeed/deltafeed/internal/correlation"
	"github.com/deltafeed/deltafeed/internal/instrument"
	"github.com/deltafeed/deltafeed/internal/registry"
	"github.com/deltafeed/deltafeed/internal/simulator"
)

// Server is the Admin API's HTTP surface.
type Server struct {
	store    *instrument.Store
	graph    *correlation.Graph
	sim      *simulator.Simulator
	registry *registry.Registry
	logger   *zap.Logger
	router   *gin.Engine
	httpSrv  *http.Server
}

// NewServer constructs the Admin API router and registers every route of
// spec.md §4.I / §9.
func NewServer(store *instrument.Store, graph *correlation.Graph, sim *simulator.Simulator, reg *registry.Registry, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{store: store, graph: graph, sim: sim, registry: reg, logger: logger}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(logger, true))
	router.Use(cors.Default())

	router.GET("/healthz", s.healthz)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	instruments := router.Group("/instruments")
	instruments.POST("", s.createInstrument)
	instruments.GET("", s.listInstruments)
	instruments.GET("/:id", s.getInstrument)
	instruments.PATCH("/:id", s.patchInstrument)
	instruments.DELETE("/:id", s.deleteInstrument)

	router.PATCH("/config/runtime", s.patchRuntimeConfig)
	router.GET("/subscribers/:id/stats", s.subscriberStats)

	s.router = router
	return s
}

func (s *Server) correlationStrength() float64 {
	return s.sim.Config().CorrelationStrength
}

// Run starts the HTTP server on addr and blocks until ctx is cancelled,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	s.httpSrv = &http.Server{Addr: addr, Handler: s.router}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// Router exposes the underlying gin.Engine, e.g. to mount the WebSocket
// transport's /ws route alongside the Admin API.
func (s *Server) Router() *gin.Engine { return s.router }
