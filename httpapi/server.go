package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/terraskye/eventstore"
)

// Server is the HTTP surface over a Store.
type Server struct {
	addr       string
	httpServer *http.Server
	router     *gin.Engine
}

// NewServer builds a gin router exposing store's stream operations at
// addr. app is optional; when non-nil its nrgin middleware wraps every
// route with a New Relic transaction.
func NewServer(addr string, store *eventstore.Store, app *newrelic.Application) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	if app != nil {
		router.Use(nrgin.Middleware(app))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	NewHandler(store).RegisterRoutes(router)

	return &Server{
		addr:   addr,
		router: router,
		httpServer: &http.Server{
			Addr:    addr,
			Handler: router,
		},
	}
}

// Start blocks serving HTTP until the server is shut down. It returns
// nil on a clean Shutdown.
func (s *Server) Start() error {
	log.Info().Str("address", s.addr).Msg("starting eventstore http server")

	if err := s.httpServer.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "eventstore http server error")
	}
	return nil
}

// Shutdown gracefully stops the server, giving in-flight requests up to
// 5 seconds to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("shutting down eventstore http server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "eventstore http server shutdown error")
	}
	return nil
}
