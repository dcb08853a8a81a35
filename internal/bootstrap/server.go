package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Domenick1991/travelbook/api"
	"github.com/Domenick1991/travelbook/config"
	authmgr "github.com/Domenick1991/travelbook/internal/auth"
	"github.com/Domenick1991/travelbook/internal/middleware"
	authsvc "github.com/Domenick1991/travelbook/internal/service/auth"
	"github.com/Domenick1991/travelbook/internal/service/booking"
	"github.com/Domenick1991/travelbook/internal/service/travel"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Services struct {
	Travel  travel.TravelUseCase
	Booking booking.BookingUseCase
	Auth    authsvc.AuthUseCase
	Tokens  *authmgr.Manager
}

// Run starts the HTTP server and blocks until the context is cancelled or
// the server fails.
func Run(ctx context.Context, cfg *config.Config, log *zap.Logger, svcs Services) error {
	httpSrv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: NewRouter(cfg, log, svcs),
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

// NewRouter wires middleware and handlers onto a gin engine.
func NewRouter(cfg *config.Config, log *zap.Logger, svcs Services) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(log))

	if len(cfg.HTTP.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.HTTP.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Authorization", "Content-Type", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	travelHandler := api.NewTravelHandler(svcs.Travel)
	bookingHandler := api.NewBookingHandler(svcs.Booking)
	authHandler := api.NewAuthHandler(svcs.Auth)

	public := router.Group("/api")
	travelHandler.Register(public)
	authHandler.Register(public)

	protected := router.Group("/api")
	protected.Use(middleware.JWTAuth(svcs.Tokens))
	bookingHandler.Register(protected)
	authHandler.RegisterProtected(protected)

	admin := router.Group("/api")
	admin.Use(middleware.JWTAuth(svcs.Tokens), middleware.RequireRole("admin"))
	travelHandler.RegisterAdmin(admin)

	return router
}
