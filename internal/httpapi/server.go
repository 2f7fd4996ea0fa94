// Package httpapi serves the HTTP interactions endpoint, the personal records API,
// health checks and metrics.
package httpapi

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"attendbot/internal/attendance"
	"attendbot/internal/auth"
	"attendbot/internal/bot"
	"attendbot/internal/httpmiddleware"
)

// RecordService answers the records API with the same clamping as attend_list.
type RecordService interface {
	ListRecent(ctx context.Context, caller attendance.Caller, req attendance.ListRequest) attendance.Outcome
}

// RecordLister reads an owner's records without the command limit, for exports.
type RecordLister interface {
	ListRecentByOwner(ctx context.Context, ownerID string, limit int) ([]attendance.Record, error)
}

// Checker reports whether a backing service is reachable.
type Checker interface {
	Healthy(ctx context.Context) bool
}

// Deps wires the router. Redis and FollowUp may be nil.
type Deps struct {
	DB         Checker
	Redis      Checker
	Dispatcher *bot.Dispatcher
	Service    RecordService
	Records    RecordLister

	// PublicKey verifies interaction signatures. The endpoint answers 503 while it is unset.
	PublicKey ed25519.PublicKey
	// FollowUp delivers the reply when writing the HTTP response fails.
	FollowUp bot.Responder

	JWTSigningKey   string
	JWTIssuer       string
	RateLimitPerMin int
	ExportLimit     int

	Log *zap.Logger
}

// ParsePublicKey decodes the hex application public key.
func ParsePublicKey(s string) (ed25519.PublicKey, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode public key: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("public key must be %d bytes, got %d", ed25519.PublicKeySize, len(raw))
	}
	return ed25519.PublicKey(raw), nil
}

// NewRouter builds the gin engine.
func NewRouter(d Deps) *gin.Engine {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	h := &handler{deps: d, log: d.Log}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestID())
	r.Use(accessLog(d.Log, "/healthz", "/metrics"))
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Disposition", requestIDHeader},
		MaxAge:        12 * time.Hour,
	}))
	r.Use(securityHeaders())

	// Interactions all arrive from the platform's own addresses, so they are throttled
	// per owner in the dispatcher instead of per IP here.
	r.POST("/interactions", h.interactions)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	limited := r.Group("/")
	if d.RateLimitPerMin > 0 {
		limited.Use(httpmiddleware.NewTokenBucket(d.RateLimitPerMin, d.RateLimitPerMin).GinMiddleware())
	}
	limited.GET("/healthz", h.healthz)

	v1 := limited.Group("/v1", auth.OwnerAuth(d.JWTSigningKey, d.JWTIssuer))
	v1.GET("/records", h.listRecords)
	v1.GET("/records/export", h.exportRecords)

	return r
}

const requestIDHeader = "X-Request-ID"

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func accessLog(log *zap.Logger, skip ...string) gin.HandlerFunc {
	skipped := make(map[string]bool, len(skip))
	for _, p := range skip {
		skipped[p] = true
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if skipped[c.Request.URL.Path] {
			return
		}
		log.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", c.GetString("request_id")))
	}
}

func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}

// ListenAndServe runs srv until ctx is cancelled, then drains it for up to 10 seconds.
func ListenAndServe(ctx context.Context, srv *http.Server, log *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
