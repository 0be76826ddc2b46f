package api

import (
	"net/http"
	"time"

	"gochurn/app"
	"gochurn/domain/core"
	"gochurn/internal"

	"github.com/gin-gonic/gin"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"

	defaultMaxBatch = 1000
)

// Options configures the prediction API
type Options struct {
	GinMode      string
	FrontendURLs []string
	MaxBatch     int
}

// Server exposes the prediction service over HTTP
type Server struct {
	svc      *app.PredictionService
	metrics  *Metrics
	logger   *internal.Logger
	maxBatch int
	router   *gin.Engine
}

// NewServer builds the gin router around a loaded prediction service
func NewServer(svc *app.PredictionService, metrics *Metrics, opts Options, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	if metrics == nil {
		metrics = NewMetrics()
	}
	if opts.MaxBatch <= 0 {
		opts.MaxBatch = defaultMaxBatch
	}
	if opts.GinMode != "" {
		gin.SetMode(opts.GinMode)
	}

	s := &Server{
		svc:      svc,
		metrics:  metrics,
		logger:   logger.WithPrefix("API"),
		maxBatch: opts.MaxBatch,
	}

	manifest := svc.Artifact().Manifest
	metrics.SetModel(manifest.ModelID.String(), manifest.SchemaFingerprint.Short())

	router := gin.New()
	router.Use(gin.LoggerWithWriter(s.logger.Writer(), "/healthz"))
	router.Use(gin.Recovery())
	router.Use(requestID())
	router.Use(SetupCORS(opts.FrontendURLs))

	router.POST("/predict", s.handlePredict)
	router.POST("/predict/batch", s.handlePredictBatch)
	router.GET("/model", s.handleModel)
	router.GET("/healthz", s.handleHealth)

	s.router = router
	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// NewHTTPServer wraps a handler with the configured timeouts
func NewHTTPServer(addr string, handler http.Handler, readTimeout, writeTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       2 * writeTimeout,
	}
}

// requestID propagates the caller's request id or assigns a new one
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = core.NewRequestID().String()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}
