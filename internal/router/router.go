package router

import (
	"github.com/gin-gonic/gin"

	"github.com/pseudosapiens/phrase-api/internal/handler"
	"github.com/pseudosapiens/phrase-api/internal/handler/prometheus"
	"github.com/pseudosapiens/phrase-api/internal/middleware"
)

// Handler registers its routes on a group.
type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Router struct {
	engine      *gin.Engine
	h           *handler.Handler
	promH       *prometheus.Handler
	subscriberH Handler
	planH       Handler
	paymentH    Handler
}

type RouterConfig struct {
	RateLimitRPS   float64
	RateLimitBurst int
	CORSConfig     middleware.CORSConfig
}

func NewRouter(
	h *handler.Handler,
	promH *prometheus.Handler,
	subscriberH Handler,
	planH Handler,
	paymentH Handler,
	config RouterConfig,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	middleware.RegisterValidation()
	engine := gin.New()

	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
	)
	engine.Use(middleware.CORS(config.CORSConfig))

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RPS:   config.RateLimitRPS,
		Burst: config.RateLimitBurst,
	})
	engine.Use(rateLimiter.RateLimit())

	return &Router{
		engine:      engine,
		h:           h,
		promH:       promH,
		subscriberH: subscriberH,
		planH:       planH,
		paymentH:    paymentH,
	}
}

func (r *Router) Setup() {
	api := r.engine.Group("/api/v1")

	health := api.Group("/health")
	{
		health.GET("/live", r.h.LivenessCheck)
		health.GET("/ready", r.h.ReadinessCheck)
		health.GET("/metrics", r.promH.Handler())
	}

	r.subscriberH.RegisterRoutes(api)
	r.planH.RegisterRoutes(api)
	r.paymentH.RegisterRoutes(api)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
