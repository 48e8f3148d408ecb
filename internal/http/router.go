package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/allbound-backend/internal/http/handlers"
	httpMW "github.com/yungbote/allbound-backend/internal/http/middleware"
	"github.com/yungbote/allbound-backend/internal/http/response"
	"github.com/yungbote/allbound-backend/internal/observability"
	"github.com/yungbote/allbound-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	Metrics     *observability.Metrics
	CORSOrigins []string
	// TracingService enables otelgin spans under this service name.
	TracingService string

	LearnerAuth *httpMW.LearnerAuth
	AdminAuth   *httpMW.AdminAuth

	HealthHandler   *httpH.HealthHandler
	PricingHandler  *httpH.PricingHandler
	CheckoutHandler *httpH.CheckoutHandler
	CourseHandler   *httpH.CourseHandler
	ProgressHandler *httpH.ProgressHandler
	AuthHandler     *httpH.AuthHandler
	ModuleHandler   *httpH.ModuleHandler
	LessonHandler   *httpH.LessonHandler
	ResourceHandler *httpH.ResourceHandler
	MemberHandler   *httpH.MemberHandler
	InvoiceHandler  *httpH.InvoiceHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	log := cfg.Log
	if log == nil {
		log = logger.Nop()
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery())
	if cfg.TracingService != "" {
		r.Use(otelgin.Middleware(cfg.TracingService))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))
	r.Use(httpMW.AttachPricingContext())

	r.NoRoute(func(c *gin.Context) {
		response.AbortError(c, http.StatusNotFound, "not_found", "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		response.AbortError(c, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := r.Group("/api")
	{
		// Pricing and checkout (public)
		if cfg.PricingHandler != nil {
			api.GET("/pricing", cfg.PricingHandler.Quote)
			api.POST("/coupons/validate", cfg.PricingHandler.ValidateCoupon)
		}
		if cfg.CheckoutHandler != nil {
			api.POST("/checkout/order", cfg.CheckoutHandler.CreateOrder)
			api.POST("/checkout/verify", cfg.CheckoutHandler.Verify)
			api.POST("/webhooks/razorpay", cfg.CheckoutHandler.Webhook)
		}
		if cfg.AuthHandler != nil {
			api.POST("/admin/login", cfg.AuthHandler.Login)
		}
	}

	learner := api.Group("/")
	if cfg.LearnerAuth != nil {
		learner.Use(cfg.LearnerAuth.Require())
	}
	{
		if cfg.CourseHandler != nil {
			learner.GET("/course", cfg.CourseHandler.GetCourse)
			learner.GET("/lessons/:id", cfg.CourseHandler.GetLesson)
			learner.GET("/resources", cfg.CourseHandler.ResourceLibrary)
		}
		if cfg.ProgressHandler != nil {
			learner.GET("/progress", cfg.ProgressHandler.Get)
			learner.PUT("/progress", cfg.ProgressHandler.Save)
			learner.POST("/progress/lessons/:id", cfg.ProgressHandler.Complete)
			learner.DELETE("/progress/lessons/:id", cfg.ProgressHandler.Uncomplete)
		}
	}

	admin := api.Group("/admin")
	if cfg.AdminAuth != nil {
		admin.Use(cfg.AdminAuth.Require())
	}
	{
		if cfg.ModuleHandler != nil {
			admin.GET("/modules", cfg.ModuleHandler.List)
			admin.POST("/modules", cfg.ModuleHandler.Create)
			admin.PUT("/modules/reorder", cfg.ModuleHandler.Reorder)
			admin.GET("/modules/:id", cfg.ModuleHandler.Get)
			admin.PUT("/modules/:id", cfg.ModuleHandler.Update)
			admin.DELETE("/modules/:id", cfg.ModuleHandler.Delete)
		}
		if cfg.LessonHandler != nil {
			admin.GET("/modules/:id/lessons", cfg.LessonHandler.ListForModule)
			admin.POST("/modules/:id/lessons", cfg.LessonHandler.Create)
			admin.PUT("/modules/:id/lessons/reorder", cfg.LessonHandler.Reorder)
			admin.GET("/lessons/:id", cfg.LessonHandler.Get)
			admin.PUT("/lessons/:id", cfg.LessonHandler.Update)
			admin.DELETE("/lessons/:id", cfg.LessonHandler.Delete)
		}
		if cfg.ResourceHandler != nil {
			admin.GET("/resources", cfg.ResourceHandler.List)
			admin.POST("/resources", cfg.ResourceHandler.Create)
			admin.PUT("/resources/reorder", cfg.ResourceHandler.Reorder)
			admin.GET("/resources/:id", cfg.ResourceHandler.Get)
			admin.PUT("/resources/:id", cfg.ResourceHandler.Update)
			admin.DELETE("/resources/:id", cfg.ResourceHandler.Delete)
		}
		if cfg.MemberHandler != nil {
			admin.GET("/members", cfg.MemberHandler.List)
			admin.POST("/members", cfg.MemberHandler.Create)
			admin.GET("/members/:id", cfg.MemberHandler.Get)
			admin.PUT("/members/:id", cfg.MemberHandler.Update)
			admin.DELETE("/members/:id", cfg.MemberHandler.Delete)
		}
		if cfg.InvoiceHandler != nil {
			admin.GET("/invoices", cfg.InvoiceHandler.Report)
			admin.POST("/invoices/send", cfg.InvoiceHandler.Send)
		}
	}

	return r
}
