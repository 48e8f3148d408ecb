package app

import (
	"github.com/yungbote/allbound-backend/internal/http"
	"github.com/yungbote/allbound-backend/internal/observability"
	"github.com/yungbote/allbound-backend/internal/platform/logger"
)

func routerConfig(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) http.RouterConfig {
	tracing := ""
	if cfg.Otel.Enabled {
		tracing = cfg.Otel.ServiceName
	}
	return http.RouterConfig{
		Log:            log,
		Metrics:        metrics,
		CORSOrigins:    cfg.CORSOrigins,
		TracingService: tracing,

		LearnerAuth: middleware.Learner,
		AdminAuth:   middleware.Admin,

		HealthHandler:   handlers.Health,
		PricingHandler:  handlers.Pricing,
		CheckoutHandler: handlers.Checkout,
		CourseHandler:   handlers.Course,
		ProgressHandler: handlers.Progress,
		AuthHandler:     handlers.Auth,
		ModuleHandler:   handlers.Module,
		LessonHandler:   handlers.Lesson,
		ResourceHandler: handlers.Resource,
		MemberHandler:   handlers.Member,
		InvoiceHandler:  handlers.Invoice,
	}
}
