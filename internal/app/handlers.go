package app

import (
	httpH "github.com/yungbote/allbound-backend/internal/http/handlers"
	"github.com/yungbote/allbound-backend/internal/platform/logger"
)

type Handlers struct {
	Health   *httpH.HealthHandler
	Pricing  *httpH.PricingHandler
	Checkout *httpH.CheckoutHandler
	Course   *httpH.CourseHandler
	Progress *httpH.ProgressHandler
	Auth     *httpH.AuthHandler
	Module   *httpH.ModuleHandler
	Lesson   *httpH.LessonHandler
	Resource *httpH.ResourceHandler
	Member   *httpH.MemberHandler
	Invoice  *httpH.InvoiceHandler
}

func wireHandlers(log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:   httpH.NewHealthHandler(),
		Pricing:  httpH.NewPricingHandler(services.Checkout),
		Checkout: httpH.NewCheckoutHandler(log, services.Checkout),
		Course:   httpH.NewCourseHandler(services.Content),
		Progress: httpH.NewProgressHandler(services.Progress),
		Auth:     httpH.NewAuthHandler(log, services.AdminAuth),
		Module:   httpH.NewModuleHandler(services.AdminContent),
		Lesson:   httpH.NewLessonHandler(services.AdminContent),
		Resource: httpH.NewResourceHandler(services.AdminContent),
		Member:   httpH.NewMemberHandler(log, services.Member),
		Invoice:  httpH.NewInvoiceHandler(services.Invoice),
	}
}
