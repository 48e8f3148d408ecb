package app

import (
	httpMW "github.com/yungbote/allbound-backend/internal/http/middleware"
	"github.com/yungbote/allbound-backend/internal/platform/logger"
)

type Middleware struct {
	Learner *httpMW.LearnerAuth
	Admin   *httpMW.AdminAuth
}

func wireMiddleware(log *logger.Logger, cfg Config, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Learner: httpMW.NewLearnerAuth(log, httpMW.LearnerAuthConfig{
			JWTSecret: cfg.SupabaseJWTSecret,
			Audience:  cfg.SupabaseAudience,
		}),
		Admin: httpMW.NewAdminAuth(log, services.AdminAuth),
	}
}
