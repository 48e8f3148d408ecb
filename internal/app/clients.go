package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/allbound-backend/internal/clients/razorpay"
	"github.com/yungbote/allbound-backend/internal/clients/redis"
	"github.com/yungbote/allbound-backend/internal/clients/supabase"
	"github.com/yungbote/allbound-backend/internal/platform/gcp"
	"github.com/yungbote/allbound-backend/internal/platform/logger"
	"github.com/yungbote/allbound-backend/internal/platform/sendgrid"
)

// Clients holds the external collaborators. Every field except Cache may be
// nil when its credentials are not configured; the services degrade to 503
// or record the side effect as skipped.
type Clients struct {
	Gateway razorpay.Client
	Auth    supabase.AuthAdmin
	Mailer  sendgrid.Mailer
	Cache   redis.CourseCache
	Archive gcp.InvoiceArchive
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var out Clients

	// Razorpay
	if strings.TrimSpace(cfg.Razorpay.KeyID) != "" {
		gw, err := razorpay.New(log, cfg.Razorpay)
		if err != nil {
			return Clients{}, fmt.Errorf("init razorpay client: %w", err)
		}
		out.Gateway = gw
	} else {
		log.Warn("RAZORPAY_KEY_ID not set; checkout disabled")
	}

	// Supabase
	if strings.TrimSpace(cfg.Supabase.URL) != "" {
		auth, err := supabase.New(log, cfg.Supabase)
		if err != nil {
			return Clients{}, fmt.Errorf("init supabase client: %w", err)
		}
		out.Auth = auth
	} else {
		log.Warn("SUPABASE_URL not set; member auth accounts will be skipped")
	}

	// SendGrid
	if strings.TrimSpace(cfg.SendGrid.APIKey) != "" {
		mailer, err := sendgrid.New(log, cfg.SendGrid)
		if err != nil {
			return Clients{}, fmt.Errorf("init sendgrid client: %w", err)
		}
		out.Mailer = mailer
	} else {
		log.Warn("SENDGRID_API_KEY not set; email disabled")
	}

	// Redis
	cache, err := redis.NewCourseCache(log, cfg.Redis)
	if err != nil {
		return Clients{}, fmt.Errorf("init redis course cache: %w", err)
	}
	out.Cache = cache

	// Gcs
	if strings.TrimSpace(cfg.Archive.Bucket) != "" {
		archive, err := gcp.NewInvoiceArchive(ctx, log, cfg.Archive)
		if err != nil {
			_ = cache.Close()
			return Clients{}, fmt.Errorf("init invoice archive: %w", err)
		}
		out.Archive = archive
	}

	return out, nil
}

func (c Clients) Close() {
	if c.Cache != nil {
		_ = c.Cache.Close()
	}
}
