package app

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/yungbote/allbound-backend/internal/clients/razorpay"
	"github.com/yungbote/allbound-backend/internal/clients/redis"
	"github.com/yungbote/allbound-backend/internal/clients/supabase"
	"github.com/yungbote/allbound-backend/internal/commerce/invoice"
	"github.com/yungbote/allbound-backend/internal/data/db"
	"github.com/yungbote/allbound-backend/internal/http/middleware"
	"github.com/yungbote/allbound-backend/internal/jobs/scheduler"
	"github.com/yungbote/allbound-backend/internal/observability"
	"github.com/yungbote/allbound-backend/internal/platform/envutil"
	"github.com/yungbote/allbound-backend/internal/platform/gcp"
	"github.com/yungbote/allbound-backend/internal/platform/logger"
	"github.com/yungbote/allbound-backend/internal/platform/sendgrid"
	"github.com/yungbote/allbound-backend/internal/services"
)

type Config struct {
	Port    string
	LogMode string

	DB            db.Config
	ContentSource string
	CourseFile    string
	PricingFile   string

	AdminEmail        string
	AdminPasswordHash string
	AdminTokenSecret  string
	AdminTokenTTL     time.Duration
	AdminTokenFormat  string

	SupabaseJWTSecret string
	SupabaseAudience  string
	Supabase          supabase.Config
	Razorpay          razorpay.Config
	SendGrid          sendgrid.Config
	Redis             redis.Config
	Archive           gcp.ArchiveConfig

	Member  services.MemberConfig
	Invoice services.InvoiceConfig
	Issuer  invoice.Issuer
	Jobs    scheduler.Config

	CORSOrigins    []string
	MetricsEnabled bool
	Otel           observability.OtelConfig
}

// LoadConfig reads .env when present, then the process environment.
func LoadConfig(log *logger.Logger) Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn("Could not read .env", "error", err)
	}

	cfg := Config{
		Port:    envutil.String("PORT", "8080"),
		LogMode: envutil.String("LOG_MODE", "development"),

		DB:            db.ConfigFromEnv(),
		ContentSource: strings.ToLower(envutil.String("CONTENT_SOURCE", services.ContentSourceDB)),
		CourseFile:    envutil.String("COURSE_FILE", ""),
		PricingFile:   envutil.String("PRICING_FILE", ""),

		AdminEmail:        strings.ToLower(envutil.String("ADMIN_EMAIL", "")),
		AdminPasswordHash: envutil.String("ADMIN_PASSWORD_HASH", ""),
		AdminTokenSecret:  envutil.String("ADMIN_TOKEN_SECRET", ""),
		AdminTokenTTL:     envutil.Seconds("ADMIN_TOKEN_TTL_SECONDS", 24*time.Hour),
		AdminTokenFormat:  envutil.String("ADMIN_TOKEN_FORMAT", "legacy"),

		SupabaseJWTSecret: envutil.String("SUPABASE_JWT_SECRET", ""),
		SupabaseAudience:  envutil.String("SUPABASE_JWT_AUDIENCE", "authenticated"),
		Supabase:          supabase.ConfigFromEnv(),
		Razorpay:          razorpay.ConfigFromEnv(),
		SendGrid:          sendgrid.ConfigFromEnv(),
		Redis:             redis.ConfigFromEnv(),
		Archive:           gcp.ArchiveConfigFromEnv(),

		Member: services.MemberConfig{
			WelcomeTemplateID: envutil.String("SENDGRID_WELCOME_TEMPLATE_ID", ""),
			LoginURL:          envutil.String("SITE_LOGIN_URL", ""),
			SetPasswordURL:    envutil.String("SITE_SET_PASSWORD_URL", ""),
		},
		Invoice: services.InvoiceConfig{
			GSTRate:    invoice.DefaultGSTRate,
			TemplateID: envutil.String("SENDGRID_INVOICE_TEMPLATE_ID", ""),
			CopyTo:     envutil.String("INVOICE_COPY_TO", ""),
		},
		Issuer: invoice.Issuer{
			Name:    envutil.String("INVOICE_ISSUER_NAME", "Allbound"),
			Address: envutil.String("INVOICE_ISSUER_ADDRESS", ""),
			GSTIN:   envutil.String("INVOICE_ISSUER_GSTIN", ""),
			Email:   envutil.String("INVOICE_ISSUER_EMAIL", ""),
			SAC:     envutil.String("INVOICE_SAC", ""),
		},
		Jobs: scheduler.Config{
			InvoiceAutoSend: envutil.Bool("INVOICE_AUTOSEND", false),
			InvoiceSpec:     envutil.String("INVOICE_CRON", scheduler.DefaultInvoiceSpec),
		},

		CORSOrigins:    envutil.List("CORS_ORIGINS", middleware.DefaultOrigins),
		MetricsEnabled: observability.Enabled(),
		Otel:           observability.OtelConfigFromEnv(),
	}

	log.Info("Config loaded",
		"port", cfg.Port,
		"db_driver", cfg.DB.Driver,
		"content_source", cfg.ContentSource,
		"admin_token_format", cfg.AdminTokenFormat,
		"razorpay", cfg.Razorpay.KeyID != "",
		"supabase", cfg.Supabase.URL != "",
		"sendgrid", cfg.SendGrid.APIKey != "",
		"redis", cfg.Redis.Addr != "",
		"invoice_archive", cfg.Archive.Bucket != "",
		"invoice_autosend", cfg.Jobs.InvoiceAutoSend,
		"metrics", cfg.MetricsEnabled,
		"otel", cfg.Otel.Enabled,
	)
	return cfg
}
