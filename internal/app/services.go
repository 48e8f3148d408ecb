package app

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/yungbote/allbound-backend/internal/commerce/invoice"
	"github.com/yungbote/allbound-backend/internal/commerce/pricing"
	"github.com/yungbote/allbound-backend/internal/learning/bundle"
	"github.com/yungbote/allbound-backend/internal/platform/authtoken"
	"github.com/yungbote/allbound-backend/internal/platform/logger"
	"github.com/yungbote/allbound-backend/internal/services"
)

type Services struct {
	Content      services.ContentService
	Progress     services.ProgressService
	Member       services.MemberService
	Checkout     services.CheckoutService
	AdminContent services.AdminContentService
	Invoice      services.InvoiceService
	AdminAuth    services.AdminAuthService
}

func loadBundle(path string) (*bundle.Bundle, error) {
	if strings.TrimSpace(path) != "" {
		return bundle.LoadFile(path)
	}
	return bundle.Load()
}

func loadPricing(path string) (*pricing.Table, error) {
	if strings.TrimSpace(path) != "" {
		return pricing.LoadFile(path)
	}
	return pricing.Load()
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients Clients) (Services, error) {
	log.Info("Wiring services...")

	course, err := loadBundle(cfg.CourseFile)
	if err != nil {
		return Services{}, fmt.Errorf("load course bundle: %w", err)
	}
	table, err := loadPricing(cfg.PricingFile)
	if err != nil {
		return Services{}, fmt.Errorf("load pricing table: %w", err)
	}
	renderer, err := invoice.NewRenderer(cfg.Issuer)
	if err != nil {
		return Services{}, fmt.Errorf("init invoice renderer: %w", err)
	}

	var tokens authtoken.TokenService
	if strings.TrimSpace(cfg.AdminTokenSecret) != "" {
		tokens, err = authtoken.New(authtoken.Config{
			Secret: cfg.AdminTokenSecret,
			TTL:    cfg.AdminTokenTTL,
			Format: cfg.AdminTokenFormat,
			Issuer: "allbound-admin",
		})
		if err != nil {
			return Services{}, fmt.Errorf("init admin tokens: %w", err)
		}
	} else {
		log.Warn("ADMIN_TOKEN_SECRET not set; admin API disabled")
	}

	content := services.NewContentService(db, log, cfg.ContentSource, course, clients.Cache, repos.Module, repos.Lesson, repos.Resource)
	progress := services.NewProgressService(db, log, content, repos.Progress)
	member := services.NewMemberService(db, log, cfg.Member, repos.Member, progress, clients.Auth, clients.Mailer)

	return Services{
		Content:      content,
		Progress:     progress,
		Member:       member,
		Checkout:     services.NewCheckoutService(db, log, table, clients.Gateway, repos.Order, member),
		AdminContent: services.NewAdminContentService(db, log, content, repos.Module, repos.Lesson, repos.Resource),
		Invoice:      services.NewInvoiceService(db, log, cfg.Invoice, repos.Order, renderer, clients.Mailer, clients.Archive),
		AdminAuth: services.NewAdminAuthService(log, services.AdminAuthConfig{
			Email:        cfg.AdminEmail,
			PasswordHash: cfg.AdminPasswordHash,
		}, tokens),
	}, nil
}
