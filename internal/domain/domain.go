package domain

import (
	"github.com/yungbote/allbound-backend/internal/domain/commerce"
	"github.com/yungbote/allbound-backend/internal/domain/content"
	"github.com/yungbote/allbound-backend/internal/domain/progress"
)

type (
	Course   = content.Course
	Module   = content.Module
	Lesson   = content.Lesson
	Resource = content.Resource
	Link     = content.Link

	LessonStatus = content.LessonStatus
	ResourceType = content.ResourceType

	UserProgress = progress.UserProgress

	Order    = commerce.Order
	Member   = commerce.Member
	Region   = commerce.Region
	Currency = commerce.Currency
)

const (
	StatusAvailable  = content.StatusAvailable
	StatusComingSoon = content.StatusComingSoon
	StatusDraft      = content.StatusDraft

	RegionIndia         = commerce.RegionIndia
	RegionSAARC         = commerce.RegionSAARC
	RegionInternational = commerce.RegionInternational

	CurrencyINR = commerce.CurrencyINR
	CurrencyUSD = commerce.CurrencyUSD

	MemberSourceAdmin    = commerce.MemberSourceAdmin
	MemberSourceCheckout = commerce.MemberSourceCheckout
	MemberStatusActive   = commerce.MemberStatusActive
	MemberStatusDisabled = commerce.MemberStatusDisabled
)

// Models lists every table owned by this service, in migration order.
func Models() []any {
	return []any{
		&content.Module{},
		&content.Lesson{},
		&content.Resource{},
		&progress.UserProgress{},
		&commerce.Member{},
		&commerce.Order{},
	}
}
