package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/allbound-backend/internal/domain"
)

func SeedModule(tb testing.TB, ctx context.Context, tx *gorm.DB, title string, order int) *types.Module {
	tb.Helper()
	m := &types.Module{
		ID:         uuid.NewString(),
		Title:      title,
		OrderIndex: order,
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed module: %v", err)
	}
	return m
}

func SeedLesson(tb testing.TB, ctx context.Context, tx *gorm.DB, moduleID, title string, order int, status types.LessonStatus) *types.Lesson {
	tb.Helper()
	l := &types.Lesson{
		ID:             uuid.NewString(),
		ModuleID:       moduleID,
		Title:          title,
		OrderIndex:     order,
		Status:         status,
		WhimsicalLinks: datatypes.NewJSONSlice([]types.Link{}),
		DriveLinks:     datatypes.NewJSONSlice([]types.Link{}),
	}
	if err := tx.WithContext(ctx).Create(l).Error; err != nil {
		tb.Fatalf("seed lesson: %v", err)
	}
	return l
}

func SeedResource(tb testing.TB, ctx context.Context, tx *gorm.DB, lessonID, moduleID *string, global bool, order int) *types.Resource {
	tb.Helper()
	r := &types.Resource{
		ID:         uuid.NewString(),
		Title:      "resource",
		URL:        "https://example.com/" + uuid.NewString(),
		Type:       "link",
		LessonID:   lessonID,
		ModuleID:   moduleID,
		IsGlobal:   global,
		OrderIndex: order,
	}
	if err := tx.WithContext(ctx).Create(r).Error; err != nil {
		tb.Fatalf("seed resource: %v", err)
	}
	return r
}

func SeedMember(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.Member {
	tb.Helper()
	m := &types.Member{
		ID:     uuid.NewString(),
		Email:  email,
		Name:   "Test Member",
		Source: "admin",
		Status: "active",
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed member: %v", err)
	}
	return m
}

func SeedOrder(tb testing.TB, ctx context.Context, tx *gorm.DB, paymentID string, amount int64, region types.Region, at time.Time) *types.Order {
	tb.Helper()
	o := &types.Order{
		ID:            uuid.NewString(),
		PaymentID:     paymentID,
		Amount:        amount,
		Currency:      types.CurrencyINR,
		Region:        region,
		CustomerEmail: paymentID + "@example.com",
		CreatedAt:     at,
		UpdatedAt:     at,
	}
	if err := tx.WithContext(ctx).Create(o).Error; err != nil {
		tb.Fatalf("seed order: %v", err)
	}
	return o
}

func Ptr[T any](v T) *T { return &v }
