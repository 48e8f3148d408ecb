package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/yungbote/allbound-backend/internal/commerce/pricing"
	"github.com/yungbote/allbound-backend/internal/data/repos"
	"github.com/yungbote/allbound-backend/internal/data/repos/testutil"
	types "github.com/yungbote/allbound-backend/internal/domain"
	httpH "github.com/yungbote/allbound-backend/internal/http/handlers"
	httpMW "github.com/yungbote/allbound-backend/internal/http/middleware"
	"github.com/yungbote/allbound-backend/internal/platform/authtoken"
	"github.com/yungbote/allbound-backend/internal/services"
)

const (
	testJWTSecret = "learner-secret"
	testAdmin     = "admin@allbound.test"
	testPassword  = "correct horse"
)

type fixture struct {
	router  *gin.Engine
	modules []*types.Module
	lessons []*types.Lesson
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	db := testutil.DB(t)
	log := testutil.Logger(t)

	m1 := testutil.SeedModule(t, ctx, db, "Welcome", 0)
	m2 := testutil.SeedModule(t, ctx, db, "Outreach", 1)
	l1 := testutil.SeedLesson(t, ctx, db, m1.ID, "Start here", 0, types.StatusAvailable)
	l2 := testutil.SeedLesson(t, ctx, db, m2.ID, "Cold email", 0, types.StatusAvailable)
	l3 := testutil.SeedLesson(t, ctx, db, m2.ID, "Secret", 1, types.StatusComingSoon)

	moduleRepo := repos.NewModuleRepo(db, log)
	lessonRepo := repos.NewLessonRepo(db, log)
	resourceRepo := repos.NewResourceRepo(db, log)
	progressRepo := repos.NewProgressRepo(db, log)
	orderRepo := repos.NewOrderRepo(db, log)
	memberRepo := repos.NewMemberRepo(db, log)

	contentSvc := services.NewContentService(db, log, services.ContentSourceDB, nil, nil, moduleRepo, lessonRepo, resourceRepo)
	progressSvc := services.NewProgressService(db, log, contentSvc, progressRepo)
	memberSvc := services.NewMemberService(db, log, services.MemberConfig{}, memberRepo, progressSvc, nil, nil)
	checkoutSvc := services.NewCheckoutService(db, log, pricing.MustLoad(), nil, orderRepo, memberSvc)
	adminContentSvc := services.NewAdminContentService(db, log, contentSvc, moduleRepo, lessonRepo, resourceRepo)
	invoiceSvc := services.NewInvoiceService(db, log, services.InvoiceConfig{}, orderRepo, nil, nil, nil)

	hash, _ := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	tokens, err := authtoken.New(authtoken.Config{Secret: "admin-secret", TTL: time.Hour})
	if err != nil {
		t.Fatalf("authtoken.New: %v", err)
	}
	adminAuthSvc := services.NewAdminAuthService(log, services.AdminAuthConfig{Email: testAdmin, PasswordHash: string(hash)}, tokens)

	router := NewRouter(RouterConfig{
		Log:             log,
		LearnerAuth:     httpMW.NewLearnerAuth(log, httpMW.LearnerAuthConfig{JWTSecret: testJWTSecret}),
		AdminAuth:       httpMW.NewAdminAuth(log, adminAuthSvc),
		HealthHandler:   httpH.NewHealthHandler(),
		PricingHandler:  httpH.NewPricingHandler(checkoutSvc),
		CheckoutHandler: httpH.NewCheckoutHandler(log, checkoutSvc),
		CourseHandler:   httpH.NewCourseHandler(contentSvc),
		ProgressHandler: httpH.NewProgressHandler(progressSvc),
		AuthHandler:     httpH.NewAuthHandler(log, adminAuthSvc),
		ModuleHandler:   httpH.NewModuleHandler(adminContentSvc),
		LessonHandler:   httpH.NewLessonHandler(adminContentSvc),
		ResourceHandler: httpH.NewResourceHandler(adminContentSvc),
		MemberHandler:   httpH.NewMemberHandler(log, memberSvc),
		InvoiceHandler:  httpH.NewInvoiceHandler(invoiceSvc),
	})
	return &fixture{
		router:  router,
		modules: []*types.Module{m1, m2},
		lessons: []*types.Lesson{l1, l2, l3},
	}
}

func (f *fixture) do(t *testing.T, method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(raw)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
}

func learnerToken(t *testing.T, sub string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   sub,
		"email": sub + "@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func (f *fixture) adminToken(t *testing.T) string {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/admin/login", "", map[string]string{"email": testAdmin, "password": testPassword})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: got=%d body=%s", rec.Code, rec.Body.String())
	}
	var session services.AdminSession
	decode(t, rec, &session)
	if session.Token == "" {
		t.Fatalf("empty admin token")
	}
	return session.Token
}

func TestHealthAndFallbacks(t *testing.T) {
	f := newFixture(t)
	if rec := f.do(t, http.MethodGet, "/healthcheck", "", nil); rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthcheck: got=%d %q", rec.Code, rec.Body.String())
	}
	if rec := f.do(t, http.MethodGet, "/nope", "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown route: got=%d want=404", rec.Code)
	}
	if rec := f.do(t, http.MethodDelete, "/healthcheck", "", nil); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("wrong method: got=%d want=405", rec.Code)
	}
	if rec := f.do(t, http.MethodGet, "/metrics", "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("metrics without a registry: got=%d want=404", rec.Code)
	}
}

func TestPricingRoutes(t *testing.T) {
	f := newFixture(t)

	var q pricing.Quote
	rec := f.do(t, http.MethodGet, "/api/pricing?coupon=allbound", "", nil)
	decode(t, rec, &q)
	if rec.Code != http.StatusOK || q.Price.Currency != types.CurrencyINR || q.Breakdown.Total != 2476 {
		t.Fatalf("india quote: got=%d %+v", rec.Code, q)
	}

	rec = f.do(t, http.MethodGet, "/api/pricing", "", nil, "CF-IPCountry", "US")
	decode(t, rec, &q)
	if q.Price.Currency != types.CurrencyUSD || q.Context.Region != types.RegionInternational {
		t.Fatalf("international quote: %+v", q)
	}

	var c pricing.Coupon
	rec = f.do(t, http.MethodPost, "/api/coupons/validate", "", map[string]string{"code": "NOPE"})
	decode(t, rec, &c)
	if rec.Code != http.StatusOK || c.Valid {
		t.Fatalf("invalid coupon: got=%d %+v", rec.Code, c)
	}

	// No gateway configured.
	rec = f.do(t, http.MethodPost, "/api/checkout/order", "", map[string]any{
		"customer": map[string]string{"name": "A", "email": "a@example.com"},
	})
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("checkout without gateway: got=%d want=503", rec.Code)
	}
}

func TestLearnerRoutes(t *testing.T) {
	f := newFixture(t)
	token := learnerToken(t, "user-1")

	if rec := f.do(t, http.MethodGet, "/api/course", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous course: got=%d want=401", rec.Code)
	}
	rec := f.do(t, http.MethodGet, "/api/course", token, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Cold email") {
		t.Fatalf("course: got=%d body=%s", rec.Code, rec.Body.String())
	}

	if rec := f.do(t, http.MethodGet, "/api/lessons/"+f.lessons[1].ID, token, nil); rec.Code != http.StatusOK {
		t.Fatalf("lesson: got=%d body=%s", rec.Code, rec.Body.String())
	}
	if rec := f.do(t, http.MethodGet, "/api/lessons/missing", token, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("missing lesson: got=%d want=404", rec.Code)
	}

	var view services.ProgressView
	rec = f.do(t, http.MethodPost, "/api/progress/lessons/"+f.lessons[0].ID, token, nil)
	decode(t, rec, &view)
	if rec.Code != http.StatusOK || view.Summary.Percent != 50 || view.UserID != "user-1" {
		t.Fatalf("complete: got=%d %+v", rec.Code, view)
	}
	rec = f.do(t, http.MethodPut, "/api/progress", token, map[string]any{
		"completed_lessons": []string{f.lessons[0].ID, f.lessons[1].ID},
	})
	decode(t, rec, &view)
	if rec.Code != http.StatusOK || view.Summary.Percent != 100 {
		t.Fatalf("save: got=%d %+v", rec.Code, view)
	}
	rec = f.do(t, http.MethodDelete, "/api/progress/lessons/"+f.lessons[1].ID, token, nil)
	decode(t, rec, &view)
	if rec.Code != http.StatusOK || view.Summary.Percent != 50 {
		t.Fatalf("uncomplete: got=%d %+v", rec.Code, view)
	}
	if rec := f.do(t, http.MethodPost, "/api/progress/lessons/"+f.lessons[2].ID, token, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("coming-soon lesson: got=%d want=400", rec.Code)
	}

	// Another learner starts from zero.
	rec = f.do(t, http.MethodGet, "/api/progress", learnerToken(t, "user-2"), nil)
	decode(t, rec, &view)
	if view.Summary.Percent != 0 {
		t.Fatalf("second learner: %+v", view)
	}
}

func TestAdminRoutes(t *testing.T) {
	f := newFixture(t)

	if rec := f.do(t, http.MethodPost, "/api/admin/login", "", map[string]string{"email": testAdmin, "password": "wrong"}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad password: got=%d want=401", rec.Code)
	}
	if rec := f.do(t, http.MethodGet, "/api/admin/modules", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous admin: got=%d want=401", rec.Code)
	}
	if rec := f.do(t, http.MethodGet, "/api/admin/modules", learnerToken(t, "user-1"), nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("learner token on admin route: got=%d want=401", rec.Code)
	}

	token := f.adminToken(t)

	var created struct {
		Module types.Module `json:"module"`
	}
	rec := f.do(t, http.MethodPost, "/api/admin/modules", token, map[string]string{"title": "Closing"})
	decode(t, rec, &created)
	if rec.Code != http.StatusCreated || created.Module.OrderIndex != 2 {
		t.Fatalf("create module: got=%d %+v", rec.Code, created.Module)
	}
	if rec := f.do(t, http.MethodPost, "/api/admin/modules", token, map[string]string{"title": ""}); rec.Code != http.StatusBadRequest {
		t.Fatalf("blank title: got=%d want=400", rec.Code)
	}

	ids := []string{created.Module.ID, f.modules[1].ID, f.modules[0].ID}
	rec = f.do(t, http.MethodPut, "/api/admin/modules/reorder", token, map[string]any{"ids": ids})
	var listed struct {
		Modules []types.Module `json:"modules"`
	}
	decode(t, rec, &listed)
	if rec.Code != http.StatusOK || len(listed.Modules) != 3 || listed.Modules[0].ID != created.Module.ID {
		t.Fatalf("reorder: got=%d %+v", rec.Code, listed.Modules)
	}
	if rec := f.do(t, http.MethodPut, "/api/admin/modules/reorder", token, map[string]any{"ids": ids[:2]}); rec.Code != http.StatusBadRequest {
		t.Fatalf("partial reorder: got=%d want=400", rec.Code)
	}

	rec = f.do(t, http.MethodPost, "/api/admin/modules/"+created.Module.ID+"/lessons", token, map[string]string{"title": "Negotiation"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create lesson: got=%d body=%s", rec.Code, rec.Body.String())
	}
	if rec := f.do(t, http.MethodGet, "/api/admin/modules/missing", token, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("missing module: got=%d want=404", rec.Code)
	}

	rec = f.do(t, http.MethodPost, "/api/admin/resources", token, map[string]any{
		"title": "Templates", "url": "https://www.notion.so/templates", "is_global": true,
	})
	if rec.Code != http.StatusCreated || !strings.Contains(rec.Body.String(), `"type":"notion"`) {
		t.Fatalf("create resource: got=%d body=%s", rec.Code, rec.Body.String())
	}
	if rec := f.do(t, http.MethodGet, "/api/admin/resources?global=true", token, nil); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Templates") {
		t.Fatalf("list resources: got=%d body=%s", rec.Code, rec.Body.String())
	}

	if rec := f.do(t, http.MethodDelete, "/api/admin/modules/"+created.Module.ID, token, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete module: got=%d", rec.Code)
	}
}

func TestAdminMembersAndInvoices(t *testing.T) {
	f := newFixture(t)
	token := f.adminToken(t)

	rec := f.do(t, http.MethodPost, "/api/admin/members", token, map[string]string{"email": "new@example.com", "name": "New Learner"})
	var res services.MemberResult
	decode(t, rec, &res)
	if rec.Code != http.StatusCreated || res.Member == nil || len(res.Effects) == 0 {
		t.Fatalf("create member: got=%d body=%s", rec.Code, rec.Body.String())
	}
	if rec := f.do(t, http.MethodPost, "/api/admin/members", token, map[string]string{"email": "NEW@example.com"}); rec.Code != http.StatusConflict {
		t.Fatalf("duplicate member: got=%d want=409", rec.Code)
	}
	if rec := f.do(t, http.MethodPost, "/api/admin/members", token, map[string]string{"email": "not-an-email"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid email: got=%d want=400", rec.Code)
	}
	if rec := f.do(t, http.MethodGet, "/api/admin/members/"+res.Member.ID, token, nil); rec.Code != http.StatusOK {
		t.Fatalf("get member: got=%d", rec.Code)
	}
	rec = f.do(t, http.MethodPut, "/api/admin/members/"+res.Member.ID, token, map[string]string{"email": "Renamed@Example.com"})
	var upd services.MemberResult
	decode(t, rec, &upd)
	if rec.Code != http.StatusOK || upd.Member == nil || upd.Member.Email != "renamed@example.com" {
		t.Fatalf("update member: got=%d body=%s", rec.Code, rec.Body.String())
	}
	if e, ok := upd.Get(services.EffectAuthAccount); !ok || e.Status != "skipped" {
		t.Fatalf("update side effects: %+v", upd.Effects)
	}
	if rec := f.do(t, http.MethodDelete, "/api/admin/members/"+res.Member.ID, token, nil); rec.Code != http.StatusOK {
		t.Fatalf("delete member: got=%d", rec.Code)
	}

	if rec := f.do(t, http.MethodGet, "/api/admin/invoices", token, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing month: got=%d want=400", rec.Code)
	}
	if rec := f.do(t, http.MethodGet, "/api/admin/invoices?month=2025-13", token, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad month: got=%d want=400", rec.Code)
	}
	rec = f.do(t, http.MethodGet, "/api/admin/invoices?month=2025-01", token, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"month":"2025-01"`) {
		t.Fatalf("report: got=%d body=%s", rec.Code, rec.Body.String())
	}
	if rec := f.do(t, http.MethodPost, "/api/admin/invoices/send?month=2025-01", token, nil); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("send without mailer: got=%d want=503", rec.Code)
	}
}
