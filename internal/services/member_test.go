package services

import (
	"context"
	"errors"
	"testing"

	"github.com/yungbote/allbound-backend/internal/clients/supabase"
	"github.com/yungbote/allbound-backend/internal/data/repos/testutil"
	"github.com/yungbote/allbound-backend/internal/domain/commerce"
	"github.com/yungbote/allbound-backend/internal/platform/apierr"
	"github.com/yungbote/allbound-backend/internal/platform/outcome"
)

func newMemberService(t *testing.T, env *testEnv, auth supabase.AuthAdmin, mailer *fakeMailer) MemberService {
	t.Helper()
	progressSvc := NewProgressService(env.db, testutil.Logger(t), env.seededContent(t), env.progress)
	cfg := MemberConfig{LoginURL: "https://allbound.test/login", SetPasswordURL: "https://allbound.test/set-password"}
	if mailer == nil {
		return NewMemberService(env.db, testutil.Logger(t), cfg, env.members, progressSvc, auth, nil)
	}
	return NewMemberService(env.db, testutil.Logger(t), cfg, env.members, progressSvc, auth, mailer)
}

func effectStatus(t *testing.T, o *outcome.Outcome, name string) outcome.Status {
	t.Helper()
	e, ok := o.Get(name)
	if !ok {
		t.Fatalf("effect %s not recorded: %+v", name, o.Effects)
	}
	return e.Status
}

func TestMemberCreateRunsAllSideEffects(t *testing.T) {
	env := newTestEnv(t)
	auth := newFakeAuth()
	mailer := &fakeMailer{}
	svc := newMemberService(t, env, auth, mailer)
	ctx := context.Background()

	res, err := svc.Create(ctx, MemberInput{Email: " Priya@Example.com ", Name: "Priya Raman", Country: "in"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !res.Created || res.Partial() {
		t.Fatalf("result: created=%v failed=%v", res.Created, res.Failed())
	}
	m := res.Member
	if m.Email != "priya@example.com" || m.Country != "IN" || m.Source != commerce.MemberSourceAdmin {
		t.Fatalf("member: %+v", m)
	}
	for _, name := range []string{EffectAuthAccount, EffectProgressRow, EffectWelcomeEmail, EffectCRMContact} {
		if got := effectStatus(t, &res.Outcome, name); got != outcome.StatusOK {
			t.Fatalf("%s: got=%s want=ok", name, got)
		}
	}

	stored, err := env.members.GetByEmail(ctx, nil, "priya@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if stored.AuthUserID == nil || *stored.AuthUserID != auth.users["priya@example.com"] {
		t.Fatalf("auth user id not stored: %+v", stored.AuthUserID)
	}
	if _, err := env.progress.Get(ctx, nil, *stored.AuthUserID); err != nil {
		t.Fatalf("progress row not created: %v", err)
	}
	if len(mailer.sent) != 1 || mailer.sent[0].To.Email != "priya@example.com" {
		t.Fatalf("welcome email: %+v", mailer.sent)
	}
	if link, _ := mailer.sent[0].Data["set_password_url"].(string); link == "" {
		t.Fatalf("welcome email missing set-password link: %+v", mailer.sent[0].Data)
	}
	if len(mailer.contacts) != 1 || mailer.contacts[0].FirstName != "Priya" || mailer.contacts[0].LastName != "Raman" {
		t.Fatalf("contact: %+v", mailer.contacts)
	}
}

func TestMemberCreateDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	svc := newMemberService(t, env, nil, nil)
	ctx := context.Background()

	if _, err := svc.Create(ctx, MemberInput{Email: "dup@example.com"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err := svc.Create(ctx, MemberInput{Email: "DUP@example.com"})
	if apierr.StatusOf(err) != 409 {
		t.Fatalf("duplicate: got=%v want 409", err)
	}
}

func TestMemberCreateReportsPartialFailure(t *testing.T) {
	env := newTestEnv(t)
	auth := newFakeAuth()
	auth.createErr = errors.New("identity provider down")
	mailer := &fakeMailer{sendErr: errors.New("smtp down")}
	svc := newMemberService(t, env, auth, mailer)

	res, err := svc.Create(context.Background(), MemberInput{Email: "partial@example.com", Name: "Sam"})
	if err != nil {
		t.Fatalf("primary write must succeed: %v", err)
	}
	if !res.Partial() {
		t.Fatalf("expected partial outcome: %+v", res.Effects)
	}
	if got := effectStatus(t, &res.Outcome, EffectAuthAccount); got != outcome.StatusFailed {
		t.Fatalf("auth: got=%s want=failed", got)
	}
	if got := effectStatus(t, &res.Outcome, EffectProgressRow); got != outcome.StatusSkipped {
		t.Fatalf("progress: got=%s want=skipped", got)
	}
	if got := effectStatus(t, &res.Outcome, EffectWelcomeEmail); got != outcome.StatusFailed {
		t.Fatalf("welcome: got=%s want=failed", got)
	}
	if got := effectStatus(t, &res.Outcome, EffectCRMContact); got != outcome.StatusOK {
		t.Fatalf("crm: got=%s want=ok", got)
	}
	if _, err := env.members.GetByEmail(context.Background(), nil, "partial@example.com"); err != nil {
		t.Fatalf("member row missing after partial failure: %v", err)
	}
}

func TestMemberCreateWithoutCollaborators(t *testing.T) {
	env := newTestEnv(t)
	svc := newMemberService(t, env, nil, nil)

	res, err := svc.Create(context.Background(), MemberInput{Email: "solo@example.com"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if res.Partial() {
		t.Fatalf("skipped effects are not failures: %v", res.Failed())
	}
	for _, name := range []string{EffectAuthAccount, EffectProgressRow, EffectWelcomeEmail, EffectCRMContact} {
		if got := effectStatus(t, &res.Outcome, name); got != outcome.StatusSkipped {
			t.Fatalf("%s: got=%s want=skipped", name, got)
		}
	}
}

func TestMemberCreateValidation(t *testing.T) {
	env := newTestEnv(t)
	svc := newMemberService(t, env, nil, nil)

	cases := []MemberInput{
		{Email: ""},
		{Email: "not-an-email"},
		{Email: "a@example.com", Country: "IND"},
		{Email: "a@example.com", Region: "MARS"},
	}
	for _, in := range cases {
		if _, err := svc.Create(context.Background(), in); apierr.StatusOf(err) != 400 {
			t.Fatalf("Create(%+v): got=%v want 400", in, err)
		}
	}
}

func TestMemberProvisionExisting(t *testing.T) {
	env := newTestEnv(t)
	auth := newFakeAuth()
	mailer := &fakeMailer{}
	svc := newMemberService(t, env, auth, mailer)
	ctx := context.Background()

	first, err := svc.Provision(ctx, MemberInput{Email: "buyer@example.com", Name: "Buyer", PaymentID: "pay_1"})
	if err != nil {
		t.Fatalf("Provision: %v", err)
	}
	if !first.Created || first.Member.Source != commerce.MemberSourceCheckout {
		t.Fatalf("first: %+v", first.Member)
	}
	if first.Member.PaymentID == nil || *first.Member.PaymentID != "pay_1" {
		t.Fatalf("payment id: %+v", first.Member.PaymentID)
	}

	again, err := svc.Provision(ctx, MemberInput{Email: "Buyer@example.com", PaymentID: "pay_2"})
	if err != nil {
		t.Fatalf("Provision again: %v", err)
	}
	if again.Created || again.Member.ID != first.Member.ID {
		t.Fatalf("second provision created a member: %+v", again)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("welcome email resent: %d", len(mailer.sent))
	}
}

func TestMemberUpdateAndDelete(t *testing.T) {
	env := newTestEnv(t)
	auth := newFakeAuth()
	svc := newMemberService(t, env, auth, nil)
	ctx := context.Background()

	res, err := svc.Create(ctx, MemberInput{Email: "edit@example.com"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	id := res.Member.ID

	disabled := "disabled"
	name := "  Edited Name "
	upd, err := svc.Update(ctx, id, MemberUpdate{Status: &disabled, Name: &name})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if m := upd.Member; m.Status != commerce.MemberStatusDisabled || m.Name != "Edited Name" {
		t.Fatalf("updated: %+v", m)
	}
	bogus := "banned"
	if _, err := svc.Update(ctx, id, MemberUpdate{Status: &bogus}); apierr.StatusOf(err) != 400 {
		t.Fatalf("bad status: got=%v want 400", err)
	}
	if _, err := svc.Update(ctx, id, MemberUpdate{}); apierr.StatusOf(err) != 400 {
		t.Fatalf("empty update: got=%v want 400", err)
	}
	if _, err := svc.Update(ctx, "missing", MemberUpdate{Name: &name}); apierr.StatusOf(err) != 404 {
		t.Fatalf("unknown member: got=%v want 404", err)
	}

	out, err := svc.Delete(ctx, id)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got := effectStatus(t, out, EffectAuthAccount); got != outcome.StatusOK {
		t.Fatalf("auth delete: got=%s", got)
	}
	if len(auth.deleted) != 1 || auth.deleted[0] != auth.users["edit@example.com"] {
		t.Fatalf("deleted auth users: %v", auth.deleted)
	}
	if _, err := svc.Get(ctx, id); apierr.StatusOf(err) != 404 {
		t.Fatalf("Get after delete: got=%v want 404", err)
	}
	if _, err := svc.Delete(ctx, id); apierr.StatusOf(err) != 404 {
		t.Fatalf("Delete twice: got=%v want 404", err)
	}
}

func TestMemberUpdateEmailMovesAuthAccount(t *testing.T) {
	env := newTestEnv(t)
	auth := newFakeAuth()
	svc := newMemberService(t, env, auth, nil)
	ctx := context.Background()

	res, err := svc.Create(ctx, MemberInput{Email: "old@example.com"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	id := res.Member.ID
	authID := auth.users["old@example.com"]

	email := " New@Example.com "
	upd, err := svc.Update(ctx, id, MemberUpdate{Email: &email})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if upd.Member.Email != "new@example.com" {
		t.Fatalf("member email: got=%s want=new@example.com", upd.Member.Email)
	}
	if got := effectStatus(t, &upd.Outcome, EffectAuthAccount); got != outcome.StatusOK {
		t.Fatalf("auth update: got=%s", got)
	}
	if auth.users["new@example.com"] != authID {
		t.Fatalf("auth users: %v", auth.users)
	}

	name := "Same Email"
	upd, err = svc.Update(ctx, id, MemberUpdate{Email: &upd.Member.Email, Name: &name})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(upd.Effects) != 0 {
		t.Fatalf("unchanged email touched auth: %+v", upd.Effects)
	}

	auth.updateErr = errors.New("auth down")
	moved := "moved@example.com"
	upd, err = svc.Update(ctx, id, MemberUpdate{Email: &moved})
	if err != nil {
		t.Fatalf("Update with auth failure: %v", err)
	}
	if upd.Member.Email != "moved@example.com" {
		t.Fatalf("member row not updated: %+v", upd.Member)
	}
	if got := effectStatus(t, &upd.Outcome, EffectAuthAccount); got != outcome.StatusFailed {
		t.Fatalf("auth update failure: got=%s want=%s", got, outcome.StatusFailed)
	}
}
