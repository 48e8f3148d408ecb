package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/allbound-backend/internal/clients/supabase"
	"github.com/yungbote/allbound-backend/internal/data/repos"
	repocommerce "github.com/yungbote/allbound-backend/internal/data/repos/commerce"
	"github.com/yungbote/allbound-backend/internal/domain/commerce"
	"github.com/yungbote/allbound-backend/internal/observability"
	"github.com/yungbote/allbound-backend/internal/platform/apierr"
	"github.com/yungbote/allbound-backend/internal/platform/logger"
	"github.com/yungbote/allbound-backend/internal/platform/outcome"
	"github.com/yungbote/allbound-backend/internal/platform/sendgrid"
)

// Side effects recorded on member provisioning.
const (
	EffectAuthAccount  = "auth_account"
	EffectProgressRow  = "progress_row"
	EffectWelcomeEmail = "welcome_email"
	EffectCRMContact   = "crm_contact"
)

type MemberInput struct {
	Email     string         `json:"email" validate:"required,email,max=254"`
	Name      string         `json:"name" validate:"max=200"`
	Phone     string         `json:"phone" validate:"max=32"`
	Country   string         `json:"country" validate:"omitempty,len=2"`
	Region    string         `json:"region" validate:"omitempty,oneof=INDIA SAARC INTERNATIONAL"`
	Source    string         `json:"-"`
	PaymentID string         `json:"-"`
	Metadata  map[string]any `json:"metadata"`
}

type MemberUpdate struct {
	Email   *string `json:"email" validate:"omitempty,email,max=254"`
	Name    *string `json:"name" validate:"omitempty,max=200"`
	Phone   *string `json:"phone" validate:"omitempty,max=32"`
	Country *string `json:"country" validate:"omitempty,len=2"`
	Region  *string `json:"region" validate:"omitempty,oneof=INDIA SAARC INTERNATIONAL"`
	Status  *string `json:"status" validate:"omitempty,oneof=active disabled"`
}

type MemberResult struct {
	Member  *commerce.Member `json:"member"`
	Created bool             `json:"created"`
	outcome.Outcome
}

type MemberConfig struct {
	WelcomeTemplateID string
	LoginURL          string
	SetPasswordURL    string
}

type MemberService interface {
	List(ctx context.Context) ([]*commerce.Member, error)
	Get(ctx context.Context, id string) (*commerce.Member, error)
	// Create fails with 409 when the email is already a member.
	Create(ctx context.Context, in MemberInput) (*MemberResult, error)
	// Provision is Create for the checkout path: an existing member is
	// returned as is.
	Provision(ctx context.Context, in MemberInput) (*MemberResult, error)
	// Update changes the member row. An email change is carried to the
	// linked auth account, best effort.
	Update(ctx context.Context, id string, in MemberUpdate) (*MemberResult, error)
	Delete(ctx context.Context, id string) (*outcome.Outcome, error)
}

type memberService struct {
	db       *gorm.DB
	log      *logger.Logger
	cfg      MemberConfig
	members  repos.MemberRepo
	progress ProgressService
	auth     supabase.AuthAdmin
	mailer   sendgrid.Mailer
}

// NewMemberService wires member provisioning. auth and mailer may be nil,
// in which case their side effects are recorded as skipped.
func NewMemberService(
	db *gorm.DB,
	baseLog *logger.Logger,
	cfg MemberConfig,
	memberRepo repos.MemberRepo,
	progressSvc ProgressService,
	auth supabase.AuthAdmin,
	mailer sendgrid.Mailer,
) MemberService {
	return &memberService{
		db:       db,
		log:      baseLog.With("service", "MemberService"),
		cfg:      cfg,
		members:  memberRepo,
		progress: progressSvc,
		auth:     auth,
		mailer:   mailer,
	}
}

func (s *memberService) List(ctx context.Context) ([]*commerce.Member, error) {
	out, err := s.members.List(ctx, nil)
	if err != nil {
		return nil, apierr.FromDB("members", err)
	}
	return out, nil
}

func (s *memberService) Get(ctx context.Context, id string) (*commerce.Member, error) {
	m, err := s.members.GetByID(ctx, nil, strings.TrimSpace(id))
	if err != nil {
		return nil, apierr.FromDB("member", err)
	}
	return m, nil
}

func (s *memberService) Create(ctx context.Context, in MemberInput) (*MemberResult, error) {
	if in.Source == "" {
		in.Source = commerce.MemberSourceAdmin
	}
	return s.create(ctx, in)
}

func (s *memberService) Provision(ctx context.Context, in MemberInput) (*MemberResult, error) {
	if in.Source == "" {
		in.Source = commerce.MemberSourceCheckout
	}
	existing, err := s.members.GetByEmail(ctx, nil, in.Email)
	if err == nil {
		res := &MemberResult{Member: existing}
		res.Skip(EffectAuthAccount, "already a member")
		return res, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierr.FromDB("member", err)
	}
	res, err := s.create(ctx, in)
	if apierr.StatusOf(err) == http.StatusConflict {
		// Lost a race with a concurrent provisioning of the same email.
		m, gerr := s.members.GetByEmail(ctx, nil, in.Email)
		if gerr != nil {
			return nil, apierr.FromDB("member", gerr)
		}
		res = &MemberResult{Member: m}
		res.Skip(EffectAuthAccount, "already a member")
		return res, nil
	}
	return res, err
}

func (s *memberService) create(ctx context.Context, in MemberInput) (*MemberResult, error) {
	in.Email = repocommerce.NormalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	in.Country = strings.ToUpper(strings.TrimSpace(in.Country))
	in.Region = strings.ToUpper(strings.TrimSpace(in.Region))
	if err := validateInput(in); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	m := &commerce.Member{
		ID:        uuid.NewString(),
		Email:     in.Email,
		Name:      in.Name,
		Phone:     strings.TrimSpace(in.Phone),
		Country:   in.Country,
		Source:    in.Source,
		Status:    commerce.MemberStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.Region != "" {
		m.Region, _ = commerce.ParseRegion(in.Region)
	}
	if in.PaymentID != "" {
		pid := in.PaymentID
		m.PaymentID = &pid
	}
	if len(in.Metadata) > 0 {
		m.Metadata = datatypes.JSONMap(in.Metadata)
	}

	created, err := s.members.Create(ctx, nil, m)
	if err != nil {
		return nil, apierr.FromDB("member", err)
	}
	s.log.Info("Member created", "member_id", created.ID, "source", created.Source)

	res := &MemberResult{Member: created, Created: true}
	s.provisionAccount(ctx, res)
	s.sendWelcome(ctx, res)
	s.syncContact(ctx, res)
	recordEffects(&res.Outcome)
	if res.Partial() {
		s.log.Warn("Member created with failed side effects", "member_id", created.ID, "failed", res.Failed())
	}
	return res, nil
}

func (s *memberService) provisionAccount(ctx context.Context, res *MemberResult) {
	m := res.Member
	if s.auth == nil {
		res.Skip(EffectAuthAccount, "identity provider not configured")
		res.Skip(EffectProgressRow, "no auth account")
		return
	}
	user, err := s.auth.CreateUser(ctx, supabase.CreateUserRequest{
		Email:        m.Email,
		EmailConfirm: true,
		UserMetadata: map[string]any{"name": m.Name, "member_id": m.ID},
	})
	if errors.Is(err, supabase.ErrUserExists) {
		res.Skip(EffectAuthAccount, "account already exists")
		res.Skip(EffectProgressRow, "account already exists")
		return
	}
	if err != nil {
		res.Record(EffectAuthAccount, err)
		res.Skip(EffectProgressRow, "no auth account")
		return
	}
	authID := user.ID
	if err := s.members.Update(ctx, nil, m.ID, map[string]any{"auth_user_id": authID}); err != nil {
		res.Record(EffectAuthAccount, err)
	} else {
		m.AuthUserID = &authID
		res.Record(EffectAuthAccount, nil)
	}
	res.Record(EffectProgressRow, s.progress.Init(ctx, authID))
}

func (s *memberService) sendWelcome(ctx context.Context, res *MemberResult) {
	m := res.Member
	if s.mailer == nil {
		res.Skip(EffectWelcomeEmail, "mailer not configured")
		return
	}
	data := map[string]any{
		"first_name": m.FirstName(),
		"login_url":  s.cfg.LoginURL,
	}
	if s.auth != nil && m.AuthUserID != nil {
		link, err := s.auth.RecoveryLink(ctx, m.Email, s.cfg.SetPasswordURL)
		if err != nil {
			s.log.Warn("Set-password link unavailable", "error", err, "member_id", m.ID)
		} else {
			data["set_password_url"] = link
		}
	}
	msg := sendgrid.Message{
		To:         sendgrid.Address{Email: m.Email, Name: m.Name},
		TemplateID: s.cfg.WelcomeTemplateID,
		Data:       data,
		Categories: []string{"welcome"},
	}
	if msg.TemplateID == "" {
		msg.Subject = "Welcome to Allbound"
		msg.Text = welcomeText(m.FirstName(), data)
	}
	_, err := s.mailer.Send(ctx, msg)
	res.Record(EffectWelcomeEmail, err)
}

func welcomeText(firstName string, data map[string]any) string {
	var b strings.Builder
	b.WriteString("Hi")
	if firstName != "" {
		b.WriteString(" " + firstName)
	}
	b.WriteString(",\n\nYour Allbound course access is ready.\n")
	if link, ok := data["set_password_url"].(string); ok && link != "" {
		b.WriteString("Set your password here: " + link + "\n")
	}
	if login, ok := data["login_url"].(string); ok && login != "" {
		b.WriteString("Sign in at " + login + "\n")
	}
	return b.String()
}

func (s *memberService) syncContact(ctx context.Context, res *MemberResult) {
	if s.mailer == nil {
		res.Skip(EffectCRMContact, "mailer not configured")
		return
	}
	m := res.Member
	first, last := splitName(m.Name)
	res.Record(EffectCRMContact, s.mailer.UpsertContact(ctx, sendgrid.Contact{
		Email:     m.Email,
		FirstName: first,
		LastName:  last,
		Phone:     m.Phone,
		Country:   m.Country,
	}))
}

func splitName(name string) (string, string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}

func (s *memberService) Update(ctx context.Context, id string, in MemberUpdate) (*MemberResult, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	current, err := s.members.GetByID(ctx, nil, id)
	if err != nil {
		return nil, apierr.FromDB("member", err)
	}
	updates := map[string]any{}
	emailChanged := false
	if in.Email != nil {
		email := repocommerce.NormalizeEmail(*in.Email)
		updates["email"] = email
		emailChanged = email != current.Email
	}
	if in.Name != nil {
		updates["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Phone != nil {
		updates["phone"] = strings.TrimSpace(*in.Phone)
	}
	if in.Country != nil {
		updates["country"] = strings.ToUpper(strings.TrimSpace(*in.Country))
	}
	if in.Region != nil {
		r, _ := commerce.ParseRegion(*in.Region)
		updates["region"] = r
	}
	if in.Status != nil {
		updates["status"] = *in.Status
	}
	if len(updates) == 0 {
		return nil, apierr.BadRequest("no fields to update")
	}
	if err := s.members.Update(ctx, nil, id, updates); err != nil {
		return nil, apierr.FromDB("member", err)
	}
	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	res := &MemberResult{Member: m}
	if emailChanged {
		switch {
		case m.AuthUserID == nil || *m.AuthUserID == "":
			res.Skip(EffectAuthAccount, "no auth account")
		case s.auth == nil:
			res.Skip(EffectAuthAccount, "identity provider not configured")
		default:
			res.Record(EffectAuthAccount, s.auth.UpdateUserEmail(ctx, *m.AuthUserID, m.Email))
		}
		recordEffects(&res.Outcome)
		if res.Partial() {
			s.log.Warn("Member email changed but auth account was not updated", "member_id", m.ID, "failed", res.Failed())
		}
	}
	return res, nil
}

// Delete removes the member row, then the auth account, best effort.
// Stored progress is kept so a re-added member resumes where they left off.
func (s *memberService) Delete(ctx context.Context, id string) (*outcome.Outcome, error) {
	m, err := s.members.GetByID(ctx, nil, id)
	if err != nil {
		return nil, apierr.FromDB("member", err)
	}
	if err := s.members.Delete(ctx, nil, id); err != nil {
		return nil, apierr.FromDB("member", err)
	}
	s.log.Info("Member deleted", "member_id", id)

	out := &outcome.Outcome{}
	switch {
	case m.AuthUserID == nil || *m.AuthUserID == "":
		out.Skip(EffectAuthAccount, "no auth account")
	case s.auth == nil:
		out.Skip(EffectAuthAccount, "identity provider not configured")
	default:
		out.Record(EffectAuthAccount, s.auth.DeleteUser(ctx, *m.AuthUserID))
	}
	recordEffects(out)
	return out, nil
}

func recordEffects(o *outcome.Outcome) {
	for _, e := range o.Effects {
		observability.Current().IncSideEffect(e.Name, string(e.Status))
	}
}
