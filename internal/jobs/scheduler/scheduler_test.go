package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yungbote/allbound-backend/internal/commerce/invoice"
	"github.com/yungbote/allbound-backend/internal/platform/logger"
	"github.com/yungbote/allbound-backend/internal/services"
)

type fakeInvoices struct {
	months  []invoice.Month
	err     error
	failed  []services.InvoiceFailure
	started chan struct{}
	release chan struct{}
}

func (f *fakeInvoices) Report(ctx context.Context, month invoice.Month) (*invoice.Report, error) {
	return &invoice.Report{Month: month.String()}, nil
}

func (f *fakeInvoices) Send(ctx context.Context, month invoice.Month) (*services.SendResult, error) {
	f.months = append(f.months, month)
	if f.started != nil {
		close(f.started)
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	return &services.SendResult{Month: month.String(), Failed: f.failed}, nil
}

func TestNewSchedulesOnlyWhenEnabled(t *testing.T) {
	s, err := New(logger.Nop(), Config{}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s.Jobs() != 0 {
		t.Fatalf("jobs: got=%d want=0", s.Jobs())
	}

	s, err = New(logger.Nop(), Config{InvoiceAutoSend: true}, &fakeInvoices{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s.Jobs() != 1 {
		t.Fatalf("jobs: got=%d want=1", s.Jobs())
	}
	next := s.cron.Entries()[0].Schedule.Next(time.Date(2025, 1, 15, 0, 0, 0, 0, invoice.IST))
	if want := time.Date(2025, 2, 1, 6, 0, 0, 0, invoice.IST); !next.Equal(want) {
		t.Fatalf("next run: got=%v want=%v", next, want)
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	if _, err := New(logger.Nop(), Config{InvoiceAutoSend: true, InvoiceSpec: "every day"}, &fakeInvoices{}); err == nil {
		t.Fatalf("expected error for invalid spec")
	}
	if _, err := New(logger.Nop(), Config{InvoiceAutoSend: true}, nil); err == nil {
		t.Fatalf("expected error without invoice service")
	}
}

func TestRunInvoicesSendsPreviousMonth(t *testing.T) {
	cases := []struct {
		name string
		now  time.Time
		want string
	}{
		{"first of month IST", time.Date(2025, 2, 1, 6, 0, 0, 0, invoice.IST), "2025-01"},
		{"utc evening already next month in IST", time.Date(2025, 2, 28, 19, 0, 0, 0, time.UTC), "2025-02"},
		{"january wraps to december", time.Date(2025, 1, 1, 6, 0, 0, 0, invoice.IST), "2024-12"},
	}
	for _, tc := range cases {
		f := &fakeInvoices{}
		s, _ := New(logger.Nop(), Config{}, f)
		s.now = func() time.Time { return tc.now }
		if _, err := s.RunInvoices(context.Background()); err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if len(f.months) != 1 || f.months[0].String() != tc.want {
			t.Fatalf("%s: got=%v want=%s", tc.name, f.months, tc.want)
		}
	}
}

func TestRunInvoicesReportsErrors(t *testing.T) {
	f := &fakeInvoices{err: errors.New("db down")}
	s, _ := New(logger.Nop(), Config{}, f)
	if _, err := s.RunInvoices(context.Background()); err == nil {
		t.Fatalf("expected error")
	}

	f = &fakeInvoices{failed: []services.InvoiceFailure{{Number: "INV-B2C-202501-001", Step: "email"}}}
	s, _ = New(logger.Nop(), Config{}, f)
	res, err := s.RunInvoices(context.Background())
	if err != nil || res == nil || len(res.Failed) != 1 {
		t.Fatalf("partial run: res=%+v err=%v", res, err)
	}
}

func TestRunInvoicesSkipsOverlappingRun(t *testing.T) {
	f := &fakeInvoices{started: make(chan struct{}), release: make(chan struct{})}
	s, _ := New(logger.Nop(), Config{}, f)

	done := make(chan error, 1)
	go func() {
		_, err := s.RunInvoices(context.Background())
		done <- err
	}()
	<-f.started

	res, err := s.RunInvoices(context.Background())
	if !errors.Is(err, ErrRunInProgress) || res != nil {
		t.Fatalf("overlapping run: got=%v,%v want=ErrRunInProgress", res, err)
	}
	close(f.release)
	if err := <-done; err != nil {
		t.Fatalf("first run: %v", err)
	}
	if len(f.months) != 1 {
		t.Fatalf("send calls: got=%d want=1", len(f.months))
	}
}
