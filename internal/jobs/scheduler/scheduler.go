package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/yungbote/allbound-backend/internal/commerce/invoice"
	"github.com/yungbote/allbound-backend/internal/observability"
	"github.com/yungbote/allbound-backend/internal/platform/logger"
	"github.com/yungbote/allbound-backend/internal/services"
)

const (
	DefaultInvoiceSpec = "0 6 1 * *"

	jobInvoiceSend = "invoice_send"
	runTimeout     = 30 * time.Minute
)

// ErrRunInProgress is returned by RunInvoices while another run is active.
var ErrRunInProgress = errors.New("invoice run already in progress")

type Config struct {
	// InvoiceAutoSend schedules the monthly invoice run.
	InvoiceAutoSend bool
	// InvoiceSpec is a five-field cron expression evaluated in IST.
	InvoiceSpec string
}

type Scheduler struct {
	log      *logger.Logger
	cron     *cron.Cron
	invoices services.InvoiceService
	now      func() time.Time

	mu      sync.Mutex
	running bool
}

func New(baseLog *logger.Logger, cfg Config, invoices services.InvoiceService) (*Scheduler, error) {
	log := baseLog.With("component", "Scheduler")
	c := cron.New(
		cron.WithLocation(invoice.IST),
		cron.WithChain(cron.Recover(cronLogger{log: log})),
	)
	s := &Scheduler{log: log, cron: c, invoices: invoices, now: time.Now}

	if cfg.InvoiceAutoSend {
		if invoices == nil {
			return nil, fmt.Errorf("invoice autosend needs an invoice service")
		}
		spec := strings.TrimSpace(cfg.InvoiceSpec)
		if spec == "" {
			spec = DefaultInvoiceSpec
		}
		if _, err := c.AddFunc(spec, func() { s.RunInvoices(context.Background()) }); err != nil {
			return nil, fmt.Errorf("invalid INVOICE_CRON %q: %w", spec, err)
		}
		log.Info("Invoice autosend scheduled", "spec", spec, "zone", invoice.IST.String())
	}
	return s, nil
}

// Jobs reports how many entries are scheduled.
func (s *Scheduler) Jobs() int { return len(s.cron.Entries()) }

// Start runs the scheduler until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	if s.Jobs() == 0 {
		return
	}
	s.cron.Start()
	go func() {
		<-ctx.Done()
		<-s.cron.Stop().Done()
		s.log.Info("Scheduler stopped")
	}()
}

// RunInvoices sends the invoices of the month before now. An overlapping
// call is skipped with ErrRunInProgress.
func (s *Scheduler) RunInvoices(ctx context.Context) (*services.SendResult, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.log.Warn("Invoice run already in progress; skipping")
		return nil, ErrRunInProgress
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	month := invoice.MonthOf(s.now()).Previous()
	start := time.Now()
	res, err := s.invoices.Send(ctx, month)
	status := "ok"
	switch {
	case err != nil:
		status = "failed"
		s.log.Error("Invoice run failed", "month", month.String(), "error", err)
	case len(res.Failed) > 0:
		status = "partial"
		s.log.Warn("Invoice run finished with failures", "month", month.String(), "sent", len(res.Sent), "failed", len(res.Failed))
	default:
		s.log.Info("Invoice run finished", "month", month.String(), "sent", len(res.Sent))
	}
	observability.Current().ObserveJob(jobInvoiceSend, status, time.Since(start))
	return res, err
}

// cronLogger routes cron's own messages through the service logger.
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
