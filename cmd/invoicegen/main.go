package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/yungbote/allbound-backend/internal/app"
	"github.com/yungbote/allbound-backend/internal/commerce/invoice"
	"github.com/yungbote/allbound-backend/internal/platform/logger"
)

func main() {
	var month string
	var send bool
	flag.StringVar(&month, "month", "", "invoice month, YYYY-MM (defaults to the previous month in IST)")
	flag.BoolVar(&send, "send", false, "render, archive and email unsent invoices instead of printing the report")
	flag.Parse()

	m := invoice.MonthOf(time.Now()).Previous()
	if month != "" {
		parsed, err := invoice.ParseMonth(month)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(2)
		}
		m = parsed
	}

	log, err := logger.New("production")
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	ctx := context.Background()
	application, err := app.NewWithoutHTTP(ctx, log, app.LoadConfig(log))
	if err != nil {
		fmt.Fprintf(os.Stderr, "init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	var out any
	if send {
		out, err = application.Services.Invoice.Send(ctx, m)
	} else {
		out, err = application.Services.Invoice.Report(ctx, m)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "invoices %s: %v\n", m, err)
		application.Close()
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "encode: %v\n", err)
		application.Close()
		os.Exit(1)
	}
}
