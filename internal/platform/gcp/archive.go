package gcp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/allbound-backend/internal/platform/envutil"
	"github.com/yungbote/allbound-backend/internal/platform/logger"
)

type StorageMode string

const (
	StorageModeGCS         StorageMode = "gcs"
	StorageModeGCSEmulator StorageMode = "gcs_emulator"
)

// InvoiceArchive keeps rendered invoice documents in a bucket.
type InvoiceArchive interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	URL(key string) string
}

type ArchiveConfig struct {
	Bucket        string
	Prefix        string
	Mode          StorageMode
	EmulatorHost  string
	PublicBaseURL string
}

func ArchiveConfigFromEnv() ArchiveConfig {
	cfg := ArchiveConfig{
		Bucket:        envutil.String("INVOICE_GCS_BUCKET_NAME", ""),
		Prefix:        envutil.String("INVOICE_GCS_PREFIX", "invoices"),
		Mode:          StorageMode(strings.ToLower(envutil.String("OBJECT_STORAGE_MODE", ""))),
		EmulatorHost:  envutil.String("STORAGE_EMULATOR_HOST", ""),
		PublicBaseURL: envutil.String("OBJECT_STORAGE_PUBLIC_BASE_URL", ""),
	}
	if cfg.Mode == "" {
		cfg.Mode = StorageModeGCS
		if cfg.EmulatorHost != "" {
			cfg.Mode = StorageModeGCSEmulator
		}
	}
	return cfg
}

func (cfg ArchiveConfig) Validate() error {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return fmt.Errorf("missing INVOICE_GCS_BUCKET_NAME")
	}
	switch cfg.Mode {
	case StorageModeGCS:
		return nil
	case StorageModeGCSEmulator:
		u, err := url.Parse(strings.TrimSpace(cfg.EmulatorHost))
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid STORAGE_EMULATOR_HOST=%q; expected absolute URL like http://fake-gcs:4443", cfg.EmulatorHost)
		}
		return nil
	default:
		return fmt.Errorf("invalid OBJECT_STORAGE_MODE=%q (allowed: %q, %q)", cfg.Mode, StorageModeGCS, StorageModeGCSEmulator)
	}
}

type invoiceArchive struct {
	log    *logger.Logger
	client *storage.Client
	cfg    ArchiveConfig
}

func NewInvoiceArchive(ctx context.Context, log *logger.Logger, cfg ArchiveConfig) (InvoiceArchive, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.EmulatorHost = strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/")
	cfg.PublicBaseURL = strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/")
	cfg.Prefix = strings.Trim(strings.TrimSpace(cfg.Prefix), "/")

	var opts []option.ClientOption
	if cfg.Mode == StorageModeGCSEmulator {
		_ = os.Setenv("STORAGE_EMULATOR_HOST", cfg.EmulatorHost)
		opts = append(opts, option.WithoutAuthentication())
	} else {
		opts = append(ClientOptionsFromEnv(), option.WithScopes(storage.ScopeReadWrite))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	archiveLog := log.With("service", "InvoiceArchive")
	archiveLog.Info("Invoice archive initialized", "bucket", cfg.Bucket, "mode", cfg.Mode, "prefix", cfg.Prefix)
	return &invoiceArchive{log: archiveLog, client: client, cfg: cfg}, nil
}

func (a *invoiceArchive) objectName(key string) string {
	return ObjectName(a.cfg.Prefix, key)
}

// ObjectName joins the archive prefix and a key into a bucket object name.
func ObjectName(prefix, key string) string {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return key
	}
	return path.Join(prefix, key)
}

func (a *invoiceArchive) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	name := a.objectName(key)
	w := a.client.Bucket(a.cfg.Bucket).Object(name).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close writer for %s: %w", name, err)
	}
	a.log.Debug("Invoice archived", "object", name, "bytes", len(data))
	return a.URL(key), nil
}

func (a *invoiceArchive) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	r, err := a.client.Bucket(a.cfg.Bucket).Object(a.objectName(key)).NewReader(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (a *invoiceArchive) URL(key string) string {
	return PublicURL(a.cfg, key)
}

func PublicURL(cfg ArchiveConfig, key string) string {
	name := ObjectName(cfg.Prefix, key)
	base := strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/")
	if cfg.Mode == StorageModeGCSEmulator {
		if base == "" {
			base = strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/")
		}
		return fmt.Sprintf("%s/storage/v1/b/%s/o/%s?alt=media", base, cfg.Bucket, url.PathEscape(name))
	}
	if base != "" {
		return fmt.Sprintf("%s/%s/%s", base, cfg.Bucket, name)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", cfg.Bucket, name)
}
