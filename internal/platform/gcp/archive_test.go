package gcp

import (
	"testing"
)

func TestArchiveConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     ArchiveConfig
		wantErr bool
	}{
		{"gcs", ArchiveConfig{Bucket: "inv", Mode: StorageModeGCS}, false},
		{"missing bucket", ArchiveConfig{Mode: StorageModeGCS}, true},
		{"emulator ok", ArchiveConfig{Bucket: "inv", Mode: StorageModeGCSEmulator, EmulatorHost: "http://fake-gcs:4443"}, false},
		{"emulator bad host", ArchiveConfig{Bucket: "inv", Mode: StorageModeGCSEmulator, EmulatorHost: "fake-gcs"}, true},
		{"unknown mode", ArchiveConfig{Bucket: "inv", Mode: "s3"}, true},
	}
	for _, tc := range cases {
		err := tc.cfg.Validate()
		if (err != nil) != tc.wantErr {
			t.Fatalf("%s: err=%v wantErr=%v", tc.name, err, tc.wantErr)
		}
	}
}

func TestArchiveConfigFromEnvPrefersEmulator(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_MODE", "")
	t.Setenv("STORAGE_EMULATOR_HOST", "http://127.0.0.1:4443")
	t.Setenv("INVOICE_GCS_BUCKET_NAME", "inv")
	cfg := ArchiveConfigFromEnv()
	if cfg.Mode != StorageModeGCSEmulator {
		t.Fatalf("mode: got=%q want=%q", cfg.Mode, StorageModeGCSEmulator)
	}
	if cfg.Prefix != "invoices" {
		t.Fatalf("prefix: got=%q", cfg.Prefix)
	}
}

func TestPublicURL(t *testing.T) {
	key := "2025-01/INV-B2C-202501-001.png"
	cases := []struct {
		cfg  ArchiveConfig
		want string
	}{
		{
			ArchiveConfig{Bucket: "inv", Prefix: "invoices", Mode: StorageModeGCS},
			"https://storage.googleapis.com/inv/invoices/2025-01/INV-B2C-202501-001.png",
		},
		{
			ArchiveConfig{Bucket: "inv", Mode: StorageModeGCS, PublicBaseURL: "https://cdn.allbound.in/"},
			"https://cdn.allbound.in/inv/2025-01/INV-B2C-202501-001.png",
		},
		{
			ArchiveConfig{Bucket: "inv", Prefix: "invoices", Mode: StorageModeGCSEmulator, EmulatorHost: "http://127.0.0.1:4443"},
			"http://127.0.0.1:4443/storage/v1/b/inv/o/invoices%2F2025-01%2FINV-B2C-202501-001.png?alt=media",
		},
	}
	for i, tc := range cases {
		if got := PublicURL(tc.cfg, key); got != tc.want {
			t.Fatalf("case %d: got=%s want=%s", i, got, tc.want)
		}
	}
}
