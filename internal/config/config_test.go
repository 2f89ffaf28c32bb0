package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gyeh/testnetstats/internal/model"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "netstats.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFromFile_Valid(t *testing.T) {
	path := writeConfig(t, "payment_type: merkle\nlog_format: json\nparquet_out: out.parquet\n")

	var c Config
	if err := c.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	pt, err := c.Payment()
	if err != nil {
		t.Fatalf("Payment: %v", err)
	}
	if pt != model.PaymentMerkle {
		t.Errorf("payment type = %q, want merkle", pt)
	}
	if c.LogFormat != "json" || c.ParquetOut != "out.parquet" {
		t.Errorf("unexpected config: %+v", c)
	}
}

func TestLoadFromFile_FlagsWin(t *testing.T) {
	path := writeConfig(t, "payment_type: merkle\nlog_format: json\n")

	c := Config{PaymentType: "single-node"}
	if err := c.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if c.PaymentType != "single-node" {
		t.Errorf("payment type = %q, flag value should win", c.PaymentType)
	}
	if c.LogFormat != "json" {
		t.Errorf("log format = %q, want json from file", c.LogFormat)
	}
}

func TestLoadFromFile_UnknownPaymentType(t *testing.T) {
	path := writeConfig(t, "payment_type: lightning\n")

	var c Config
	if err := c.LoadFromFile(path); err == nil {
		t.Fatal("expected error for unknown payment type")
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	var c Config
	if err := c.LoadFromFile("/nonexistent/netstats.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestApplyDefaults(t *testing.T) {
	c := Config{LogFormat: "json"}
	c.ApplyDefaults()
	if c.LogFormat != "json" || c.LogLevel != "info" {
		t.Errorf("unexpected defaults: %+v", c)
	}
	if c.SerializationErrorPrefix != DefaultSerializationErrorPrefix {
		t.Errorf("SerializationErrorPrefix = %q", c.SerializationErrorPrefix)
	}
}

func TestValidateUploads(t *testing.T) {
	c := Config{LogPath: "service_log"}
	if err := c.ValidateUploads(); err == nil {
		t.Error("expected error without payment type")
	}
	c.PaymentType = "merkle"
	if err := c.ValidateUploads(); err != nil {
		t.Errorf("ValidateUploads: %v", err)
	}
}

func TestValidateDSN(t *testing.T) {
	var c Config
	if err := c.ValidateDSN(); err == nil {
		t.Error("expected error without DSN")
	}
	c.DSN = "postgresql://localhost/netstats"
	if err := c.ValidateDSN(); err != nil {
		t.Errorf("ValidateDSN: %v", err)
	}
}

func TestApplyDefaults_ExplicitEmptyPrefixKept(t *testing.T) {
	c := Config{SerializationErrorPrefixSet: true}
	c.ApplyDefaults()
	if c.SerializationErrorPrefix != "" {
		t.Errorf("SerializationErrorPrefix = %q, want empty", c.SerializationErrorPrefix)
	}
}

func TestLoadFromFile_ExplicitEmptyPrefixKept(t *testing.T) {
	path := writeConfig(t, "serialization_error_prefix: \"Timeout\"\n")
	c := Config{SerializationErrorPrefixSet: true}
	if err := c.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	c.ApplyDefaults()
	if c.SerializationErrorPrefix != "" {
		t.Errorf("SerializationErrorPrefix = %q, want empty", c.SerializationErrorPrefix)
	}
}

func TestValidateTestnet(t *testing.T) {
	dir := t.TempDir()
	c := Config{TestnetPath: dir}
	if err := c.ValidateTestnet(); err != nil {
		t.Errorf("ValidateTestnet: %v", err)
	}

	file := filepath.Join(dir, "f.csv")
	os.WriteFile(file, []byte("x\n"), 0644)
	c.TestnetPath = file
	if err := c.ValidateTestnet(); err == nil {
		t.Error("expected error for non-directory")
	}

	c.TestnetPath = filepath.Join(dir, "missing")
	if err := c.ValidateTestnet(); err == nil {
		t.Error("expected error for missing directory")
	}
}
