package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestSetupRejectsUnknownLevel(t *testing.T) {
	if err := Setup(LogConfig{Level: "loud", Format: "json", Output: "stderr"}); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestSetupWritesJSONToFile(t *testing.T) {
	prevLogger, prevLevel, prevFormat := log.Logger, zerolog.GlobalLevel(), zerolog.TimeFieldFormat
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
		zerolog.TimeFieldFormat = prevFormat
	})

	path := filepath.Join(t.TempDir(), "lasku.log")
	if err := Setup(LogConfig{Level: "debug", Format: "json", TimeFormat: time.RFC3339, Output: path}); err != nil {
		t.Fatalf("Setup: %v", err)
	}

	l := WithCompany("reconcile", "c-1")
	l.Info().Int64("invoice_number", 1001).Msg("Invoice marked paid")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	line := strings.TrimSpace(string(data))

	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v\n%s", err, line)
	}
	if entry["component"] != "reconcile" || entry["company_id"] != "c-1" || entry["message"] != "Invoice marked paid" {
		t.Errorf("entry = %v", entry)
	}
	if entry["level"] != "info" {
		t.Errorf("level = %v", entry["level"])
	}
}
