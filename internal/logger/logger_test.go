package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestProdLogsJSON(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, "prod").Info("checkout created", "reference", "REF-1")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("not json: %q", buf.String())
	}
	if line["reference"] != "REF-1" || line["app"] != "hatsusound" {
		t.Fatalf("unexpected line %v", line)
	}
}

func TestDevLogsDebugText(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, "dev").Debug("hello")
	if !strings.Contains(buf.String(), "level=DEBUG") {
		t.Fatalf("debug line missing: %q", buf.String())
	}
}
