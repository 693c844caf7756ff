package logger

import (
	"RCA_Insights/backend/go/internal/models"
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestNewWithBase_PresetFields(t *testing.T) {
	base, hook := test.NewNullLogger()
	l := NewWithBase(base, "rca_insights", "trace-1")

	l.WithField("document_id", "a.txt").Info("hello")

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatal("expected a log entry")
	}
	if entry.Data["service_name"] != "rca_insights" {
		t.Errorf("service_name = %v", entry.Data["service_name"])
	}
	if entry.Data["trace_id"] != "trace-1" {
		t.Errorf("trace_id = %v", entry.Data["trace_id"])
	}
	if entry.Data["document_id"] != "a.txt" {
		t.Errorf("document_id = %v", entry.Data["document_id"])
	}
}

func TestWithField_DoesNotMutateReceiver(t *testing.T) {
	base, hook := test.NewNullLogger()
	l := NewWithBase(base, "svc", "")

	_ = l.WithField("reason", "empty")
	l.Info("plain")

	if _, ok := hook.LastEntry().Data["reason"]; ok {
		t.Error("WithField leaked into the parent logger")
	}
}

func TestWithError_RecordsInnermostType(t *testing.T) {
	base, hook := test.NewNullLogger()
	l := NewWithBase(base, "svc", "")

	cause := errors.New("boom")
	l.WithError(fmt.Errorf("wrapped: %w", cause)).Error("failed")

	info, ok := hook.LastEntry().Data["error"].(models.ErrorInfo)
	if !ok {
		t.Fatalf("error field has type %T", hook.LastEntry().Data["error"])
	}
	if info.Message != "wrapped: boom" {
		t.Errorf("Message = %q", info.Message)
	}
	if info.Type != "*errors.errorString" {
		t.Errorf("Type = %q", info.Type)
	}
}

func TestInit_JSONFieldMap(t *testing.T) {
	var buf bytes.Buffer
	Init(logrus.InfoLevel, "json", &buf)
	defer Init(logrus.InfoLevel, "json", nil)

	New("svc", "t").Info("json check")

	out := buf.String()
	if !strings.Contains(out, `"message":"json check"`) {
		t.Errorf("expected message key in output, got: %s", out)
	}
	if !strings.Contains(out, `"timestamp"`) {
		t.Errorf("expected timestamp key in output, got: %s", out)
	}
}

func TestParseLevel_Fallback(t *testing.T) {
	if ParseLevel("debug") != logrus.DebugLevel {
		t.Error("debug not parsed")
	}
	if ParseLevel("nonsense") != logrus.InfoLevel {
		t.Error("expected info fallback")
	}
}
