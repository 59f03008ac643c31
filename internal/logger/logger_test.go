package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestInit(t *testing.T) {
	tests := []struct {
		name        string
		level       string
		format      string
		expectError bool
	}{
		{name: "Debug level", level: "debug", format: "text"},
		{name: "Info level, default format", level: "info", format: ""},
		{name: "Warn level json", level: "warn", format: "json"},
		{name: "Invalid level", level: "loud", format: "text", expectError: true},
		{name: "Invalid format", level: "info", format: "xml", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Init(tt.level, tt.format)
			if tt.expectError && err == nil {
				t.Error("Expected error, got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func captureText(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	log.SetOutput(&buf)
	log.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
		DisableColors:    true,
	})
	log.SetLevel(logrus.DebugLevel)
	return &buf
}

func TestLogging(t *testing.T) {
	buf := captureText(t)

	tests := []struct {
		name          string
		logFunc       func(string, ...map[string]interface{})
		message       string
		fields        map[string]interface{}
		expectedLevel string
	}{
		{name: "Debug message", logFunc: Debug, message: "Debug test", expectedLevel: "debug"},
		{name: "Info message", logFunc: Info, message: "Info test", expectedLevel: "info"},
		{name: "Warn message", logFunc: Warn, message: "Warn test", expectedLevel: "warning"},
		{
			name:          "Info with fields",
			logFunc:       Info,
			message:       "Saving note",
			fields:        map[string]interface{}{"notebook": "work"},
			expectedLevel: "info",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			if tt.fields != nil {
				tt.logFunc(tt.message, tt.fields)
			} else {
				tt.logFunc(tt.message)
			}

			output := buf.String()
			if !strings.Contains(output, "level="+tt.expectedLevel) {
				t.Errorf("Expected log level %s, got %s", tt.expectedLevel, output)
			}
			if !strings.Contains(output, tt.message) {
				t.Errorf("Expected message %s, got %s", tt.message, output)
			}
			for k, v := range tt.fields {
				if !strings.Contains(output, k+"="+v.(string)) {
					t.Errorf("Expected field %s=%v in output: %s", k, v, output)
				}
			}
		})
	}
}

func TestError(t *testing.T) {
	buf := captureText(t)

	Error("Failed to get note", errors.New("boom"), map[string]interface{}{"note": "n1"})
	output := buf.String()
	for _, want := range []string{"level=error", "Failed to get note", "error=boom", "note=n1"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected %q in output: %s", want, output)
		}
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := Init("info", "json"); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	SetOutput(&buf)

	Info("exported", map[string]interface{}{"count": 3})

	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
	}
	if line["msg"] != "exported" {
		t.Errorf("msg = %v, want exported", line["msg"])
	}
	if line["count"] != float64(3) {
		t.Errorf("count = %v, want 3", line["count"])
	}
	if IsDebug() {
		t.Error("debug should be disabled at info level")
	}
}
