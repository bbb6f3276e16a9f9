package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		level, format string
		wantErr       bool
		contains      string
	}{
		{"info", "text", false, "msg=hello"},
		{"debug", "json", false, `"msg":"hello"`},
		{"warn", "text", false, ""},
		{"loud", "text", true, ""},
		{"info", "xml", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.level+"/"+tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			logger, err := newLogger(&buf, tt.level, tt.format)
			if (err != nil) != tt.wantErr {
				t.Fatalf("newLogger() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			logger.Info("hello")
			if tt.contains == "" {
				if buf.Len() != 0 {
					t.Errorf("expected info to be filtered, got %q", buf.String())
				}
				return
			}
			if !strings.Contains(buf.String(), tt.contains) {
				t.Errorf("expected %q in %q", tt.contains, buf.String())
			}
		})
	}
}

func TestParseView(t *testing.T) {
	for _, name := range []string{"side", "top", "orbit"} {
		v, err := parseView(name)
		if err != nil || v.String() != name {
			t.Errorf("parseView(%q) = %v, %v", name, v, err)
		}
	}
	if _, err := parseView("fisheye"); err == nil {
		t.Error("expected error for unknown view")
	}
}
