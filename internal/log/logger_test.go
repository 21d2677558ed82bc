package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestWithComponentTagsOnce(t *testing.T) {
	var buf bytes.Buffer
	root := New(Config{Writer: &buf})

	root.WithComponent(ComponentGateway).With("request", "r1").WithComponent(ComponentSession).Info("hello")

	line := buf.String()
	if n := strings.Count(line, "component="); n != 1 {
		t.Fatalf("expected one component field, got %d: %s", n, line)
	}
	if !strings.Contains(line, "component=session") || !strings.Contains(line, "request=r1") {
		t.Fatalf("unexpected line: %s", line)
	}
}

func TestNewDefaultsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Writer: &buf})
	if l.Component() != ComponentApp {
		t.Fatalf("expected %q, got %q", ComponentApp, l.Component())
	}
	l.Info("x")
	if !strings.Contains(buf.String(), "component=app") {
		t.Fatalf("missing component: %s", buf.String())
	}
}
