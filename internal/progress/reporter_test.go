package progress

import (
	"bytes"
	"strings"
	"testing"
)

func TestCIReporter(t *testing.T) {
	var buf bytes.Buffer
	r := &CIReporter{Out: &buf, Description: "Injecting"}

	r.Start(2)
	r.Update(1, "a.html")
	r.Update(2, "b.html")
	r.Finish()

	want := "Injecting: 2 files\n[1/2] a.html\n[2/2] b.html\nInjecting: done\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestNewReporterCI(t *testing.T) {
	t.Setenv("CI", "true")

	var buf bytes.Buffer
	r := NewReporter(&buf, "Injecting")
	if _, ok := r.(*CIReporter); !ok {
		t.Fatalf("expected *CIReporter, got %T", r)
	}
	r.Start(1)
	if !strings.Contains(buf.String(), "1 files") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestNewReporterTerminal(t *testing.T) {
	t.Setenv("CI", "")
	t.Setenv("GITHUB_ACTIONS", "")

	var buf bytes.Buffer
	r := NewReporter(&buf, "Injecting")
	if _, ok := r.(*TerminalReporter); !ok {
		t.Fatalf("expected *TerminalReporter, got %T", r)
	}
	r.Start(3)
	r.Update(3, "c.html")
	r.Finish()
}
