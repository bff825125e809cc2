package main

import (
	"bytes"
	"strings"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"PORT", "BATCHES", "WINDOW", "SEARCH_TIMEOUT", "LOG_LEVEL", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST"} {
		t.Setenv(key, "")
	}
}

func TestRunPrintsFoundSelection(t *testing.T) {
	clearEnv(t)
	var out bytes.Buffer

	err := run([]string{"--batches", "2x3,5x2", "--target", "9", "--window", "10", "--log-level", "error"}, &out)
	if err != nil {
		t.Fatalf("run returned error: %v", err)
	}

	got := out.String()
	for _, want := range []string{"inventory quantity: 16", "order quantity:     9", "found selection for 9:", "sum: 9"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected output to contain %q, got:\n%s", want, got)
		}
	}
}

func TestRunReportsEveryTargetInOrder(t *testing.T) {
	clearEnv(t)
	var out bytes.Buffer

	err := run([]string{"--batches", "4x2", "-t", "8", "-t", "7", "--window", "100", "--log-level", "error"}, &out)
	if err != nil {
		t.Fatalf("run returned error: %v", err)
	}

	got := out.String()
	found := strings.Index(got, "found selection for 8:")
	missing := strings.Index(got, "no exact selection for 7 within window 100")
	if found < 0 || missing < 0 {
		t.Fatalf("expected both targets to be reported, got:\n%s", got)
	}
	if found > missing {
		t.Fatalf("expected results in target order, got:\n%s", got)
	}
}

func TestRunRejectsInvalidInput(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name string
		args []string
	}{
		{name: "bad batches", args: []string{"--batches", "0x1"}},
		{name: "bad target", args: []string{"--batches", "2x1", "--target", "0", "--log-level", "error"}},
		{name: "unknown flag", args: []string{"--nope"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			if err := run(tt.args, &out); err == nil {
				t.Fatalf("expected error for %v", tt.args)
			}
		})
	}
}
