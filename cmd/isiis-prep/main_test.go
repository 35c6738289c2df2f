package main

import (
	"strings"
	"testing"
	"time"

	"github.com/cfelab/isiis-prep/internal/ctdlog"
	"github.com/cfelab/isiis-prep/internal/depthmatch"
	"github.com/cfelab/isiis-prep/internal/isiis"
)

func TestRootCommandHasSubcommands(t *testing.T) {
	root := newRootCommand()

	want := []string{
		"match-depth", "frames", "convert", "rewrite-paths",
		"thin", "sample", "review", "config",
	}
	for _, name := range want {
		found := false
		for _, cmd := range root.Commands() {
			if cmd.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("missing subcommand %q", name)
		}
	}
}

func TestRequirePath(t *testing.T) {
	got, err := requirePath("/flag", "/cfg", "input", "paths.x")
	if err != nil || got != "/flag" {
		t.Fatalf("flag should win: %q, %v", got, err)
	}
	got, err = requirePath("", "/cfg", "input", "paths.x")
	if err != nil || got != "/cfg" {
		t.Fatalf("config should be used: %q, %v", got, err)
	}
	if _, err := requirePath("", "", "input", "paths.x"); err == nil {
		t.Fatal("expected error when both are empty")
	}
}

func TestMatchTable(t *testing.T) {
	ts := time.Date(2024, time.August, 21, 15, 34, 56, 0, time.UTC)
	matches := []depthmatch.Match{{
		Frame:  isiis.Frame{Path: "/frames/CFE_ISIIS-001.jpg", Timestamp: ts.Add(2 * time.Second)},
		Record: ctdlog.Record{Timestamp: ts, Depth: "120.5"},
	}}

	out := matchTable(matches)
	for _, want := range []string{"120.5", "2024-08-21 15:34:56", "CFE_ISIIS-001.jpg", "Depth (m)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table missing %q:\n%s", want, out)
		}
	}
}
