package main

import (
	"bytes"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Talv/sc2-repdump/internal/config"
)

func writeReplayDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	roster := `{
	  "author_handle": "1-S2-1-100",
	  "title": "Test Map",
	  "players": [
	    {"slot": 0, "name": "Alice", "control": "human", "handle": "2-S2-1-1", "color": "B4141E"},
	    {"slot": 1, "name": "AI 1", "control": "computer"}
	  ]
	}`
	events := strings.Join([]string{
		`{"kind":"bank_write","seq":1,"gameloop":0,"slot":0,"bank":"Campaign","section":"s","key":"k","value_kind":"int","value_data":"1"}`,
		`{"kind":"bank_write","seq":2,"gameloop":0,"slot":0,"bank":"Campaign","section":"s","key":"k","value_kind":"int","value_data":"2"}`,
		`{"kind":"chat","seq":3,"gameloop":480,"slot":1,"recipient":"all","text":"gg"}`,
	}, "\n") + "\n"

	if err := os.WriteFile(filepath.Join(dir, "roster.json"), []byte(roster), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "events.jsonl"), []byte(events), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestProcessReplay_Rebuild(t *testing.T) {
	dir := writeReplayDir(t)
	out := t.TempDir()

	cfg := config.Defaults()
	cfg.OutDir = out
	run := runOptions{
		cfg:         cfg,
		logger:      log.New(io.Discard, "", 0),
		bankRebuild: true,
	}
	if err := processReplay(dir, run); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(out, "2-S2-1-1", "Campaign.SC2Bank")
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(b, []byte(`<Value int="2"/>`)) {
		t.Fatalf("last write did not win:\n%s", b)
	}
	if !bytes.HasPrefix(b, []byte(`<?xml version="1.0" encoding="utf-8"?>`+"\r\n")) {
		t.Fatalf("missing declaration:\n%s", b)
	}

	// Without -force a second rebuild must refuse to overwrite.
	if err := processReplay(dir, run); err == nil {
		t.Fatal("overwrote existing bank without force")
	}
	run.force = true
	if err := processReplay(dir, run); err != nil {
		t.Fatalf("forced rebuild: %v", err)
	}
}

func TestProcessReplay_MissingInputs(t *testing.T) {
	run := runOptions{cfg: config.Defaults(), logger: log.New(io.Discard, "", 0)}
	if err := processReplay(t.TempDir(), run); err == nil {
		t.Fatal("empty replay dir accepted")
	}
}

func TestGameClock(t *testing.T) {
	if got := gameClock(480); got != "0:00:30" {
		t.Fatalf("gameClock(480) = %q", got)
	}
	if got := gameClock(16 * 3661); got != "1:01:01" {
		t.Fatalf("gameClock = %q", got)
	}
}
