package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Talv/sc2-repdump/internal/bank"
	"github.com/Talv/sc2-repdump/internal/roster"
)

func TestCatalog_RecordAndQuery(t *testing.T) {
	c, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	players := []*roster.Player{
		{Slot: 0, Name: "Alice", Control: roster.ControlHuman, Handle: "2-S2-1-1"},
	}
	metas := []bank.Metadata{
		{Slot: 0, Bank: "B", NetSize: 10, ContentSize: 8, SectionCount: 1, KeyCount: 1},
		{Slot: 0, Bank: "A", NetSize: 120, ContentSize: 80, SectionCount: 2, KeyCount: 5, Signed: true, Signature: "ABCD"},
	}

	ctx := context.Background()
	if err := c.RecordRun(ctx, "rep1", "Test Map", "1-S2-1-100", players, metas); err != nil {
		t.Fatal(err)
	}

	got, err := c.Banks(ctx, "rep1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("banks = %d, want 2", len(got))
	}
	// Ordered by slot, then name.
	if got[0].Bank != "A" || got[1].Bank != "B" {
		t.Fatalf("order = %s, %s", got[0].Bank, got[1].Bank)
	}
	if !got[0].Signed || got[0].Signature != "ABCD" {
		t.Fatalf("signed row = %+v", got[0])
	}
}

func TestCatalog_RerunReplaces(t *testing.T) {
	c, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	ctx := context.Background()
	players := []*roster.Player{{Slot: 0, Name: "Alice", Control: roster.ControlHuman}}
	if err := c.RecordRun(ctx, "rep1", "", "", players, []bank.Metadata{
		{Slot: 0, Bank: "A", NetSize: 1, ContentSize: 1, SectionCount: 1, KeyCount: 1},
		{Slot: 0, Bank: "B", NetSize: 1, ContentSize: 1, SectionCount: 1, KeyCount: 1},
	}); err != nil {
		t.Fatal(err)
	}
	if err := c.RecordRun(ctx, "rep1", "", "", players, []bank.Metadata{
		{Slot: 0, Bank: "A", NetSize: 2, ContentSize: 2, SectionCount: 1, KeyCount: 2},
	}); err != nil {
		t.Fatal(err)
	}

	got, err := c.Banks(ctx, "rep1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].NetSize != 2 {
		t.Fatalf("rerun did not replace rows: %+v", got)
	}
}

func TestOpen_EmptyPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Fatal("empty path accepted")
	}
}
