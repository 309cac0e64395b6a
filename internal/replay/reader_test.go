package replay

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
)

const sampleStream = `{"kind":"bank_write","seq":1,"gameloop":0,"slot":0,"bank":"A","section":"s","key":"k","value_kind":"int","value_data":"1"}
not json at all
{"kind":"bank_write","seq":2,"gameloop":0,"slot":0,"section":"s","key":"k","value_kind":"int","value_data":"2"}

{"kind":"chat","seq":3,"gameloop":480,"slot":1,"recipient":"all","text":"gg"}
`

func collect(t *testing.T, r *Reader) (recs []Record, malformed int) {
	t.Helper()
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return recs, malformed
		}
		var mErr *MalformedRecordError
		if errors.As(err, &mErr) {
			malformed++
			continue
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		recs = append(recs, rec)
	}
}

func TestReader_PlainJSONL(t *testing.T) {
	r := NewReader(strings.NewReader(sampleStream))
	recs, malformed := collect(t, r)

	// One garbage line, one schema violation (bank_write without bank);
	// the blank line is skipped silently.
	if malformed != 2 {
		t.Fatalf("malformed = %d, want 2", malformed)
	}
	if len(recs) != 2 {
		t.Fatalf("records = %d, want 2", len(recs))
	}
	if recs[0].Kind != KindBankWrite || recs[0].Bank != "A" || recs[0].ValueData != "1" {
		t.Fatalf("record 0 = %+v", recs[0])
	}
	if recs[1].Kind != KindChat || recs[1].Text != "gg" || recs[1].Gameloop != 480 {
		t.Fatalf("record 1 = %+v", recs[1])
	}
	if recs[0].Preload() == false || recs[1].Preload() == true {
		t.Fatal("preload window misclassified")
	}
}

func TestReader_UnknownFieldsIgnored(t *testing.T) {
	line := `{"kind":"bank_write","seq":1,"gameloop":0,"slot":0,"bank":"A","section":"s","key":"k","value_kind":"int","value_data":"1","m_extra":{"nested":true}}`
	r := NewReader(strings.NewReader(line + "\n"))
	recs, malformed := collect(t, r)
	if malformed != 0 || len(recs) != 1 {
		t.Fatalf("records = %d, malformed = %d", len(recs), malformed)
	}
}

func TestOpen_Zstd(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "events.jsonl.zst")

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	enc, err := zstd.NewWriter(f)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := enc.Write([]byte(sampleStream)); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	recs, malformed := collect(t, r)
	if len(recs) != 2 || malformed != 2 {
		t.Fatalf("records = %d, malformed = %d", len(recs), malformed)
	}
}

func TestLoadRoster(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "roster.json")
	body := `{
	  "author_handle": "1-S2-1-100",
	  "title": "Test Map",
	  "players": [
	    {"slot": 0, "name": "Alice", "control": "human", "handle": "2-S2-1-1", "color": "B4141E"},
	    {"slot": 1, "name": "AI 1", "control": "computer"}
	  ]
	}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	rf, err := LoadRoster(path)
	if err != nil {
		t.Fatal(err)
	}
	if rf.AuthorHandle != "1-S2-1-100" || len(rf.Players) != 2 {
		t.Fatalf("roster = %+v", rf)
	}
	if rf.Players[0].Color.String() != "Red" {
		t.Fatalf("color = %s", rf.Players[0].Color)
	}
}

func TestLoadRoster_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "roster.json")
	// control outside the enum
	body := `{"players":[{"slot":0,"name":"x","control":"spectator"}]}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadRoster(path); err == nil {
		t.Fatal("invalid roster accepted")
	}
}
