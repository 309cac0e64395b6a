package bank

import (
	"bytes"
	"crypto/sha1"
	"fmt"
	"strings"
	"testing"
)

func testDoc(t *testing.T) *Document {
	t.Helper()
	d := NewDocument(0, "CampaignData")
	if err := d.SetValue("progress", "mission", NewInt(12), false); err != nil {
		t.Fatal(err)
	}
	if err := d.SetValue("progress", "ratio", NewFixed(15, 1), false); err != nil {
		t.Fatal(err)
	}
	if err := d.SetValue("options", "hardcore", NewFlag(true), false); err != nil {
		t.Fatal(err)
	}
	return d
}

func TestRender_CanonicalLayout(t *testing.T) {
	d := testDoc(t)
	d.Finalize()

	r := (&Serializer{}).Render(d)

	want := strings.Join([]string{
		`<?xml version="1.0" encoding="utf-8"?>`,
		`<Bank version="1">`,
		`    <Section name="progress">`,
		`        <Key name="mission">`,
		`            <Value int="12"/>`,
		`        </Key>`,
		`        <Key name="ratio">`,
		`            <Value fixed="1.5"/>`,
		`        </Key>`,
		`    </Section>`,
		`    <Section name="options">`,
		`        <Key name="hardcore">`,
		`            <Value flag="1"/>`,
		`        </Key>`,
		`    </Section>`,
		`</Bank>`,
		``,
	}, "\r\n")
	if string(r.Bytes) != want {
		t.Fatalf("rendered output mismatch:\ngot:\n%q\nwant:\n%q", r.Bytes, want)
	}
}

func TestRender_Deterministic(t *testing.T) {
	d := testDoc(t)
	d.Finalize()
	s := &Serializer{}
	a := s.Render(d)
	b := s.Render(d)
	if !bytes.Equal(a.Bytes, b.Bytes) {
		t.Fatal("two renders of the same document differ")
	}
}

func TestRender_Metadata(t *testing.T) {
	d := testDoc(t)
	d.Finalize()
	r := (&Serializer{}).Render(d)

	if r.Meta.NetSize != len(r.Bytes) {
		t.Fatalf("NetSize = %d, want %d", r.Meta.NetSize, len(r.Bytes))
	}
	declLen := len(`<?xml version="1.0" encoding="utf-8"?>`) + 2
	if r.Meta.ContentSize != len(r.Bytes)-declLen {
		t.Fatalf("ContentSize = %d, want %d (unsigned payload)", r.Meta.ContentSize, len(r.Bytes)-declLen)
	}
	if r.Meta.SectionCount != d.SectionCount() || r.Meta.KeyCount != d.KeyCount() {
		t.Fatalf("counts = %d/%d, want %d/%d",
			r.Meta.SectionCount, r.Meta.KeyCount, d.SectionCount(), d.KeyCount())
	}
	if r.Meta.Signed || r.Meta.Signature != "" {
		t.Fatal("unsigned document rendered with signature")
	}
}

func TestRender_SignedDocument(t *testing.T) {
	d := NewDocument(1, "Achievements")
	if err := d.SetValue("unlocks", "speedrun", NewFlag(true), true); err != nil {
		t.Fatal(err)
	}
	if err := d.SetValue("unlocks", "notes", NewText("player notes"), false); err != nil {
		t.Fatal(err)
	}
	d.Finalize()

	author, owner := "1-S2-1-100", "2-S2-1-1"
	s := &Serializer{Signer: SHA1Signer{}, AuthorHandle: author, OwnerHandle: owner}
	r := s.Render(d)

	if !r.Meta.Signed || r.Meta.Signature == "" {
		t.Fatal("signed document rendered without signature")
	}

	// Independent digest: handles, bank name, then sorted sections/keys with
	// value element tag + attribute name, attribute value except for text.
	payload := author + owner + "Achievements" +
		"unlocks" +
		"notes" + "Value" + "text" +
		"speedrun" + "Value" + "flag" + "1"
	want := strings.ToUpper(fmt.Sprintf("%x", sha1.Sum([]byte(payload))))
	if r.Meta.Signature != want {
		t.Fatalf("signature = %s, want %s", r.Meta.Signature, want)
	}

	sigLine := `    <Signature value="` + want + `"/>` + "\r\n" + `</Bank>` + "\r\n"
	if !strings.HasSuffix(string(r.Bytes), sigLine) {
		t.Fatalf("signature element missing or misplaced:\n%s", r.Bytes)
	}

	// ContentSize excludes signature framing.
	unsigned := (&Serializer{}).Render(d)
	if r.Meta.ContentSize != unsigned.Meta.ContentSize {
		t.Fatalf("ContentSize changed by signature: %d vs %d", r.Meta.ContentSize, unsigned.Meta.ContentSize)
	}
	if r.Meta.NetSize <= unsigned.Meta.NetSize {
		t.Fatal("NetSize does not include signature framing")
	}
}

func TestRender_AttributeEscaping(t *testing.T) {
	d := NewDocument(0, "B")
	v, err := NewString(`a<b>&"c`)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.SetValue("s", "k", v, false); err != nil {
		t.Fatal(err)
	}
	d.Finalize()

	r := (&Serializer{}).Render(d)
	if !strings.Contains(string(r.Bytes), `string="a&lt;b&gt;&amp;&quot;c"`) {
		t.Fatalf("attribute not escaped:\n%s", r.Bytes)
	}
}

func TestRender_Compact(t *testing.T) {
	d := testDoc(t)
	d.Finalize()
	r := (&Serializer{Compact: true}).Render(d)
	if bytes.Contains(r.Bytes, []byte("    ")) || bytes.Contains(r.Bytes, []byte("\r\n")) {
		t.Fatalf("compact output still pretty-printed:\n%s", r.Bytes)
	}
}
