package bank

import (
	"strings"
)

// Metadata describes one rendered document, as consumed by reports and the
// catalog. All fields are derived from the section/key tree at render time.
type Metadata struct {
	Slot         int    `json:"slot"`
	Bank         string `json:"bank"`
	NetSize      int    `json:"net_size"`
	ContentSize  int    `json:"content_size"`
	SectionCount int    `json:"sections"`
	KeyCount     int    `json:"keys"`
	Signed       bool   `json:"signed"`
	Signature    string `json:"signature,omitempty"`
}

// Rendered is the output of one Render call.
type Rendered struct {
	Bytes []byte
	Meta  Metadata
}

// Serializer renders documents into the canonical on-disk textual form:
// an XML declaration, a version-1 Bank root, 4-space indentation, CRLF line
// endings and self-closing value elements, matching client-written files
// byte for byte. Rendering is pure: identical document state always yields
// identical bytes.
type Serializer struct {
	// Compact drops indentation and emits LF line endings. Off by default;
	// client files are always pretty-printed.
	Compact bool

	// Signer computes the embedded signature for signed documents.
	// Unset means signatures are omitted even for signed documents.
	Signer Signer

	// AuthorHandle and OwnerHandle participate in the signature digest.
	AuthorHandle string
	OwnerHandle  string
}

const xmlDecl = `<?xml version="1.0" encoding="utf-8"?>`

// Render serializes the document. ContentSize is the byte length of the Bank
// element without the signature; NetSize is the total output length
// including declaration and signature framing.
func (s *Serializer) Render(doc *Document) Rendered {
	indent, newline := "    ", "\r\n"
	if s.Compact {
		indent, newline = "", "\n"
	}

	signature := ""
	if doc.Signed() && s.Signer != nil {
		signature = s.Signer.Sign(doc, s.AuthorHandle, s.OwnerHandle)
	}

	var content strings.Builder
	content.WriteString(`<Bank version="1">`)
	content.WriteString(newline)
	for _, sec := range doc.Sections() {
		content.WriteString(indent)
		content.WriteString(`<Section name="` + escapeAttr(sec.Name()) + `">`)
		content.WriteString(newline)
		for _, k := range sec.Keys() {
			content.WriteString(indent + indent)
			content.WriteString(`<Key name="` + escapeAttr(k.Name()) + `">`)
			content.WriteString(newline)
			content.WriteString(indent + indent + indent)
			content.WriteString(`<Value ` + k.Value().Kind().Attr() + `="` + escapeAttr(k.Value().Render()) + `"/>`)
			content.WriteString(newline)
			content.WriteString(indent + indent)
			content.WriteString(`</Key>`)
			content.WriteString(newline)
		}
		content.WriteString(indent)
		content.WriteString(`</Section>`)
		content.WriteString(newline)
	}
	contentSize := content.Len() + len(`</Bank>`) + len(newline)

	var out strings.Builder
	out.WriteString(xmlDecl)
	out.WriteString(newline)
	out.WriteString(content.String())
	if signature != "" {
		out.WriteString(indent)
		out.WriteString(`<Signature value="` + signature + `"/>`)
		out.WriteString(newline)
	}
	out.WriteString(`</Bank>`)
	out.WriteString(newline)

	b := []byte(out.String())
	return Rendered{
		Bytes: b,
		Meta: Metadata{
			Slot:         doc.Slot(),
			Bank:         doc.Name(),
			NetSize:      len(b),
			ContentSize:  contentSize,
			SectionCount: doc.SectionCount(),
			KeyCount:     doc.KeyCount(),
			Signed:       doc.Signed(),
			Signature:    signature,
		},
	}
}

var attrEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"\t", "&#09;",
	"\n", "&#10;",
	"\r", "&#13;",
)

func escapeAttr(s string) string { return attrEscaper.Replace(s) }
