package bank

import (
	"crypto/sha1"
	"fmt"
	"sort"
	"strings"
)

// Signer computes the integrity signature embedded in a signed bank. The
// digest algorithm the game client uses is not published; it was recovered by
// validating against known-good files, so it stays a pluggable strategy.
type Signer interface {
	Sign(doc *Document, authorHandle, ownerHandle string) string
}

// SHA1Signer implements the client scheme: SHA-1 over the concatenation of
// the map author handle, the owning player handle, the bank name, then every
// section/key/value sorted by name with attribute names and values appended.
// Text payloads are excluded from the digest since the client treats them as
// free-form data. Output is uppercase hex.
type SHA1Signer struct{}

func (SHA1Signer) Sign(doc *Document, authorHandle, ownerHandle string) string {
	var sb strings.Builder
	sb.WriteString(authorHandle)
	sb.WriteString(ownerHandle)
	sb.WriteString(doc.Name())

	sections := append([]*Section(nil), doc.Sections()...)
	sort.Slice(sections, func(i, j int) bool { return sections[i].Name() < sections[j].Name() })
	for _, sec := range sections {
		sb.WriteString(sec.Name())
		keys := append([]*Key(nil), sec.Keys()...)
		sort.Slice(keys, func(i, j int) bool { return keys[i].Name() < keys[j].Name() })
		for _, k := range keys {
			sb.WriteString(k.Name())
			sb.WriteString("Value")
			sb.WriteString(k.Value().Kind().Attr())
			if k.Value().Kind() != KindText {
				sb.WriteString(k.Value().Render())
			}
		}
	}

	sum := sha1.Sum([]byte(sb.String()))
	return strings.ToUpper(fmt.Sprintf("%x", sum))
}
