// Package schemas embeds the JSON Schema documents describing the decoded
// replay inputs the tool consumes: the event record stream and the roster
// file produced by the protocol-decoding collaborator.
package schemas

import "embed"

//go:embed *.schema.json
var FS embed.FS
