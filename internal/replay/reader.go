package replay

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/Talv/sc2-repdump/schemas"
)

// MalformedRecordError marks a single unreadable record. Callers skip the
// record, count a warning and keep reading; it never aborts the stream.
type MalformedRecordError struct {
	Line int
	Err  error
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record at line %d: %v", e.Line, e.Err)
}

func (e *MalformedRecordError) Unwrap() error { return e.Err }

var (
	schemaOnce  sync.Once
	eventSchema *jsonschema.Schema
	schemaErr   error
)

func compileEventSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		b, err := schemas.FS.ReadFile("event.schema.json")
		if err != nil {
			schemaErr = err
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("event.schema.json", strings.NewReader(string(b))); err != nil {
			schemaErr = err
			return
		}
		eventSchema, schemaErr = c.Compile("event.schema.json")
	})
	return eventSchema, schemaErr
}

// Reader iterates a decoded event stream: one JSON record per line,
// optionally zstd-compressed. Each record is validated against the embedded
// event schema before it is handed out.
type Reader struct {
	f      *os.File
	dec    *zstd.Decoder
	sc     *bufio.Scanner
	schema *jsonschema.Schema
	line   int
}

// Open opens an events file. A ".zst" suffix selects transparent
// decompression.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	var src io.Reader = f
	var dec *zstd.Decoder
	if strings.HasSuffix(path, ".zst") {
		dec, err = zstd.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		src = dec
	}
	r := NewReader(src)
	r.f = f
	r.dec = dec
	return r, nil
}

// NewReader wraps an already-open uncompressed stream.
func NewReader(src io.Reader) *Reader {
	sc := bufio.NewScanner(src)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)
	return &Reader{sc: sc}
}

// Next returns the next record, io.EOF at end of stream, or a
// *MalformedRecordError for a single bad line. After a malformed record the
// reader stays usable; any other error is terminal.
func (r *Reader) Next() (Record, error) {
	if r.schema == nil {
		s, err := compileEventSchema()
		if err != nil {
			return Record{}, fmt.Errorf("event schema: %w", err)
		}
		r.schema = s
	}

	for r.sc.Scan() {
		r.line++
		line := r.sc.Bytes()
		if len(line) == 0 {
			continue
		}

		var raw any
		if err := json.Unmarshal(line, &raw); err != nil {
			return Record{}, &MalformedRecordError{Line: r.line, Err: err}
		}
		if err := r.schema.Validate(raw); err != nil {
			return Record{}, &MalformedRecordError{Line: r.line, Err: err}
		}

		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return Record{}, &MalformedRecordError{Line: r.line, Err: err}
		}
		return rec, nil
	}
	if err := r.sc.Err(); err != nil {
		return Record{}, err
	}
	return Record{}, io.EOF
}

func (r *Reader) Close() error {
	if r.dec != nil {
		r.dec.Close()
	}
	if r.f != nil {
		return r.f.Close()
	}
	return nil
}
