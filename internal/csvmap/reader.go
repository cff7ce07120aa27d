// Package csvmap maps delimited text lines onto typed records: it detects the
// separator, splits lines outside quotes, converts each column to its field
// kind and streams the results one record at a time.
package csvmap

import (
	"errors"
	"io"
	"iter"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

var errNilSchema = errors.New("csvmap: nil schema")

// Reader maps delimited text onto records of a Schema. A Reader is immutable
// after Build and may be shared; every operation owns its own source.
type Reader struct {
	cfg Config
	log zerolog.Logger
}

// Config returns a copy of the reader's settings.
func (r *Reader) Config() Config { return r.cfg }

// Open starts a lazy stream over the file at path. The caller must Close it
// unless it is drained to the end.
func (r *Reader) Open(path string, schema *Schema) (*Stream, error) {
	if schema == nil {
		return nil, errNilSchema
	}
	f, err := os.Open(path)
	if err != nil {
		r.log.Debug().Err(err).Str("source", path).Msg("open failed")
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}
	return newLineStream(f, true, f, path, schema, r.cfg, r.log), nil
}

// NewStream starts a lazy stream over src; nothing is read before the first
// Next. If src is an io.Closer it is closed when the stream ends.
func (r *Reader) NewStream(src io.Reader, schema *Schema) *Stream {
	var closer io.Closer
	if c, ok := src.(io.Closer); ok {
		closer = c
	}
	return newLineStream(src, true, closer, "", schema, r.cfg, r.log)
}

// NewRowStream starts a lazy stream over pre-split rows. Separator settings
// do not apply; header and blank-row handling do.
func (r *Reader) NewRowStream(rows RowReader, name string, schema *Schema) *Stream {
	return newRowStream(rows, name, schema, r.cfg, r.log)
}

// Records is the lazy form of Read. An open failure is yielded as the only
// element.
func (r *Reader) Records(path string, schema *Schema) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		st, err := r.Open(path, schema)
		if err != nil {
			yield(Record{}, err)
			return
		}
		st.All()(yield)
	}
}

// Read maps every data line of the file at path.
func (r *Reader) Read(path string, schema *Schema) ([]Record, error) {
	st, err := r.Open(path, schema)
	if err != nil {
		return nil, err
	}
	return collect(st)
}

// ReadString maps every data line of text. Blank input yields no records.
func (r *Reader) ReadString(text string, schema *Schema) ([]Record, error) {
	if schema == nil {
		return nil, errNilSchema
	}
	if strings.TrimSpace(text) == "" {
		return []Record{}, nil
	}
	return collect(newLineStream(strings.NewReader(text), false, nil, "", schema, r.cfg, r.log))
}

// ReadFrom maps every data line read from src.
func (r *Reader) ReadFrom(src io.Reader, schema *Schema) ([]Record, error) {
	if schema == nil {
		return nil, errNilSchema
	}
	return collect(r.NewStream(src, schema))
}

// ReadRows maps every data row of a pre-split source.
func (r *Reader) ReadRows(rows RowReader, name string, schema *Schema) ([]Record, error) {
	if schema == nil {
		return nil, errNilSchema
	}
	return collect(r.NewRowStream(rows, name, schema))
}

// Process calls fn for every record of the file at path without retaining
// them. A mapping error stops processing before fn sees the bad line; an
// error returned by fn stops processing and is returned as is.
func (r *Reader) Process(path string, schema *Schema, fn func(Record) error) error {
	st, err := r.Open(path, schema)
	if err != nil {
		return err
	}
	return process(st, fn)
}

// ProcessReader is Process over an arbitrary reader.
func (r *Reader) ProcessReader(src io.Reader, schema *Schema, fn func(Record) error) error {
	if schema == nil {
		return errNilSchema
	}
	return process(r.NewStream(src, schema), fn)
}

// ProcessRows is Process over a pre-split source.
func (r *Reader) ProcessRows(rows RowReader, name string, schema *Schema, fn func(Record) error) error {
	if schema == nil {
		return errNilSchema
	}
	return process(r.NewRowStream(rows, name, schema), fn)
}

func collect(st *Stream) ([]Record, error) {
	defer st.Close()
	out := make([]Record, 0)
	for st.Next() {
		out = append(out, st.Record())
	}
	if err := st.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func process(st *Stream, fn func(Record) error) error {
	defer st.Close()
	for st.Next() {
		if err := fn(st.Record()); err != nil {
			return err
		}
	}
	return st.Err()
}
