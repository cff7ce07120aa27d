package csvmap

import (
	"bufio"
	"errors"
	"io"
	"iter"
	"strings"

	"github.com/rs/zerolog"

	"csvmap-service/internal/fileio"
)

// State is the lifecycle position of a Stream.
type State uint8

const (
	Idle State = iota
	SeparatorPending
	Streaming
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case SeparatorPending:
		return "separator-pending"
	case Streaming:
		return "streaming"
	case Done:
		return "done"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// RowReader yields pre-split rows, e.g. spreadsheet sheets. ReadRow returns
// io.EOF once the rows are exhausted.
type RowReader interface {
	ReadRow() ([]string, error)
	Close() error
}

// Stats counts what a stream has consumed so far.
type Stats struct {
	Lines   int // lines or rows pulled from the source, header included
	Records int
	Skipped int // header and blank lines
}

const streamBufferSize = 64 << 10

// Stream is a single-pass, pull-based sequence of records over one source.
// It is not safe for concurrent use and cannot be restarted.
type Stream struct {
	cfg    Config
	schema *Schema
	log    zerolog.Logger
	path   string

	src    io.Reader // line sources, wrapped in br by start
	decode bool      // sniff and transcode src before reading lines
	br     *bufio.Reader
	rows   RowReader // pre-split sources
	closer io.Closer

	state      State
	sep        string
	first      string
	hasFirst   bool
	rec        Record
	err        error
	stats      Stats
	closed     bool
	releaseErr error
}

func newLineStream(src io.Reader, decode bool, closer io.Closer, path string, schema *Schema, cfg Config, log zerolog.Logger) *Stream {
	return &Stream{
		cfg:    cfg,
		schema: schema,
		log:    log,
		path:   path,
		src:    src,
		decode: decode,
		closer: closer,
	}
}

func newRowStream(rows RowReader, path string, schema *Schema, cfg Config, log zerolog.Logger) *Stream {
	return &Stream{
		cfg:    cfg,
		schema: schema,
		log:    log,
		path:   path,
		rows:   rows,
		closer: rows,
	}
}

// State reports the current lifecycle state.
func (s *Stream) State() State { return s.state }

// Separator returns the separator in use; it is empty until the first call
// to Next and for row sources.
func (s *Stream) Separator() string { return s.sep }

func (s *Stream) Stats() Stats { return s.stats }

// Record returns the record produced by the last successful Next.
func (s *Stream) Record() Record { return s.rec }

// Err returns the error that ended the stream, if any.
func (s *Stream) Err() error { return s.err }

// Next advances to the next record. It returns false when the source is
// exhausted or an error occurred; the source is released in both cases.
func (s *Stream) Next() bool {
	if s.state == Idle {
		s.start()
	}
	if s.state != Streaming {
		return false
	}

	for {
		text, cols, ok, err := s.fetch()
		if err != nil {
			s.fail(err)
			return false
		}
		if !ok {
			s.finish()
			return false
		}
		s.stats.Lines++

		if s.stats.Lines == 1 && s.cfg.HasHeader {
			s.stats.Skipped++
			continue
		}
		if isBlank(text, cols) {
			s.stats.Skipped++
			continue
		}
		if cols == nil {
			cols = SplitLine(text, s.sep)
		}
		rec, err := s.schema.Map(cols)
		if err != nil {
			s.fail(&MappingError{Line: s.stats.Lines, Text: text, Err: err})
			return false
		}
		s.rec = rec
		s.stats.Records++
		return true
	}
}

// All adapts the stream to a range-over-func sequence. Breaking out of the
// loop closes the stream; a terminal error is yielded once with a zero Record.
func (s *Stream) All() iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		defer s.Close()
		for s.Next() {
			if !yield(s.rec, nil) {
				return
			}
		}
		if s.err != nil {
			yield(Record{}, s.err)
		}
	}
}

// Close releases the source. It is safe to call more than once; a stream
// closed before exhaustion ends in Done.
func (s *Stream) Close() error {
	if s.state != Failed {
		s.state = Done
	}
	return s.release()
}

// start decodes the source, peeks the first line and fixes the separator
// for the whole stream. No I/O happens before it.
func (s *Stream) start() {
	s.state = SeparatorPending
	if s.schema == nil {
		s.fail(errNilSchema)
		return
	}
	if s.rows != nil {
		s.state = Streaming
		return
	}

	src := s.src
	if s.decode {
		dec, err := fileio.Decode(src)
		if err != nil {
			s.fail(&IOError{Op: "read", Path: s.path, Err: err})
			return
		}
		src = dec
	}
	s.src = nil
	s.br = bufio.NewReaderSize(src, streamBufferSize)

	line, ok, err := s.readLine()
	if err != nil {
		s.fail(err)
		return
	}
	if !ok {
		s.finish()
		return
	}
	s.first, s.hasFirst = line, true

	if s.cfg.Separator != "" {
		s.sep = s.cfg.Separator
	} else {
		s.sep = DetectSeparator(line)
		s.log.Debug().Str("source", s.path).Str("separator", s.sep).Msg("separator detected")
	}
	s.state = Streaming
}

func (s *Stream) fetch() (string, []string, bool, error) {
	if s.rows != nil {
		cols, err := s.rows.ReadRow()
		if errors.Is(err, io.EOF) {
			return "", nil, false, nil
		}
		if err != nil {
			return "", nil, false, &IOError{Op: "read", Path: s.path, Err: err}
		}
		if cols == nil {
			cols = []string{}
		}
		return strings.Join(cols, ","), cols, true, nil
	}

	if s.hasFirst {
		s.hasFirst = false
		line := s.first
		s.first = ""
		return line, nil, true, nil
	}
	line, ok, err := s.readLine()
	return line, nil, ok, err
}

// isBlank reports an empty-after-trim line, or a row whose cells are all
// empty after trimming.
func isBlank(text string, cols []string) bool {
	if cols == nil {
		return strings.TrimSpace(text) == ""
	}
	for _, c := range cols {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// readLine returns the next line without its terminator. ok is false at EOF.
func (s *Stream) readLine() (string, bool, error) {
	line, err := s.br.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", false, &IOError{Op: "read", Path: s.path, Err: err}
	}
	if line == "" && err != nil {
		return "", false, nil
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line, true, nil
}

func (s *Stream) finish() {
	s.state = Done
	s.release()
}

func (s *Stream) fail(err error) {
	s.err = err
	s.state = Failed
	s.release()
}

func (s *Stream) release() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.rec = Record{}
	if s.closer != nil {
		if err := s.closer.Close(); err != nil {
			s.releaseErr = &IOError{Op: "close", Path: s.path, Err: err}
		}
	}

	ev := s.log.Debug()
	if s.err != nil {
		ev = s.log.Warn().Err(s.err)
	}
	ev.Str("source", s.path).
		Str("separator", s.sep).
		Str("state", s.state.String()).
		Int("lines", s.stats.Lines).
		Int("records", s.stats.Records).
		Int("skipped", s.stats.Skipped).
		Msg("stream released")
	return s.releaseErr
}
