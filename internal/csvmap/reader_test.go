package csvmap

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var idNome = MustSchema(Field{"id", Int}, Field{"nome", Text})

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return path
}

func TestReadStringHeaderSkip(t *testing.T) {
	t.Parallel()

	recs, err := NewBuilder().Build().ReadString("id,nome\n1,Java Avançado\n", idNome)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 1, recs[0].Int(0))
	assert.Equal(t, "Java Avançado", recs[0].Text(1))
}

func TestReadStringNoHeader(t *testing.T) {
	t.Parallel()

	r := NewBuilder().WithHeader(false).WithSeparator(";").Build()
	recs, err := r.ReadString("100;Tacos Pastor", idNome)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 100, recs[0].Value(0))
	assert.Equal(t, "Tacos Pastor", recs[0].Value(1))
}

func TestReadStringBlankInput(t *testing.T) {
	t.Parallel()

	r := NewBuilder().Build()
	for _, in := range []string{"", "   ", "\n\n", " \r\n\t"} {
		recs, err := r.ReadString(in, idNome)
		require.NoError(t, err)
		require.NotNil(t, recs)
		require.Empty(t, recs)
	}
}

func TestReadStringCountsDataLines(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header bool
		text   string
		want   int
	}{
		{"header only", true, "id,nome\n", 0},
		{"blank lines ignored", true, "id,nome\n\n1,a\n   \n2,b\n\n", 2},
		{"no trailing newline", true, "id,nome\n1,a\n2,b", 2},
		{"crlf", true, "id,nome\r\n1,a\r\n2,b\r\n", 2},
		{"no header counts every line", false, "1,a\n2,b\n3,c\n", 3},
		// the header skip consumes exactly the first line even when blank
		{"blank first line is the header", true, "\n1,a\n2,b\n", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := NewBuilder().WithHeader(tt.header).WithSeparator(",").Build()
			recs, err := r.ReadString(tt.text, idNome)
			require.NoError(t, err)
			require.Len(t, recs, tt.want)
		})
	}
}

func TestReadStringSeparatorFromFirstLine(t *testing.T) {
	t.Parallel()

	// the header decides ';' and every later line is split with it
	recs, err := NewBuilder().Build().ReadString("id;nome\n1;a,b\n2;c\n", idNome)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "a,b", recs[0].Text(1))

	// a comma header fixes ',' even if later lines use ';'
	_, err = NewBuilder().Build().ReadString("id,nome\n1;a\n", idNome)
	var me *MappingError
	require.ErrorAs(t, err, &me)
}

func TestReadFile(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "disciplinas.csv", "id,nome\n1,Go\n\n2,\"Redes, Sistemas\"\n3\n")
	recs, err := NewBuilder().Build().Read(path, idNome)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "Redes, Sistemas", recs[1].Text(1))
	assert.True(t, recs[2].IsNull(1))
}

func TestReadMissingFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "missing.csv")
	r := NewBuilder().Build()

	recs, err := r.Read(path, idNome)
	require.Nil(t, recs)
	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "open", ioErr.Op)
	assert.Equal(t, path, ioErr.Path)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	called := false
	err = r.Process(path, idNome, func(Record) error { called = true; return nil })
	require.ErrorAs(t, err, &ioErr)
	require.False(t, called)
}

func TestReadMappingErrorStopsCollect(t *testing.T) {
	t.Parallel()

	recs, err := NewBuilder().Build().ReadString("id,nome\n1,a\nx,b\n3,c\n", idNome)
	require.Nil(t, recs)

	var me *MappingError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, 3, me.Line)
	assert.Equal(t, "x,b", me.Text)

	var ce *ConversionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "id", ce.Field)
}

func TestProcessFailFast(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "bad.csv", "id,nome\n1,a\n2,b\nbad,c\n4,d\n")
	var seen []int
	err := NewBuilder().Build().Process(path, idNome, func(rec Record) error {
		seen = append(seen, rec.Int(0))
		return nil
	})

	var me *MappingError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "bad,c", me.Text)
	assert.Equal(t, []int{1, 2}, seen, "handler must not see the bad line or anything after it")
}

func TestProcessHandlerError(t *testing.T) {
	t.Parallel()

	stop := errors.New("stop")
	calls := 0
	err := NewBuilder().Build().ProcessReader(strings.NewReader("id,nome\n1,a\n2,b\n3,c\n"), idNome, func(Record) error {
		calls++
		if calls == 2 {
			return stop
		}
		return nil
	})
	require.Same(t, stop, err)
	require.Equal(t, 2, calls)
}

type trackingCloser struct {
	io.Reader
	closed int
}

func (c *trackingCloser) Close() error { c.closed++; return nil }

func TestStreamStates(t *testing.T) {
	t.Parallel()

	src := &trackingCloser{Reader: strings.NewReader("id;nome\n1;a\n2;b\n")}
	st := NewBuilder().Build().NewStream(src, idNome)
	require.Equal(t, Idle, st.State())
	require.Equal(t, "", st.Separator())

	require.True(t, st.Next())
	require.Equal(t, Streaming, st.State())
	require.Equal(t, ";", st.Separator())
	require.Equal(t, 1, st.Record().Int(0))

	require.True(t, st.Next())
	require.False(t, st.Next())
	require.Equal(t, Done, st.State())
	require.NoError(t, st.Err())
	require.Equal(t, 1, src.closed)
	require.Equal(t, Stats{Lines: 3, Records: 2, Skipped: 1}, st.Stats())

	// exhausted streams stay exhausted
	require.False(t, st.Next())
	require.NoError(t, st.Close())
	require.Equal(t, 1, src.closed)
}

func TestStreamFailedState(t *testing.T) {
	t.Parallel()

	src := &trackingCloser{Reader: strings.NewReader("id,nome\nx,a\n")}
	st := NewBuilder().Build().NewStream(src, idNome)
	require.False(t, st.Next())
	require.Equal(t, Failed, st.State())
	require.Error(t, st.Err())
	require.Equal(t, 1, src.closed)

	require.NoError(t, st.Close())
	require.Equal(t, Failed, st.State())
}

func TestStreamEmptySource(t *testing.T) {
	t.Parallel()

	st := NewBuilder().Build().NewStream(strings.NewReader(""), idNome)
	require.False(t, st.Next())
	require.Equal(t, Done, st.State())
	require.NoError(t, st.Err())
}

type failingReader struct{ err error }

func (f failingReader) Read([]byte) (int, error) { return 0, f.err }

func TestStreamReadError(t *testing.T) {
	t.Parallel()

	// enough data to get past the encoding sample before the device fails
	var data strings.Builder
	data.WriteString("id,nome\n")
	for i := 1; i <= 1000; i++ {
		data.WriteString(strconv.Itoa(i) + ",a\n")
	}

	boom := errors.New("device gone")
	src := io.MultiReader(strings.NewReader(data.String()), failingReader{boom})
	var got []Record
	err := NewBuilder().Build().ProcessReader(src, idNome, func(r Record) error {
		got = append(got, r)
		return nil
	})

	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	require.ErrorIs(t, err, boom)
	require.Len(t, got, 1000)
}

// flakyReader fails a single read after its data, then reports EOF.
type flakyReader struct {
	data   string
	err    error
	failed bool
	reads  int
}

func (f *flakyReader) Read(p []byte) (int, error) {
	f.reads++
	if f.data != "" {
		n := copy(p, f.data)
		f.data = f.data[n:]
		return n, nil
	}
	if !f.failed {
		f.failed = true
		return 0, f.err
	}
	return 0, io.EOF
}

func TestStreamTransientReadErrorFails(t *testing.T) {
	t.Parallel()

	boom := errors.New("device gone")
	r := NewBuilder().Build()

	recs, err := r.ReadFrom(&flakyReader{data: "id,nome\n1,a\n", err: boom}, idNome)
	require.Nil(t, recs)
	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	require.ErrorIs(t, err, boom)

	st := r.NewStream(&flakyReader{data: "id,nome\n1,a\n", err: boom}, idNome)
	require.False(t, st.Next())
	require.Equal(t, Failed, st.State())
	require.ErrorIs(t, st.Err(), boom)
}

func TestNewStreamReadsNothingUntilNext(t *testing.T) {
	t.Parallel()

	src := &flakyReader{data: "id,nome\n1,a\n"}
	st := NewBuilder().Build().NewStream(src, idNome)
	require.Equal(t, Idle, st.State())
	require.Zero(t, src.reads)

	require.True(t, st.Next())
	require.NotZero(t, src.reads)
	require.NoError(t, st.Close())
}

func TestStreamCloseEarly(t *testing.T) {
	t.Parallel()

	src := &trackingCloser{Reader: strings.NewReader("id,nome\n1,a\n2,b\n")}
	st := NewBuilder().Build().NewStream(src, idNome)
	require.True(t, st.Next())
	require.NoError(t, st.Close())
	require.Equal(t, Done, st.State())
	require.Equal(t, 1, src.closed)
	require.False(t, st.Next())
}

func TestStreamNilSchema(t *testing.T) {
	t.Parallel()

	r := NewBuilder().Build()
	st := r.NewStream(strings.NewReader("a\n"), nil)
	require.False(t, st.Next())
	require.Equal(t, Failed, st.State())

	_, err := r.Open("whatever.csv", nil)
	require.Error(t, err)
	_, err = r.ReadString("a", nil)
	require.Error(t, err)
}

func TestRecordsIterator(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "it.csv", "id,nome\n1,a\n2,b\n3,c\n")
	r := NewBuilder().Build()

	var ids []int
	for rec, err := range r.Records(path, idNome) {
		require.NoError(t, err)
		ids = append(ids, rec.Int(0))
		if len(ids) == 2 {
			break
		}
	}
	require.Equal(t, []int{1, 2}, ids)

	var errs []error
	for _, err := range r.Records(filepath.Join(t.TempDir(), "nope.csv"), idNome) {
		errs = append(errs, err)
	}
	require.Len(t, errs, 1)
	var ioErr *IOError
	require.ErrorAs(t, errs[0], &ioErr)
}

func TestStreamAllClosesOnBreak(t *testing.T) {
	t.Parallel()

	src := &trackingCloser{Reader: strings.NewReader("id,nome\n1,a\n2,b\n")}
	st := NewBuilder().Build().NewStream(src, idNome)
	for range st.All() {
		break
	}
	require.Equal(t, 1, src.closed)
	require.Equal(t, Done, st.State())
}

func TestStreamAllYieldsError(t *testing.T) {
	t.Parallel()

	st := NewBuilder().Build().NewStream(strings.NewReader("id,nome\n1,a\nz,b\n"), idNome)
	var n int
	var last error
	for _, err := range st.All() {
		if err != nil {
			last = err
			continue
		}
		n++
	}
	require.Equal(t, 1, n)
	var me *MappingError
	require.ErrorAs(t, last, &me)
}

func TestReaderDecodesBOM(t *testing.T) {
	t.Parallel()

	src := bytes.NewReader(append([]byte{0xEF, 0xBB, 0xBF}, "1;Ação\n"...))
	recs, err := NewBuilder().WithHeader(false).Build().ReadFrom(src, idNome)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 1, recs[0].Int(0))
	assert.Equal(t, "Ação", recs[0].Text(1))
}

func TestBuilderIsolation(t *testing.T) {
	t.Parallel()

	b := NewBuilder()
	require.Equal(t, Config{HasHeader: true}, b.Build().Config())

	r := b.WithSeparator("|").Build()
	b.WithHeader(false).WithSeparator("")
	require.Equal(t, Config{HasHeader: true, Separator: "|"}, r.Config())

	recs, err := r.ReadString("a|b\n1|x\n", idNome)
	require.NoError(t, err)
	require.Equal(t, "x", recs[0].Text(1))
}

func TestReaderLogsRelease(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	r := NewBuilder().WithLogger(logger).Build()
	_, err := r.ReadString("id,nome\n1,a\n", idNome)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"component":"csvmap"`)
	assert.Contains(t, out, `"separator":","`)
	assert.Contains(t, out, `"records":1`)
	assert.Contains(t, out, "stream released")
}

type sliceRows struct {
	rows   [][]string
	closed bool
}

func (s *sliceRows) ReadRow() ([]string, error) {
	if len(s.rows) == 0 {
		return nil, io.EOF
	}
	row := s.rows[0]
	s.rows = s.rows[1:]
	return row, nil
}

func (s *sliceRows) Close() error { s.closed = true; return nil }

func TestReadRows(t *testing.T) {
	t.Parallel()

	rows := &sliceRows{rows: [][]string{
		{"id", "nome"},
		{"1", "a;b"},
		{"", " "},
		{},
		{"2"},
	}}
	recs, err := NewBuilder().Build().ReadRows(rows, "sheet.xlsx", idNome)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "a;b", recs[0].Text(1))
	assert.True(t, recs[1].IsNull(1))
	assert.True(t, rows.closed)

	rows = &sliceRows{rows: [][]string{{"x", "y"}}}
	err = NewBuilder().WithHeader(false).Build().ProcessRows(rows, "sheet.xlsx", idNome, func(Record) error {
		t.Fatal("handler must not run for a bad row")
		return nil
	})
	var me *MappingError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "x,y", me.Text)
}

// numberedLines generates "i,name-i" data lines on the fly so the source
// itself never sits in memory.
type numberedLines struct {
	n, total int
	buf      []byte
}

func (g *numberedLines) Read(p []byte) (int, error) {
	for len(g.buf) < len(p) && g.n < g.total {
		g.n++
		if g.n%1000 == 0 {
			g.buf = append(g.buf, '\n') // blank line, must be skipped
		}
		g.buf = append(g.buf, []byte(strconv.Itoa(g.n)+",name-"+strconv.Itoa(g.n)+"\n")...)
	}
	if len(g.buf) == 0 {
		return 0, io.EOF
	}
	n := copy(p, g.buf)
	g.buf = g.buf[n:]
	return n, nil
}

func TestProcessLargeSourceBoundedMemory(t *testing.T) {
	if testing.Short() {
		t.Skip("large source")
	}

	const total = 2_000_000
	r := NewBuilder().WithHeader(false).WithSeparator(",").Build()

	var ms runtime.MemStats
	var peak uint64
	calls := 0
	err := r.ProcessReader(&numberedLines{total: total}, idNome, func(rec Record) error {
		calls++
		if rec.Int(0) != calls {
			return errors.New("out of order")
		}
		if calls%500_000 == 0 {
			runtime.GC()
			runtime.ReadMemStats(&ms)
			peak = max(peak, ms.HeapInuse)
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, total, calls)
	// two million records retained would need well over 100MB
	require.Less(t, peak, uint64(64<<20))
}

func BenchmarkReadString(b *testing.B) {
	var sb strings.Builder
	sb.WriteString("id;nome\n")
	for i := range 10_000 {
		sb.WriteString(strconv.Itoa(i) + `;"Item, ` + strconv.Itoa(i) + "\"\n")
	}
	text := sb.String()
	r := NewBuilder().Build()

	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	for b.Loop() {
		if _, err := r.ReadString(text, idNome); err != nil {
			b.Fatal(err)
		}
	}
}
