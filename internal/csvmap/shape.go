package csvmap

// Shape binds a schema to a constructor for a concrete record type, so the
// field list is described once per type instead of discovered per row.
type Shape[T any] struct {
	schema *Schema
	build  func(Record) T
}

// NewShape describes T by its ordered fields and a constructor reading them
// from a mapped Record.
func NewShape[T any](build func(Record) T, fields ...Field) (*Shape[T], error) {
	s, err := NewSchema(fields...)
	if err != nil {
		return nil, err
	}
	return &Shape[T]{schema: s, build: build}, nil
}

// MustShape is NewShape for package-level shapes; it panics on error.
func MustShape[T any](build func(Record) T, fields ...Field) *Shape[T] {
	sh, err := NewShape(build, fields...)
	if err != nil {
		panic(err)
	}
	return sh
}

func (sh *Shape[T]) Schema() *Schema { return sh.schema }

// Build converts a mapped record into T.
func (sh *Shape[T]) Build(rec Record) T { return sh.build(rec) }

// ReadAs is Reader.Read producing T values.
func ReadAs[T any](r *Reader, path string, sh *Shape[T]) ([]T, error) {
	recs, err := r.Read(path, sh.schema)
	if err != nil {
		return nil, err
	}
	return buildAll(sh, recs), nil
}

// ReadStringAs is Reader.ReadString producing T values.
func ReadStringAs[T any](r *Reader, text string, sh *Shape[T]) ([]T, error) {
	recs, err := r.ReadString(text, sh.schema)
	if err != nil {
		return nil, err
	}
	return buildAll(sh, recs), nil
}

// ProcessAs is Reader.Process handing T values to fn.
func ProcessAs[T any](r *Reader, path string, sh *Shape[T], fn func(T) error) error {
	return r.Process(path, sh.schema, func(rec Record) error {
		return fn(sh.build(rec))
	})
}

func buildAll[T any](sh *Shape[T], recs []Record) []T {
	out := make([]T, len(recs))
	for i, rec := range recs {
		out[i] = sh.build(rec)
	}
	return out
}
