package service

import (
	"io"
	"time"

	"github.com/rs/zerolog"

	"csvmap-service/internal/csvmap"
	"csvmap-service/internal/fileio"
	"csvmap-service/internal/mapping/model"
	"csvmap-service/internal/metrics"
)

// Service runs mapping jobs against uploaded sources.
type Service struct {
	log     zerolog.Logger
	metrics *metrics.Metrics
}

func New(logger zerolog.Logger, m *metrics.Metrics) *Service {
	return &Service{log: logger, metrics: m}
}

// job is one opened source ready to be pulled.
type job struct {
	stream *csvmap.Stream
	schema *csvmap.Schema
	format fileio.Format
}

func (s *Service) open(src io.Reader, req model.Request) (*job, error) {
	schema, err := csvmap.ParseSchema(req.Schema)
	if err != nil {
		return nil, err
	}
	format, err := fileio.DetectFormat(req.Filename)
	if err != nil {
		return nil, err
	}

	reader := csvmap.NewBuilder().
		WithHeader(req.HasHeader).
		WithSeparator(req.Separator).
		WithLogger(s.log).
		Build()

	if format.IsSpreadsheet() {
		rows, err := fileio.OpenRows(src, format)
		if err != nil {
			return nil, &csvmap.IOError{Op: "open", Path: req.Filename, Err: err}
		}
		return &job{stream: reader.NewRowStream(rows, req.Filename, schema), schema: schema, format: format}, nil
	}
	return &job{stream: reader.NewStream(src, schema), schema: schema, format: format}, nil
}

// Map collects up to req.Limit records.
func (s *Service) Map(src io.Reader, req model.Request) (res model.Result, err error) {
	start := time.Now()
	j, err := s.open(src, req)
	if err != nil {
		s.observe("map", csvmap.Stats{}, start, err)
		return model.Result{}, err
	}
	defer func() {
		j.stream.Close()
		s.observe("map", j.stream.Stats(), start, err)
	}()

	recs := make([]csvmap.Record, 0)
	for req.Limit <= 0 || len(recs) < req.Limit {
		if !j.stream.Next() {
			break
		}
		recs = append(recs, j.stream.Record())
	}
	if err := j.stream.Err(); err != nil {
		return model.Result{}, err
	}

	// look one line past the limit; whatever is there, good or bad, is
	// outside the preview and only marks it truncated
	truncated := false
	if req.Limit > 0 && len(recs) == req.Limit {
		truncated = j.stream.Next() || j.stream.Err() != nil
	}

	return model.Result{
		Records:   recs,
		Count:     len(recs),
		Truncated: truncated,
		Separator: j.stream.Separator(),
		Format:    string(j.format),
		Schema:    j.schema.String(),
		Stats:     toStats(j.stream.Stats()),
	}, nil
}

// Stream hands every record to fn without retaining them.
func (s *Service) Stream(src io.Reader, req model.Request, fn func(csvmap.Record) error) (st model.Stats, err error) {
	start := time.Now()
	j, err := s.open(src, req)
	if err != nil {
		s.observe("stream", csvmap.Stats{}, start, err)
		return model.Stats{}, err
	}
	defer func() {
		j.stream.Close()
		s.observe("stream", j.stream.Stats(), start, err)
	}()

	for j.stream.Next() {
		if err := fn(j.stream.Record()); err != nil {
			return toStats(j.stream.Stats()), err
		}
	}
	return toStats(j.stream.Stats()), j.stream.Err()
}

func (s *Service) observe(op string, st csvmap.Stats, start time.Time, err error) {
	if s.metrics != nil {
		s.metrics.Observe(op, st, time.Since(start), err)
	}
}

func toStats(st csvmap.Stats) model.Stats {
	return model.Stats{Lines: st.Lines, Records: st.Records, Skipped: st.Skipped}
}
