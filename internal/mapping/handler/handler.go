package handler

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"csvmap-service/internal/config"
	"csvmap-service/internal/csvmap"
	"csvmap-service/internal/mapping/model"
	mapSvc "csvmap-service/internal/mapping/service"
	"csvmap-service/internal/middleware"
)

// Map returns the POST /map handler: it maps the uploaded "file" with the
// "schema" form field and answers with the collected records as JSON.
func Map(cfg config.Config, logger zerolog.Logger, svc *mapSvc.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log := logger.With().Str("rid", middleware.GetRequestID(r)).Logger()

		file, req, ok := parseUpload(w, r, cfg)
		if !ok {
			return
		}
		defer file.Close()
		if req.Limit <= 0 {
			req.Limit = cfg.PreviewLimit
		}

		res, err := svc.Map(file, req)
		if err != nil {
			log.Warn().Err(err).Str("file", req.Filename).Msg("map failed")
			writeError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			log.Error().Err(err).Msg("write json")
			return
		}

		log.Info().
			Str("file", req.Filename).
			Str("separator", res.Separator).
			Int("records", res.Count).
			Bool("truncated", res.Truncated).
			Dur("elapsed", time.Since(start)).
			Msg("map done")
	}
}

// Stream returns the POST /map/stream handler: one JSON record per line,
// written as it is mapped, followed by a trailer line.
func Stream(cfg config.Config, logger zerolog.Logger, svc *mapSvc.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log := logger.With().Str("rid", middleware.GetRequestID(r)).Logger()

		file, req, ok := parseUpload(w, r, cfg)
		if !ok {
			return
		}
		defer file.Close()

		flusher, _ := w.(http.Flusher)
		enc := json.NewEncoder(w)
		started := false
		count := 0

		st, err := svc.Stream(file, req, func(rec csvmap.Record) error {
			if !started {
				w.Header().Set("Content-Type", "application/x-ndjson")
				w.Header().Set("Cache-Control", "no-store")
				w.WriteHeader(http.StatusOK)
				started = true
			}
			if err := enc.Encode(rec); err != nil {
				return err
			}
			count++
			if flusher != nil && count%flushEvery == 0 {
				flusher.Flush()
			}
			return nil
		})

		if err != nil && !started {
			log.Warn().Err(err).Str("file", req.Filename).Msg("stream failed")
			writeError(w, err)
			return
		}
		if !started {
			w.Header().Set("Content-Type", "application/x-ndjson")
			w.WriteHeader(http.StatusOK)
		}

		trailer := model.Trailer{Done: err == nil, Count: count}
		if err != nil {
			trailer.Error = err.Error()
			var me *csvmap.MappingError
			if errors.As(err, &me) {
				trailer.Line = me.Line
			}
			log.Warn().Err(err).Int("records", count).Msg("stream aborted")
		}
		_ = enc.Encode(trailer)

		log.Info().
			Str("file", req.Filename).
			Int("lines", st.Lines).
			Int("records", st.Records).
			Int("skipped", st.Skipped).
			Dur("elapsed", time.Since(start)).
			Msg("stream done")
	}
}

const flushEvery = 512

// parseUpload reads the multipart form and the mapping options. On failure
// it has already answered the request.
func parseUpload(w http.ResponseWriter, r *http.Request, cfg config.Config) (multipart.File, model.Request, bool) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			http.Error(w, "upload too large", http.StatusRequestEntityTooLarge)
			return nil, model.Request{}, false
		}
		http.Error(w, "bad multipart form: "+err.Error(), http.StatusBadRequest)
		return nil, model.Request{}, false
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file: "+err.Error(), http.StatusBadRequest)
		return nil, model.Request{}, false
	}
	schema := r.FormValue("schema")
	if schema == "" {
		file.Close()
		http.Error(w, "missing schema", http.StatusBadRequest)
		return nil, model.Request{}, false
	}

	sep := cfg.DefaultSeparator
	if _, set := r.MultipartForm.Value["separator"]; set {
		sep = r.FormValue("separator")
	}
	return file, model.Request{
		Filename:  header.Filename,
		Schema:    schema,
		HasHeader: toBool(r.FormValue("header"), cfg.DefaultHasHeader),
		Separator: sep,
		Limit:     atoi(r.FormValue("limit"), 0),
	}, true
}

func writeError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	body := map[string]any{"error": err.Error(), "code": code}
	var me *csvmap.MappingError
	if errors.As(err, &me) {
		body["line"] = me.Line
		body["text"] = me.Text
	}
	_ = json.NewEncoder(w).Encode(body)
}
