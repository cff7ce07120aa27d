package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"csvmap-service/internal/csvmap"
	"csvmap-service/internal/fileio"
)

// classify maps engine errors onto an HTTP status and a short code.
func classify(err error) (int, string) {
	var (
		ioErr   *csvmap.IOError
		mapErr  *csvmap.MappingError
		convErr *csvmap.ConversionError
	)
	switch {
	case errors.Is(err, csvmap.ErrUnsupportedKind):
		return http.StatusBadRequest, "unsupported_kind"
	case errors.As(err, &mapErr), errors.As(err, &convErr):
		return http.StatusUnprocessableEntity, "mapping"
	case errors.As(err, &ioErr):
		return http.StatusBadRequest, "io"
	case errors.Is(err, fileio.ErrUnsupportedFile):
		return http.StatusUnsupportedMediaType, "unsupported_file"
	default:
		return http.StatusBadRequest, "bad_request"
	}
}

func atoi(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func toBool(s string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}
