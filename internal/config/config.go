package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Host         string
	Port         int
	AllowOrigins []string
	LogLevel     string
	MaxUploadMB  int
	LogFile      string

	// mapping defaults applied when a request leaves them out
	DefaultHasHeader bool
	DefaultSeparator string
	PreviewLimit     int
}

func Load() Config {
	port, _ := strconv.Atoi(getenv("PORT", "8082"))
	mb, _ := strconv.Atoi(getenv("MAX_UPLOAD_MB", "256"))
	limit, _ := strconv.Atoi(getenv("MAP_PREVIEW_LIMIT", "1000"))
	header, err := strconv.ParseBool(getenv("MAP_HAS_HEADER", "true"))
	if err != nil {
		header = true
	}
	origins := strings.Split(getenv("ALLOW_ORIGINS", "*"), ",")
	return Config{
		Host:             getenv("HOST", "127.0.0.1"),
		Port:             port,
		AllowOrigins:     origins,
		LogLevel:         getenv("LOG_LEVEL", "info"),
		MaxUploadMB:      mb,
		LogFile:          getenv("LOG_FILE", "logs/csvmap-service.log"),
		DefaultHasHeader: header,
		DefaultSeparator: os.Getenv("MAP_SEPARATOR"),
		PreviewLimit:     limit,
	}
}

func (c Config) Addr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
