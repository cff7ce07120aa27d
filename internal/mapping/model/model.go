package model

import "csvmap-service/internal/csvmap"

// Request describes one mapping job received over HTTP.
type Request struct {
	Filename  string // original upload name; picks text vs spreadsheet
	Schema    string // "name:kind,..." field list
	HasHeader bool   // skip the first line/row
	Separator string // "" = detect
	Limit     int    // max records returned by Map; <= 0 means all
}

type Stats struct {
	Lines   int `json:"lines"`
	Records int `json:"records"`
	Skipped int `json:"skipped"`
}

type Result struct {
	Records   []csvmap.Record `json:"records"`
	Count     int             `json:"count"`
	Truncated bool            `json:"truncated"`           // more records existed past Limit
	Separator string          `json:"separator,omitempty"` // empty for spreadsheets
	Format    string          `json:"format"`
	Schema    string          `json:"schema"`
	Stats     Stats           `json:"stats"`
}

// Trailer is the last NDJSON line of a streamed response.
type Trailer struct {
	Done  bool   `json:"done"`
	Count int    `json:"count"`
	Error string `json:"error,omitempty"`
	Line  int    `json:"line,omitempty"`
}
