package internal

import (
	"time"

	"github.com/planetscale/connect/hubspot/lib"
)

const (
	SCHEMA = "SCHEMA"
	RECORD = "RECORD"
	STATE  = "STATE"
	BATCH  = "BATCH"
)

const (
	LOGLEVEL_FATAL = "FATAL"
	LOGLEVEL_ERROR = "ERROR"
	LOGLEVEL_WARN  = "WARN"
	LOGLEVEL_INFO  = "INFO"
	LOGLEVEL_DEBUG = "DEBUG"
)

const (
	REPLICATION_FULL_TABLE  = "FULL_TABLE"
	REPLICATION_INCREMENTAL = "INCREMENTAL"
)

const TapName = "tap-hubspot"

// Record is one normalized row as emitted downstream.
type Record map[string]interface{}

type PropertyType struct {
	Type   []string `json:"type"`
	Format string   `json:"format,omitempty"`
}

type StreamSchema struct {
	Type       string                  `json:"type"`
	Properties map[string]PropertyType `json:"properties"`
}

// CatalogEntry is a stream as it appears in the catalog handed to `read`.
type CatalogEntry struct {
	TapStreamID       string       `json:"tap_stream_id"`
	Stream            string       `json:"stream"`
	Schema            StreamSchema `json:"schema"`
	KeyProperties     []string     `json:"key_properties"`
	ReplicationKey    string       `json:"replication_key,omitempty"`
	ReplicationMethod string       `json:"replication_method"`
	Selected          *bool        `json:"selected,omitempty"`
}

func (ce CatalogEntry) IsSelected() bool {
	return ce.Selected == nil || *ce.Selected
}

type Catalog struct {
	Streams []CatalogEntry `json:"streams"`
}

type BatchEncoding struct {
	Format      string `json:"format"`
	Compression string `json:"compression,omitempty"`
}

// Batch is one manifest entry produced by the BatchWriter.
type Batch struct {
	Encoding BatchEncoding
	Manifest []string
	Records  int
}

type SingerMessage struct {
	Type               string         `json:"type"`
	Stream             string         `json:"stream,omitempty"`
	Record             Record         `json:"record,omitempty"`
	TimeExtracted      *time.Time     `json:"time_extracted,omitempty"`
	Schema             *StreamSchema  `json:"schema,omitempty"`
	KeyProperties      []string       `json:"key_properties,omitempty"`
	BookmarkProperties []string       `json:"bookmark_properties,omitempty"`
	Value              *lib.SyncState `json:"value,omitempty"`
	Encoding           *BatchEncoding `json:"encoding,omitempty"`
	Manifest           []string       `json:"manifest,omitempty"`
}
