package internal

import (
	"encoding/json"
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/planetscale/connect/hubspot/lib"
	"go.uber.org/zap"
)

// SingerSerializer writes Singer messages to the output stream and routes log
// lines to the diagnostic logger.
type SingerSerializer interface {
	Info(message string)
	Log(level, message string)
	Error(message string)
	Schema(stream CatalogEntry) error
	Record(stream string, data Record) error
	Batch(stream string, batch Batch) error
	State(syncState lib.SyncState) error
	Flush() error
}

const MaxBatchSize = 10000

func NewSerializer(w io.Writer, logger *zap.Logger) SingerSerializer {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := singerSerializer{}
	s.logger = logger
	s.encoder = json.NewEncoder(w)
	s.encoder.SetEscapeHTML(false)
	s.records = make([]SingerMessage, 0, MaxBatchSize)
	return &s
}

type singerSerializer struct {
	logger  *zap.Logger
	encoder *json.Encoder
	records []SingerMessage
}

func (s *singerSerializer) Info(message string) {
	s.Log(LOGLEVEL_INFO, message)
}

func (s *singerSerializer) Log(level, message string) {
	switch level {
	case LOGLEVEL_DEBUG:
		s.logger.Debug(message)
	case LOGLEVEL_WARN:
		s.logger.Warn(message)
	case LOGLEVEL_ERROR:
		s.logger.Error(message)
	case LOGLEVEL_FATAL:
		// the command decides how to exit
		s.logger.Error(message, zap.Bool("fatal", true))
	default:
		s.logger.Info(message)
	}
}

func (s *singerSerializer) Error(message string) {
	s.Log(LOGLEVEL_ERROR, message)
}

func (s *singerSerializer) Schema(stream CatalogEntry) error {
	schema := stream.Schema
	msg := SingerMessage{
		Type:          SCHEMA,
		Stream:        stream.Stream,
		Schema:        &schema,
		KeyProperties: stream.KeyProperties,
	}
	if stream.ReplicationKey != "" {
		msg.BookmarkProperties = []string{stream.ReplicationKey}
	}
	return s.encode(msg)
}

func (s *singerSerializer) Record(stream string, data Record) error {
	now := time.Now().UTC()
	s.records = append(s.records, SingerMessage{
		Type:          RECORD,
		Stream:        stream,
		Record:        data,
		TimeExtracted: &now,
	})
	if len(s.records) == MaxBatchSize {
		return s.Flush()
	}
	return nil
}

func (s *singerSerializer) Flush() error {
	defer func() {
		s.records = s.records[:0]
	}()
	for _, record := range s.records {
		if err := s.encode(record); err != nil {
			return errors.Wrapf(err, "unable to write record for stream %v", record.Stream)
		}
	}
	return nil
}

func (s *singerSerializer) Batch(stream string, batch Batch) error {
	encoding := batch.Encoding
	return s.encode(SingerMessage{
		Type:     BATCH,
		Stream:   stream,
		Encoding: &encoding,
		Manifest: batch.Manifest,
	})
}

// State flushes queued records first so a state message never overtakes the
// records it covers.
func (s *singerSerializer) State(syncState lib.SyncState) error {
	if err := s.Flush(); err != nil {
		return err
	}
	return s.encode(SingerMessage{
		Type:  STATE,
		Value: &syncState,
	})
}

func (s *singerSerializer) encode(msg SingerMessage) error {
	return s.encoder.Encode(msg)
}
