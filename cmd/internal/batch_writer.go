package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	"github.com/planetscale/connect/hubspot/lib"
)

// RecordSource is a lazy sequence of normalized records.
type RecordSource interface {
	Next(ctx context.Context) bool
	Record() Record
	Err() error
}

// BatchWriter folds a record sequence into gzip compressed JSON lines files of at
// most MaxRecords records each.
type BatchWriter struct {
	Storage    lib.Storage
	Encoding   BatchEncoding
	Prefix     string
	MaxRecords int
	// SyncID makes file names unique to one sync of one stream.
	SyncID string
}

func NewBatchWriter(storage lib.Storage, cfg BatchConfig, stream string, maxRecords int) (*BatchWriter, error) {
	if cfg.Encoding.Format != "jsonl" {
		return nil, errors.Errorf("unsupported batch format %q", cfg.Encoding.Format)
	}
	if cfg.Encoding.Compression != "gzip" {
		return nil, errors.Errorf("unsupported batch compression %q", cfg.Encoding.Compression)
	}
	if maxRecords <= 0 {
		maxRecords = DefaultBatchSize
	}

	return &BatchWriter{
		Storage:    storage,
		Encoding:   cfg.Encoding,
		Prefix:     cfg.Storage.Prefix,
		MaxRecords: maxRecords,
		SyncID:     fmt.Sprintf("%s--%s-%s", TapName, stream, uuid.NewString()),
	}, nil
}

// Write drains records, calling onBatch once per finished file. The last file may
// hold fewer than MaxRecords records; no file is written for an empty sequence.
func (w *BatchWriter) Write(ctx context.Context, records RecordSource, onBatch func(Batch) error) error {
	for seq := 1; records.Next(ctx); seq++ {
		batch, err := w.writeBatch(ctx, seq, records)
		if err != nil {
			return err
		}
		if err := records.Err(); err != nil {
			return err
		}
		if err := onBatch(batch); err != nil {
			return err
		}
	}
	return records.Err()
}

func (w *BatchWriter) FileName(seq int) string {
	return fmt.Sprintf("%s%s-%d.json.gz", w.Prefix, w.SyncID, seq)
}

// writeBatch writes the current record of records and keeps pulling until the
// file is full or the sequence ends.
func (w *BatchWriter) writeBatch(ctx context.Context, seq int, records RecordSource) (batch Batch, err error) {
	name := w.FileName(seq)
	f, err := w.Storage.Create(ctx, name)
	if err != nil {
		return batch, errors.Wrapf(err, "unable to create batch file %v", name)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "unable to close batch file %v", name)
		}
	}()

	gz := gzip.NewWriter(f)
	defer func() {
		if cerr := gz.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "unable to finish batch file %v", name)
		}
	}()

	var line bytes.Buffer
	count := 0
	for {
		line.Reset()
		if err := encodeRecordLine(&line, records.Record()); err != nil {
			return batch, err
		}
		if _, err := gz.Write(line.Bytes()); err != nil {
			return batch, errors.Wrapf(err, "unable to write batch file %v", name)
		}
		count++
		if count >= w.MaxRecords || !records.Next(ctx) {
			break
		}
	}

	return Batch{
		Encoding: w.Encoding,
		Manifest: []string{w.Storage.URL(name)},
		Records:  count,
	}, nil
}

// encodeRecordLine writes one JSON line. Values that cannot be marshalled are
// written as their default string form.
func encodeRecordLine(buf *bytes.Buffer, record Record) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(record); err == nil {
		return nil
	}

	buf.Reset()
	coerced := make(Record, len(record))
	for k, v := range record {
		if _, err := json.Marshal(v); err != nil {
			coerced[k] = fmt.Sprint(v)
			continue
		}
		coerced[k] = v
	}
	return errors.Wrap(enc.Encode(coerced), "unable to encode record")
}
