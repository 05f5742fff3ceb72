package internal

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/planetscale/connect/hubspot/lib"
)

// StateInterval is how many records are emitted between two STATE messages.
const StateInterval = MaxBatchSize

// Syncer reads every selected stream of a catalog and writes Singer messages.
type Syncer struct {
	Source     *HubspotSource
	Client     lib.HubspotClient
	Serializer SingerSerializer
	// Storage receives batch files. Only used when the source has a batch config.
	Storage    lib.Storage
	StateStore StateStore
}

// Sync runs each selected stream to completion, in catalog order, and returns the
// final state.
func (s *Syncer) Sync(ctx context.Context, catalog Catalog, state lib.SyncState) (lib.SyncState, error) {
	if state.Bookmarks == nil {
		state = lib.NewSyncState()
	}
	for _, entry := range catalog.Streams {
		if !entry.IsSelected() {
			continue
		}
		if err := s.SyncStream(ctx, entry, &state); err != nil {
			return state, errors.Wrapf(err, "unable to sync stream %v", entry.Stream)
		}
	}
	return state, s.Serializer.Flush()
}

func (s *Syncer) SyncStream(ctx context.Context, entry CatalogEntry, state *lib.SyncState) error {
	sc, err := LookupStream(entry)
	if err != nil {
		return err
	}
	if entry.Schema.Type == "" {
		entry.Schema = catalogEntry(sc).Schema
	}
	if sc.ReplicationMethod == REPLICATION_INCREMENTAL {
		entry.ReplicationKey = sc.ReplicationKey
	}
	if err := s.Serializer.Schema(entry); err != nil {
		return errors.Wrap(err, "unable to write schema")
	}

	streamState := state.Stream(sc.Name)
	var startingValue *time.Time
	if sc.ReplicationMethod == REPLICATION_INCREMENTAL {
		startingValue, err = ResolveStartingValue(streamState, s.Source.StartFrom, s.Serializer)
		if err != nil {
			return err
		}
	}
	checkpointer, err := NewCheckpointer(sc, streamState)
	if err != nil {
		return err
	}

	if startingValue != nil {
		s.Serializer.Info(fmt.Sprintf("Syncing stream %v from %v", sc.Name, formatDatetime(*startingValue)))
	} else {
		s.Serializer.Info(fmt.Sprintf("Syncing stream %v", sc.Name))
	}

	iterator := NewHubspotStream(sc, s.Client, s.Source, startingValue).Records()
	records := &checkpointedRecords{RecordSource: iterator, checkpointer: checkpointer}

	var count int
	if s.Source.BatchConfig != nil {
		count, err = s.writeBatches(ctx, sc, records, state)
	} else {
		count, err = s.writeRecords(ctx, sc, records, state)
	}
	if err != nil {
		return err
	}

	checkpointer.Finalize()
	s.Serializer.Info(fmt.Sprintf("Synced %d records from stream %v in %d pages", count, sc.Name, iterator.Pages()))
	return s.emitState(ctx, *state)
}

func (s *Syncer) writeRecords(ctx context.Context, sc StreamConfig, records RecordSource, state *lib.SyncState) (int, error) {
	count := 0
	for records.Next(ctx) {
		if err := s.Serializer.Record(sc.Name, records.Record()); err != nil {
			return count, err
		}
		count++
		if count%StateInterval == 0 {
			if err := s.emitState(ctx, *state); err != nil {
				return count, err
			}
		}
	}
	return count, records.Err()
}

func (s *Syncer) writeBatches(ctx context.Context, sc StreamConfig, records RecordSource, state *lib.SyncState) (int, error) {
	if s.Storage == nil {
		return 0, errors.New("batch output requires a storage location")
	}
	writer, err := NewBatchWriter(s.Storage, *s.Source.BatchConfig, sc.Name, s.Source.BatchSize)
	if err != nil {
		return 0, err
	}

	count := 0
	err = writer.Write(ctx, records, func(batch Batch) error {
		count += batch.Records
		if err := s.Serializer.Batch(sc.Name, batch); err != nil {
			return errors.Wrap(err, "unable to write batch message")
		}
		return s.emitState(ctx, *state)
	})
	return count, err
}

func (s *Syncer) emitState(ctx context.Context, state lib.SyncState) error {
	if err := s.Serializer.State(state); err != nil {
		return errors.Wrap(err, "unable to write state")
	}
	if s.StateStore == nil {
		return nil
	}
	return s.StateStore.Save(ctx, state)
}

// checkpointedRecords advances the stream bookmark as records are pulled.
type checkpointedRecords struct {
	RecordSource
	checkpointer *Checkpointer
	err          error
}

func (c *checkpointedRecords) Next(ctx context.Context) bool {
	if c.err != nil || !c.RecordSource.Next(ctx) {
		return false
	}
	if err := c.checkpointer.Advance(c.Record()); err != nil {
		c.err = err
		return false
	}
	return true
}

func (c *checkpointedRecords) Err() error {
	if c.err != nil {
		return c.err
	}
	return c.RecordSource.Err()
}
