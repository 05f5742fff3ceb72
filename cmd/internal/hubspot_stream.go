package internal

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/planetscale/connect/hubspot/lib"
	"github.com/spyzhov/ajson"
)

const resultsPath = "$.results[*]"

// HubspotStream is the sync context for one stream: it owns the request builder,
// the paginator and the property cache.
type HubspotStream struct {
	Config StreamConfig
	Client lib.HubspotClient

	builder    RequestBuilder
	paginator  Paginator
	properties propertyCache
}

func NewHubspotStream(sc StreamConfig, client lib.HubspotClient, source *HubspotSource, startingValue *time.Time) *HubspotStream {
	return &HubspotStream{
		Config: sc,
		Client: client,
		builder: RequestBuilder{
			Stream:        sc,
			Limit:         source.Limit,
			StartingValue: startingValue,
		},
		paginator: Paginator{
			Stream: sc,
			Test:   source.Test,
		},
	}
}

// Properties returns the property names requested for every page. They are fetched
// on first use.
func (s *HubspotStream) Properties(ctx context.Context) ([]string, error) {
	return s.properties.get(ctx, s.Client, s.Config.PropertiesObjectType)
}

func (s *HubspotStream) PageRequest(ctx context.Context, cursor *string) (*lib.Request, error) {
	properties, err := s.Properties(ctx)
	if err != nil {
		return nil, err
	}
	return s.builder.Build(properties, cursor), nil
}

// Records returns a lazy sequence over the stream's records. Nothing is fetched
// until the first call to Next.
func (s *HubspotStream) Records() *RecordIterator {
	return &RecordIterator{stream: s}
}

// RecordIterator pulls pages one at a time and yields projected records.
type RecordIterator struct {
	stream  *HubspotStream
	cursor  *string
	page    []Record
	current Record
	pages   int
	done    bool
	err     error
}

// Next advances to the next record, fetching a new page when the current one is
// exhausted. It returns false at the end of the sequence or on error.
func (it *RecordIterator) Next(ctx context.Context) bool {
	for len(it.page) == 0 {
		if it.done || it.err != nil {
			return false
		}
		if err := it.fetch(ctx); err != nil {
			it.err = err
			return false
		}
	}

	it.current = it.page[0]
	it.page = it.page[1:]
	return true
}

func (it *RecordIterator) Record() Record {
	return it.current
}

func (it *RecordIterator) Err() error {
	return it.err
}

// Pages is the number of pages fetched so far.
func (it *RecordIterator) Pages() int {
	return it.pages
}

func (it *RecordIterator) fetch(ctx context.Context) error {
	s := it.stream
	req, err := s.PageRequest(ctx, it.cursor)
	if err != nil {
		return err
	}

	resp, err := s.Client.Do(ctx, req)
	if err != nil {
		return errors.Wrapf(err, "unable to fetch page %d of %v", it.pages+1, s.Config.Name)
	}
	it.pages++

	nodes, err := ajson.JSONPath(resp.Body, resultsPath)
	if err != nil {
		return errors.Wrapf(err, "unable to read results of %v", s.Config.Name)
	}
	records := make([]Record, 0, len(nodes))
	for _, node := range nodes {
		record, err := ProjectRecord(node.Source(), s.Config.ReplicationKey)
		if err != nil {
			return errors.Wrapf(err, "stream %v", s.Config.Name)
		}
		records = append(records, record)
	}

	next, err := s.paginator.NextCursor(resp.Body)
	if err != nil {
		return err
	}
	if next != nil && it.cursor != nil && *next == *it.cursor {
		return errors.Errorf("stream %v: next page token %q repeats the previous one", s.Config.Name, *next)
	}

	it.page = records
	it.cursor = next
	it.done = next == nil
	return nil
}
