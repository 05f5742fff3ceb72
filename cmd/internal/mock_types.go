package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/planetscale/connect/hubspot/lib"
)

type testSingerSerializer struct {
	logMessages map[string][]string
	schemas     []CatalogEntry
	records     map[string][]Record
	batches     map[string][]Batch
	states      []lib.SyncState
}

func (tss *testSingerSerializer) Log(level, message string) {
	if tss.logMessages == nil {
		tss.logMessages = map[string][]string{}
	}
	tss.logMessages[level] = append(tss.logMessages[level], message)
}

func (tss *testSingerSerializer) Info(message string) {
	tss.Log(LOGLEVEL_INFO, message)
}

func (tss *testSingerSerializer) Error(message string) {
	tss.Log(LOGLEVEL_ERROR, message)
}

func (tss *testSingerSerializer) Schema(stream CatalogEntry) error {
	tss.schemas = append(tss.schemas, stream)
	return nil
}

func (tss *testSingerSerializer) Record(stream string, data Record) error {
	if tss.records == nil {
		tss.records = map[string][]Record{}
	}
	tss.records[stream] = append(tss.records[stream], data)
	return nil
}

func (tss *testSingerSerializer) Batch(stream string, batch Batch) error {
	if tss.batches == nil {
		tss.batches = map[string][]Batch{}
	}
	tss.batches[stream] = append(tss.batches[stream], batch)
	return nil
}

// State keeps a deep copy, the syncer keeps mutating the bookmarks it hands over.
func (tss *testSingerSerializer) State(syncState lib.SyncState) error {
	b, err := json.Marshal(syncState)
	if err != nil {
		return err
	}
	copied, err := lib.ParseSyncState(b)
	if err != nil {
		return err
	}
	tss.states = append(tss.states, copied)
	return nil
}

func (tss *testSingerSerializer) Flush() error {
	return nil
}

func (tss *testSingerSerializer) lastState() lib.SyncState {
	if len(tss.states) == 0 {
		return lib.NewSyncState()
	}
	return tss.states[len(tss.states)-1]
}

// testHubspotClient answers property listings with properties and every other
// request with the next entry of pages.
type testHubspotClient struct {
	properties   string
	propertyCode int
	pages        []string
	requests     []*lib.Request
}

func (thc *testHubspotClient) Do(ctx context.Context, req *lib.Request) (*lib.Response, error) {
	thc.requests = append(thc.requests, req)

	if strings.HasPrefix(req.Path, "/crm/v3/properties/") {
		code := thc.propertyCode
		if code == 0 {
			code = http.StatusOK
		}
		resp := &lib.Response{StatusCode: code, Body: []byte(thc.properties)}
		if !resp.IsSuccess() {
			return resp, &lib.HTTPError{StatusCode: code, Body: thc.properties}
		}
		return resp, nil
	}

	body := `{"results": []}`
	if len(thc.pages) > 0 {
		body, thc.pages = thc.pages[0], thc.pages[1:]
	}
	return &lib.Response{StatusCode: http.StatusOK, Body: []byte(body)}, nil
}

// pageRequests returns the requests sent for pages, leaving out property listings.
func (thc *testHubspotClient) pageRequests() []*lib.Request {
	var reqs []*lib.Request
	for _, req := range thc.requests {
		if !strings.HasPrefix(req.Path, "/crm/v3/properties/") {
			reqs = append(reqs, req)
		}
	}
	return reqs
}

// sliceSource is a RecordSource over records already in memory.
type sliceSource struct {
	records []Record
	current Record
}

func (s *sliceSource) Next(ctx context.Context) bool {
	if len(s.records) == 0 {
		return false
	}
	s.current, s.records = s.records[0], s.records[1:]
	return true
}

func (s *sliceSource) Record() Record {
	return s.current
}

func (s *sliceSource) Err() error {
	return nil
}

var errStorageFull = errors.New("no space left on device")

// testStorage keeps batch files in memory and counts how often each one is closed.
// With failWrites set, every write fails.
type testStorage struct {
	failWrites bool
	writers    []*testWriter
}

func (ts *testStorage) Create(ctx context.Context, name string) (io.WriteCloser, error) {
	w := &testWriter{fail: ts.failWrites}
	ts.writers = append(ts.writers, w)
	return w, nil
}

func (ts *testStorage) URL(name string) string {
	return "memory://" + name
}

type testWriter struct {
	fail   bool
	data   bytes.Buffer
	closed int
}

func (tw *testWriter) Write(p []byte) (int, error) {
	if tw.fail {
		return 0, errStorageFull
	}
	return tw.data.Write(p)
}

func (tw *testWriter) Close() error {
	tw.closed++
	return nil
}

// erroringSource yields its records and then reports err instead of ending cleanly.
type erroringSource struct {
	sliceSource
	err error
}

func (s *erroringSource) Err() error {
	if len(s.records) == 0 {
		return s.err
	}
	return nil
}
