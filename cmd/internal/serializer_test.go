package internal

import (
	"bufio"
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/planetscale/connect/hubspot/lib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeMessages(t *testing.T, b *bytes.Buffer) []map[string]interface{} {
	var msgs []map[string]interface{}
	scanner := bufio.NewScanner(b)
	for scanner.Scan() {
		var msg map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &msg))
		msgs = append(msgs, msg)
	}
	return msgs
}

func TestSerializer_StateFlushesQueuedRecords(t *testing.T) {
	b := bytes.NewBufferString("")
	s := NewSerializer(b, nil)

	ts := time.Date(2022, 4, 13, 7, 41, 30, 7_000_000, time.UTC)
	require.NoError(t, s.Record("deals", Record{"id": json.RawMessage(`"1"`), "hs_lastmodifieddate": &ts}))
	assert.Empty(t, b.String(), "records are buffered")

	state := lib.NewSyncState()
	state.Stream("deals").ReplicationKeyValue = "2022-04-13T07:41:30.007Z"
	require.NoError(t, s.State(state))

	msgs := decodeMessages(t, b)
	require.Len(t, msgs, 2)
	assert.Equal(t, RECORD, msgs[0]["type"])
	assert.Equal(t, "deals", msgs[0]["stream"])
	assert.Equal(t, map[string]interface{}{"id": "1", "hs_lastmodifieddate": "2022-04-13T07:41:30.007Z"}, msgs[0]["record"])
	assert.NotEmpty(t, msgs[0]["time_extracted"])
	assert.Equal(t, STATE, msgs[1]["type"])
	assert.Equal(t, map[string]interface{}{
		"bookmarks": map[string]interface{}{
			"deals": map[string]interface{}{"replication_key_value": "2022-04-13T07:41:30.007Z"},
		},
	}, msgs[1]["value"])
}

func TestSerializer_RecordsFlushAtMaxBatchSize(t *testing.T) {
	b := bytes.NewBufferString("")
	s := NewSerializer(b, nil)

	for i := 0; i < MaxBatchSize; i++ {
		require.NoError(t, s.Record("owners", Record{"id": i}))
	}
	assert.Len(t, decodeMessages(t, b), MaxBatchSize)
}

func TestSerializer_SchemaAndBatch(t *testing.T) {
	b := bytes.NewBufferString("")
	s := NewSerializer(b, nil)

	require.NoError(t, s.Schema(catalogEntry(streamRegistry["contacts"])))
	require.NoError(t, s.Batch("contacts", Batch{
		Encoding: BatchEncoding{Format: "jsonl", Compression: "gzip"},
		Manifest: []string{"file:///tmp/contacts-1.json.gz"},
	}))

	msgs := decodeMessages(t, b)
	require.Len(t, msgs, 2)
	assert.Equal(t, SCHEMA, msgs[0]["type"])
	assert.Equal(t, []interface{}{"id"}, msgs[0]["key_properties"])
	assert.Equal(t, []interface{}{"lastmodifieddate"}, msgs[0]["bookmark_properties"])
	assert.Equal(t, BATCH, msgs[1]["type"])
	assert.Equal(t, map[string]interface{}{"format": "jsonl", "compression": "gzip"}, msgs[1]["encoding"])
	assert.Equal(t, []interface{}{"file:///tmp/contacts-1.json.gz"}, msgs[1]["manifest"])
}

func TestZapLogger_WritesJSONLines(t *testing.T) {
	b := bytes.NewBufferString("")
	s := NewSerializer(bytes.NewBufferString(""), NewZapLogger(b, "warn"))

	s.Info("hidden")
	s.Log(LOGLEVEL_WARN, "shown")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(b.Bytes(), &line))
	assert.Equal(t, "shown", line["msg"])
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, TapName, line["logger"])
}
