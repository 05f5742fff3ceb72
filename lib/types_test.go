package lib

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSyncState(t *testing.T) {
	state, err := ParseSyncState([]byte(`{"bookmarks": {"contacts": {"replication_key": "lastmodifieddate", "replication_key_value": "2022-04-13T07:41:30.007Z"}}}`))
	require.NoError(t, err)

	contacts := state.Stream("contacts")
	assert.Equal(t, "lastmodifieddate", contacts.ReplicationKey)
	value, err := contacts.ReplicationValue()
	require.NoError(t, err)
	assert.True(t, time.Date(2022, 4, 13, 7, 41, 30, 7_000_000, time.UTC).Equal(*value))

	deals := state.Stream("deals")
	value, err = deals.ReplicationValue()
	require.NoError(t, err)
	assert.Nil(t, value)
	assert.Contains(t, state.Bookmarks, "deals")
}

func TestParseSyncState_Empty(t *testing.T) {
	for _, input := range []string{"", "{}", `{"bookmarks": null}`} {
		state, err := ParseSyncState([]byte(input))
		require.NoError(t, err, input)
		assert.NotNil(t, state.Bookmarks, input)
	}

	_, err := ParseSyncState([]byte("{"))
	assert.Error(t, err)
}

func TestSyncState_SerializesProgressMarkers(t *testing.T) {
	state := NewSyncState()
	state.Stream("contacts").ProgressMarkers = &ProgressMarkers{
		Note:                "Progress is not resumable if interrupted.",
		ReplicationKey:      "lastmodifieddate",
		ReplicationKeyValue: "2022-01-01T00:00:00Z",
	}

	b, err := json.Marshal(state)
	require.NoError(t, err)
	assert.JSONEq(t, `{"bookmarks": {"contacts": {"progress_markers": {"Note": "Progress is not resumable if interrupted.", "replication_key": "lastmodifieddate", "replication_key_value": "2022-01-01T00:00:00Z"}}}}`, string(b))
}
