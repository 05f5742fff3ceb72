package internal

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectRecord_SerializesNestedObjects(t *testing.T) {
	record, err := ProjectRecord([]byte(`{"id": "1", "properties": {"a": 1}, "associations": {"b": 2}}`), "")
	require.NoError(t, err)

	assert.Equal(t, `{"a": 1}`, record["properties"])
	assert.Equal(t, `{"b": 2}`, record["associations"])
	assert.Equal(t, json.RawMessage(`"1"`), record["id"])
}

func TestProjectRecord_PreservesKeyOrder(t *testing.T) {
	raw := `{"properties":{"zeta":"z","alpha":[1,2.50,{"y":null,"x":true}],"html":"<b>&</b>","name":"Zoë \"Z\""}}`
	record, err := ProjectRecord([]byte(raw), "")
	require.NoError(t, err)

	assert.Equal(t,
		`{"zeta": "z", "alpha": [1, 2.50, {"y": null, "x": true}], "html": "<b>&</b>", "name": "Zo\u00eb \"Z\""}`,
		record["properties"])
}

func TestProjectRecord_EscapesNonASCII(t *testing.T) {
	raw := `{"properties": {"city": "Zürich", "note": "line\nnext\ttab\u0001", "mood": "😀", "del": "\u007f"}}`
	record, err := ProjectRecord([]byte(raw), "")
	require.NoError(t, err)

	assert.Equal(t,
		`{"city": "Z\u00fcrich", "note": "line\nnext\ttab\u0001", "mood": "\ud83d\ude00", "del": "\u007f"}`,
		record["properties"])
}

func TestProjectRecord_EmptyAndNullObjects(t *testing.T) {
	record, err := ProjectRecord([]byte(`{"properties": {}, "associations": null}`), "")
	require.NoError(t, err)
	assert.Equal(t, "{}", record["properties"])
	assert.Equal(t, "null", record["associations"])
}

func TestProjectRecord_LiftsReplicationKey(t *testing.T) {
	record, err := ProjectRecord([]byte(`{"properties": {"lastmodifieddate": "2022-04-13T07:41:30.007Z"}}`), "lastmodifieddate")
	require.NoError(t, err)

	expected := time.Date(2022, 4, 13, 7, 41, 30, 7_000_000, time.UTC)
	lifted, ok := record["lastmodifieddate"].(*time.Time)
	require.True(t, ok)
	require.NotNil(t, lifted)
	assert.True(t, expected.Equal(*lifted))
	assert.Equal(t, `{"lastmodifieddate": "2022-04-13T07:41:30.007Z"}`, record["properties"])
}

func TestProjectRecord_MissingReplicationKeyIsNull(t *testing.T) {
	for _, raw := range []string{
		`{"id": "1"}`,
		`{"id": "1", "properties": {"name": "acme"}}`,
		`{"id": "1", "properties": {"hs_lastmodifieddate": null}}`,
	} {
		record, err := ProjectRecord([]byte(raw), "hs_lastmodifieddate")
		require.NoError(t, err, raw)
		assert.Contains(t, record, "hs_lastmodifieddate")
		assert.Nil(t, record["hs_lastmodifieddate"], raw)
	}
}

func TestProjectRecord_InvalidReplicationKeyValue(t *testing.T) {
	_, err := ProjectRecord([]byte(`{"properties": {"hs_lastmodifieddate": "yesterday"}}`), "hs_lastmodifieddate")
	assert.Error(t, err)
}

func TestProjectRecord_SerializesToSingerRecord(t *testing.T) {
	record, err := ProjectRecord([]byte(`{"id": "7", "archived": false, "properties": {"hs_lastmodifieddate": "2022-04-13T07:41:30.007Z"}}`), "hs_lastmodifieddate")
	require.NoError(t, err)

	b, err := json.Marshal(record)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, "7", out["id"])
	assert.Equal(t, false, out["archived"])
	assert.Equal(t, "2022-04-13T07:41:30.007Z", out["hs_lastmodifieddate"])
	assert.Equal(t, `{"hs_lastmodifieddate": "2022-04-13T07:41:30.007Z"}`, out["properties"])
}
