package hubspot_source

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/planetscale/connect/hubspot/cmd/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscover_PrintsStaticCatalog(t *testing.T) {
	discover := DiscoverCommand(DefaultHelper())
	b := bytes.NewBufferString("")
	discover.SetOut(b)
	discover.SetArgs([]string{})
	require.NoError(t, discover.Execute())

	var catalog internal.Catalog
	require.NoError(t, json.Unmarshal(b.Bytes(), &catalog))
	require.Len(t, catalog.Streams, 10)

	byName := map[string]internal.CatalogEntry{}
	for _, s := range catalog.Streams {
		byName[s.Stream] = s
	}
	assert.Equal(t, "lastmodifieddate", byName["contacts"].ReplicationKey)
	assert.Equal(t, internal.REPLICATION_INCREMENTAL, byName["contacts"].ReplicationMethod)
	assert.Equal(t, "hs_lastmodifieddate", byName["deals"].ReplicationKey)
	assert.Equal(t, internal.REPLICATION_FULL_TABLE, byName["owners"].ReplicationMethod)
	assert.Equal(t, []string{"id"}, byName["owners"].KeyProperties)
}
