package internal

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pageWithToken(token string) []byte {
	return []byte(fmt.Sprintf(`{"results": [], "paging": {"next": {"after": %s, "link": "?after=x"}}}`, token))
}

func TestPaginator_SearchCeiling(t *testing.T) {
	p := Paginator{Stream: streamRegistry["deals"]}

	tests := []struct {
		token    string
		expected *string
	}{
		{token: `"100"`, expected: strPtr("100")},
		{token: `"9899"`, expected: strPtr("9899")},
		{token: `"9900"`, expected: nil},
		{token: `"9999"`, expected: nil},
		{token: `"10000"`, expected: nil},
		{token: `"250000"`, expected: nil},
		{token: `9950`, expected: nil},
		{token: `"MTIzNDU2"`, expected: strPtr("MTIzNDU2")},
	}

	for _, tc := range tests {
		t.Run(tc.token, func(t *testing.T) {
			next, err := p.NextCursor(pageWithToken(tc.token))
			require.NoError(t, err)
			assert.Equal(t, tc.expected, next)
		})
	}
}

func TestPaginator_ListingStreamsAreNotCapped(t *testing.T) {
	fullTable := streamRegistry["tickets"]
	fullTable.ReplicationMethod = REPLICATION_FULL_TABLE

	for _, sc := range []StreamConfig{streamRegistry["owners"], fullTable} {
		p := Paginator{Stream: sc}
		next, err := p.NextCursor(pageWithToken(`"20000"`))
		require.NoError(t, err)
		require.NotNil(t, next, sc.Name)
		assert.Equal(t, "20000", *next)
	}
}

func TestPaginator_EndOfPages(t *testing.T) {
	p := Paginator{Stream: streamRegistry["deals"]}

	for _, body := range []string{
		`{"results": []}`,
		`{"results": [], "paging": {}}`,
		`{"results": [], "paging": {"next": {"after": null}}}`,
	} {
		next, err := p.NextCursor([]byte(body))
		require.NoError(t, err)
		assert.Nil(t, next, body)
	}
}

func TestPaginator_TestModeStopsAfterFirstPage(t *testing.T) {
	for _, sc := range []StreamConfig{streamRegistry["deals"], streamRegistry["owners"]} {
		p := Paginator{Stream: sc, Test: true}
		next, err := p.NextCursor(pageWithToken(`"100"`))
		require.NoError(t, err)
		assert.Nil(t, next)

		next, err = p.NextCursor([]byte("not even json"))
		require.NoError(t, err)
		assert.Nil(t, next)
	}
}

func TestPaginator_RejectsInvalidPayload(t *testing.T) {
	p := Paginator{Stream: streamRegistry["deals"]}
	_, err := p.NextCursor([]byte("<html>"))
	assert.Error(t, err)
}

func strPtr(s string) *string {
	return &s
}
