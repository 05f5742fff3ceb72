package internal

import (
	"strconv"

	"github.com/pkg/errors"
	"github.com/spyzhov/ajson"
)

// nextPageTokenPath selects the continuation token. It should only ever match at
// most one node; if it matches more, the first one in document order is used.
const nextPageTokenPath = "$.paging.next.after"

// Paginator derives the next cursor from a page of results.
type Paginator struct {
	Stream StreamConfig
	// Test stops after the first page.
	Test bool
}

// NextCursor returns the token for the following page, or nil once there are no
// more pages to fetch.
func (p Paginator) NextCursor(body []byte) (*string, error) {
	if p.Test {
		return nil, nil
	}

	nodes, err := ajson.JSONPath(body, nextPageTokenPath)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read next page token")
	}
	if len(nodes) == 0 || nodes[0].IsNull() {
		return nil, nil
	}

	var token string
	if nodes[0].IsString() {
		token, err = nodes[0].GetString()
		if err != nil {
			return nil, errors.Wrap(err, "unable to read next page token")
		}
	} else {
		token = string(nodes[0].Source())
	}

	if p.Stream.UsesSearch() && pastSearchCeiling(token) {
		return nil, nil
	}
	return &token, nil
}

// pastSearchCeiling reports whether fetching from token would reach the offset the
// search endpoint rejects. Tokens that are not offsets are never past it.
func pastSearchCeiling(token string) bool {
	offset, err := strconv.Atoi(token)
	if err != nil {
		return false
	}
	return offset+searchPageLimit >= searchOffsetCeiling
}
