package internal

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/planetscale/connect/hubspot/lib"
)

const (
	// searchPageLimit is the largest page the search endpoint serves.
	searchPageLimit = 100
	// searchOffsetCeiling is the first offset the search endpoint refuses.
	searchOffsetCeiling = 10000
)

type searchSort struct {
	PropertyName string `json:"propertyName"`
	Direction    string `json:"direction"`
}

type searchFilter struct {
	PropertyName string `json:"propertyName"`
	Operator     string `json:"operator"`
	Value        int64  `json:"value"`
}

type searchFilterGroup struct {
	Filters []searchFilter `json:"filters"`
}

// SearchBody is the JSON payload posted to an object's search endpoint.
type SearchBody struct {
	Sorts        []searchSort        `json:"sorts"`
	Limit        int                 `json:"limit"`
	Properties   []string            `json:"properties,omitempty"`
	After        *string             `json:"after,omitempty"`
	FilterGroups []searchFilterGroup `json:"filterGroups,omitempty"`
}

// RequestBuilder produces the request for one page of a stream.
type RequestBuilder struct {
	Stream StreamConfig
	// Limit is the page size for listing (GET) requests.
	Limit int
	// StartingValue is the lower bound for search requests; nil means no filter.
	StartingValue *time.Time
}

func (rb RequestBuilder) Build(properties []string, cursor *string) *lib.Request {
	if !rb.Stream.UsesSearch() {
		return rb.listingRequest(properties, cursor)
	}
	return rb.searchRequest(properties, cursor)
}

func (rb RequestBuilder) listingRequest(properties []string, cursor *string) *lib.Request {
	limit := rb.Limit
	if limit <= 0 {
		limit = DefaultPageLimit
	}

	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	if len(properties) > 0 {
		query.Set("properties", strings.Join(properties, ","))
	}
	if cursor != nil {
		query.Set("after", *cursor)
	}

	return &lib.Request{
		Method: http.MethodGet,
		Path:   rb.Stream.Path,
		Query:  query,
	}
}

func (rb RequestBuilder) searchRequest(properties []string, cursor *string) *lib.Request {
	body := SearchBody{
		Sorts: []searchSort{{
			PropertyName: rb.Stream.ReplicationKey,
			Direction:    "ASCENDING",
		}},
		Limit: searchPageLimit,
		After: cursor,
	}
	if len(properties) > 0 {
		body.Properties = properties
	}
	if rb.StartingValue != nil {
		body.FilterGroups = []searchFilterGroup{{
			Filters: []searchFilter{{
				PropertyName: rb.Stream.ReplicationKey,
				Operator:     "GTE",
				Value:        rb.StartingValue.UnixMilli(),
			}},
		}}
	}

	return &lib.Request{
		Method: http.MethodPost,
		Path:   rb.Stream.SearchPath(),
		Body:   body,
	}
}
