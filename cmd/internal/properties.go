package internal

import (
	"context"
	"net/http"
	"sync"

	"github.com/pkg/errors"
	"github.com/planetscale/connect/hubspot/lib"
	"github.com/spyzhov/ajson"
)

const propertyNamesPath = "$.results[*].name"

// propertyCache holds the property names of one object type for the lifetime of a
// stream. It is populated on first use and never refreshed.
type propertyCache struct {
	once  sync.Once
	names []string
	err   error
}

func (pc *propertyCache) get(ctx context.Context, client lib.HubspotClient, objectType string) ([]string, error) {
	pc.once.Do(func() {
		pc.names, pc.err = fetchPropertyNames(ctx, client, objectType)
	})
	return pc.names, pc.err
}

func fetchPropertyNames(ctx context.Context, client lib.HubspotClient, objectType string) ([]string, error) {
	if objectType == "" {
		return nil, nil
	}

	resp, err := client.Do(ctx, &lib.Request{
		Method: http.MethodGet,
		Path:   "/crm/v3/properties/" + objectType,
	})
	if err != nil {
		var httpErr *lib.HTTPError
		if errors.As(err, &httpErr) {
			return nil, errors.Errorf("could not fetch properties: %d, %s", httpErr.StatusCode, httpErr.Body)
		}
		return nil, errors.Wrapf(err, "could not fetch properties for %v", objectType)
	}
	if !resp.IsSuccess() {
		return nil, errors.Errorf("could not fetch properties: %d, %s", resp.StatusCode, string(resp.Body))
	}

	nodes, err := ajson.JSONPath(resp.Body, propertyNamesPath)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read properties for %v", objectType)
	}

	names := make([]string, 0, len(nodes))
	for _, node := range nodes {
		name, err := node.GetString()
		if err != nil {
			return nil, errors.Wrapf(err, "unexpected property name in %v listing", objectType)
		}
		names = append(names, name)
	}
	return names, nil
}
