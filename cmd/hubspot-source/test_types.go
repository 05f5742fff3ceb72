package hubspot_source

import (
	"context"
	"net/http"
	"os"
	"strings"

	"github.com/planetscale/connect/hubspot/lib"
)

// testFileReader serves files from memory, falling back to disk for unknown paths.
type testFileReader struct {
	files map[string][]byte
}

func (tfr testFileReader) ReadFile(path string) ([]byte, error) {
	if content, ok := tfr.files[path]; ok {
		return content, nil
	}
	return os.ReadFile(path)
}

type testHubspotClient struct {
	cfg      lib.ClientConfig
	pages    map[string]string
	requests []*lib.Request
}

func (thc *testHubspotClient) Do(ctx context.Context, req *lib.Request) (*lib.Response, error) {
	thc.requests = append(thc.requests, req)
	for prefix, body := range thc.pages {
		if strings.HasPrefix(req.Path, prefix) {
			return &lib.Response{StatusCode: http.StatusOK, Body: []byte(body)}, nil
		}
	}
	return &lib.Response{StatusCode: http.StatusOK, Body: []byte(`{"results": []}`)}, nil
}
