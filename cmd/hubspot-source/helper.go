package hubspot_source

import (
	"os"

	"github.com/pkg/errors"
	"github.com/planetscale/connect/hubspot/cmd/internal"
	"github.com/planetscale/connect/hubspot/lib"
)

type Helper struct {
	NewClient  func(cfg lib.ClientConfig) lib.HubspotClient
	NewStorage func(cfg lib.StorageConfig) (lib.Storage, error)
	FileReader FileReader
	// Serializer is built from the command's output when nil.
	Serializer internal.SingerSerializer
}

type FileReader interface {
	ReadFile(path string) ([]byte, error)
}

type fileReader struct{}

func (f fileReader) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func DefaultHelper() *Helper {
	return &Helper{
		NewClient:  lib.NewHubspotClient,
		NewStorage: lib.NewStorage,
		FileReader: fileReader{},
	}
}

func parseSource(reader FileReader, configFilePath string) (*internal.HubspotSource, error) {
	contents, err := reader.ReadFile(configFilePath)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read config file %v", configFilePath)
	}
	return internal.ParseSource(contents)
}
