package internal

import (
	"os"

	"github.com/pkg/errors"
	"github.com/planetscale/connect/hubspot/lib"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPageLimit = 100
	DefaultBatchSize = 1_000_000

	credentialEnvVar = "HUBSPOT_HAPIKEY"
)

type BatchConfig struct {
	Encoding BatchEncoding     `json:"encoding" yaml:"encoding"`
	Storage  lib.StorageConfig `json:"storage" yaml:"storage"`
}

// HubspotSource is the tap configuration. JSON configs parse as YAML, so either
// format is accepted.
type HubspotSource struct {
	HapiKey     string       `json:"hapikey" yaml:"hapikey"`
	AccessToken string       `json:"access_token" yaml:"access_token"`
	APIURL      string       `json:"api_url" yaml:"api_url"`
	Limit       int          `json:"limit" yaml:"limit"`
	BatchSize   int          `json:"batch_size" yaml:"batch_size"`
	StartFrom   string       `json:"start_from" yaml:"start_from"`
	UserAgent   string       `json:"user_agent" yaml:"user_agent"`
	Test        bool         `json:"test" yaml:"test"`
	LogLevel    string       `json:"log_level" yaml:"log_level"`
	BatchConfig *BatchConfig `json:"batch_config" yaml:"batch_config"`
}

func ParseSource(contents []byte) (*HubspotSource, error) {
	var hs HubspotSource
	if err := yaml.Unmarshal(contents, &hs); err != nil {
		return nil, errors.Wrap(err, "unable to parse source configuration")
	}

	if hs.Limit <= 0 {
		hs.Limit = DefaultPageLimit
	}
	if hs.BatchSize <= 0 {
		hs.BatchSize = DefaultBatchSize
	}
	if hs.BatchConfig != nil {
		if hs.BatchConfig.Encoding.Format == "" {
			hs.BatchConfig.Encoding.Format = "jsonl"
		}
		if hs.BatchConfig.Encoding.Compression == "" {
			hs.BatchConfig.Encoding.Compression = "gzip"
		}
	}
	return &hs, nil
}

// Credential returns the private app token, falling back to the environment.
func (hs HubspotSource) Credential() string {
	switch {
	case hs.HapiKey != "":
		return hs.HapiKey
	case hs.AccessToken != "":
		return hs.AccessToken
	default:
		return os.Getenv(credentialEnvVar)
	}
}

func (hs HubspotSource) ClientConfig() lib.ClientConfig {
	return lib.ClientConfig{
		BaseURL:     hs.APIURL,
		AccessToken: hs.Credential(),
		UserAgent:   hs.UserAgent,
	}
}
