package internal

import (
	"sort"

	"github.com/pkg/errors"
)

// StreamConfig describes one HubSpot object stream. Streams differ only in data,
// so every capability the paginator and request builder need lives here.
type StreamConfig struct {
	Name                 string
	Path                 string
	PropertiesObjectType string
	ReplicationKey       string
	ReplicationMethod    string
	// ForcedGet bypasses the search endpoint even for incremental syncs.
	ForcedGet     bool
	KeyProperties []string
}

// UsesSearch reports whether pages come from the POST search endpoint.
func (s StreamConfig) UsesSearch() bool {
	return !s.ForcedGet && s.ReplicationMethod == REPLICATION_INCREMENTAL
}

// IsSorted reports whether records arrive in replication key order, which makes an
// interrupted incremental sync resumable. HubSpot does not honour the sort for
// contacts.
func (s StreamConfig) IsSorted() bool {
	return s.ReplicationMethod == REPLICATION_INCREMENTAL && s.Name != "contacts"
}

func (s StreamConfig) SearchPath() string {
	return s.Path + "/search"
}

func crmObjectStream(name, replicationKey string) StreamConfig {
	return StreamConfig{
		Name:                 name,
		Path:                 "/crm/v3/objects/" + name,
		PropertiesObjectType: name,
		ReplicationKey:       replicationKey,
		ReplicationMethod:    REPLICATION_INCREMENTAL,
		KeyProperties:        []string{"id"},
	}
}

var streamRegistry = map[string]StreamConfig{
	"companies": crmObjectStream("companies", "hs_lastmodifieddate"),
	"contacts":  crmObjectStream("contacts", "lastmodifieddate"),
	"calls":     crmObjectStream("calls", "hs_lastmodifieddate"),
	"deals":     crmObjectStream("deals", "hs_lastmodifieddate"),
	"emails":    crmObjectStream("emails", "hs_lastmodifieddate"),
	"meetings":  crmObjectStream("meetings", "hs_lastmodifieddate"),
	"notes":     crmObjectStream("notes", "hs_lastmodifieddate"),
	"tasks":     crmObjectStream("tasks", "hs_lastmodifieddate"),
	"tickets":   crmObjectStream("tickets", "hs_lastmodifieddate"),
	"owners": {
		Name:              "owners",
		Path:              "/crm/v3/owners",
		ReplicationMethod: REPLICATION_FULL_TABLE,
		ForcedGet:         true,
		KeyProperties:     []string{"id"},
	},
}

// LookupStream returns the registered stream, with the replication method taken
// from the catalog entry when one is given.
func LookupStream(entry CatalogEntry) (StreamConfig, error) {
	sc, ok := streamRegistry[entry.Stream]
	if !ok {
		return sc, errors.Errorf("unknown stream %q", entry.Stream)
	}

	switch entry.ReplicationMethod {
	case REPLICATION_FULL_TABLE:
		sc.ReplicationMethod = REPLICATION_FULL_TABLE
	case REPLICATION_INCREMENTAL:
		if sc.ReplicationKey == "" {
			return sc, errors.Errorf("stream %q has no replication key and cannot sync incrementally", sc.Name)
		}
		sc.ReplicationMethod = REPLICATION_INCREMENTAL
	}
	return sc, nil
}

// DefaultCatalog lists every known stream, selected, with its default replication.
func DefaultCatalog() Catalog {
	names := make([]string, 0, len(streamRegistry))
	for name := range streamRegistry {
		names = append(names, name)
	}
	sort.Strings(names)

	var c Catalog
	for _, name := range names {
		c.Streams = append(c.Streams, catalogEntry(streamRegistry[name]))
	}
	return c
}

func catalogEntry(sc StreamConfig) CatalogEntry {
	schema := StreamSchema{
		Type: "object",
		Properties: map[string]PropertyType{
			"id":           {Type: []string{"string"}},
			"createdAt":    {Type: []string{"null", "string"}, Format: "date-time"},
			"updatedAt":    {Type: []string{"null", "string"}, Format: "date-time"},
			"archived":     {Type: []string{"null", "boolean"}},
			"properties":   {Type: []string{"null", "string"}},
			"associations": {Type: []string{"null", "string"}},
		},
	}
	if sc.ReplicationKey != "" {
		schema.Properties[sc.ReplicationKey] = PropertyType{Type: []string{"null", "string"}, Format: "date-time"}
	}

	return CatalogEntry{
		TapStreamID:       sc.Name,
		Stream:            sc.Name,
		Schema:            schema,
		KeyProperties:     sc.KeyProperties,
		ReplicationKey:    sc.ReplicationKey,
		ReplicationMethod: sc.ReplicationMethod,
	}
}
