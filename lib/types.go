package lib

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// ProgressMarkers hold the highest replication key value seen so far for a stream
// whose records are not guaranteed to arrive in order. They are promoted to the
// stream bookmark only once the stream finished syncing.
type ProgressMarkers struct {
	Note                string `json:"Note,omitempty"`
	ReplicationKey      string `json:"replication_key,omitempty"`
	ReplicationKeyValue string `json:"replication_key_value,omitempty"`
}

type StreamState struct {
	ReplicationKey      string           `json:"replication_key,omitempty"`
	ReplicationKeyValue string           `json:"replication_key_value,omitempty"`
	ProgressMarkers     *ProgressMarkers `json:"progress_markers,omitempty"`
}

// ReplicationValue parses the stored bookmark, returning nil when no bookmark exists.
func (s StreamState) ReplicationValue() (*time.Time, error) {
	if s.ReplicationKeyValue == "" {
		return nil, nil
	}

	t, err := time.Parse(time.RFC3339Nano, s.ReplicationKeyValue)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid replication key value %q", s.ReplicationKeyValue)
	}
	return &t, nil
}

type SyncState struct {
	Bookmarks map[string]*StreamState `json:"bookmarks"`
}

func NewSyncState() SyncState {
	return SyncState{
		Bookmarks: map[string]*StreamState{},
	}
}

// Stream returns the bookmark for streamName, creating an empty one if missing.
func (s *SyncState) Stream(streamName string) *StreamState {
	if s.Bookmarks == nil {
		s.Bookmarks = map[string]*StreamState{}
	}
	ss, ok := s.Bookmarks[streamName]
	if !ok || ss == nil {
		ss = &StreamState{}
		s.Bookmarks[streamName] = ss
	}
	return ss
}

func ParseSyncState(b []byte) (SyncState, error) {
	state := NewSyncState()
	if len(b) == 0 {
		return state, nil
	}

	if err := json.Unmarshal(b, &state); err != nil {
		return state, errors.Wrap(err, "unable to deserialize sync state")
	}
	if state.Bookmarks == nil {
		state.Bookmarks = map[string]*StreamState{}
	}
	return state, nil
}
