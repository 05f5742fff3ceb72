package internal

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/planetscale/connect/hubspot/lib"
)

// ErrInvalidStreamSort is returned when a stream declared as sorted yields a
// replication key value older than one already checkpointed.
var ErrInvalidStreamSort = errors.New("unsorted records detected in a sorted stream")

const progressMarkerNote = "Progress is not resumable if interrupted."

// Layouts without a zone are read as UTC.
var datetimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseDatetime accepts ISO-8601 timestamps such as 2022-04-13T07:41:30.007Z as
// well as bare dates.
func ParseDatetime(value string) (time.Time, error) {
	for _, layout := range datetimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.Errorf("unrecognized datetime %q", value)
}

func formatDatetime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// ResolveStartingValue returns the lower bound for an incremental sync: the
// stream's bookmark, then the configured start date, then nothing. An unparseable
// start date is logged and ignored.
func ResolveStartingValue(state *lib.StreamState, startFrom string, logger SingerSerializer) (*time.Time, error) {
	if state != nil {
		v, err := state.ReplicationValue()
		if err != nil {
			return nil, err
		}
		if v != nil {
			return v, nil
		}
	}

	if startFrom == "" {
		return nil, nil
	}
	t, err := ParseDatetime(startFrom)
	if err != nil {
		logger.Error(fmt.Sprintf("Could not parse starting date: '%v'", startFrom))
		return nil, nil
	}
	return &t, nil
}

// Checkpointer advances a stream's bookmark from the records it emits.
type Checkpointer struct {
	stream StreamConfig
	state  *lib.StreamState
	latest *time.Time
}

func NewCheckpointer(stream StreamConfig, state *lib.StreamState) (*Checkpointer, error) {
	c := &Checkpointer{
		stream: stream,
		state:  state,
	}
	if !c.tracking() {
		return c, nil
	}

	state.ReplicationKey = stream.ReplicationKey
	latest, err := state.ReplicationValue()
	if err != nil {
		return nil, err
	}
	c.latest = latest
	return c, nil
}

func (c *Checkpointer) tracking() bool {
	return c.stream.ReplicationMethod == REPLICATION_INCREMENTAL && c.stream.ReplicationKey != ""
}

// Advance moves the bookmark forward using the record's top level replication key.
func (c *Checkpointer) Advance(record Record) error {
	if !c.tracking() {
		return nil
	}

	value, ok := record[c.stream.ReplicationKey].(*time.Time)
	if !ok || value == nil {
		return nil
	}

	if !c.stream.IsSorted() {
		c.observeUnsorted(*value)
		return nil
	}

	if c.latest != nil && value.Before(*c.latest) {
		return errors.Wrapf(ErrInvalidStreamSort, "stream %v: %v %v is older than checkpoint %v",
			c.stream.Name, c.stream.ReplicationKey, formatDatetime(*value), formatDatetime(*c.latest))
	}
	v := *value
	c.latest = &v
	c.state.ReplicationKeyValue = formatDatetime(v)
	return nil
}

func (c *Checkpointer) observeUnsorted(value time.Time) {
	pm := c.state.ProgressMarkers
	if pm == nil {
		pm = &lib.ProgressMarkers{
			Note:           progressMarkerNote,
			ReplicationKey: c.stream.ReplicationKey,
		}
		c.state.ProgressMarkers = pm
	}

	if pm.ReplicationKeyValue != "" {
		current, err := ParseDatetime(pm.ReplicationKeyValue)
		if err == nil && !value.After(current) {
			return
		}
	}
	pm.ReplicationKeyValue = formatDatetime(value)
}

// Finalize promotes progress markers into the bookmark once a stream completed.
func (c *Checkpointer) Finalize() {
	if !c.tracking() {
		return
	}
	pm := c.state.ProgressMarkers
	if pm == nil {
		return
	}
	c.state.ProgressMarkers = nil
	if pm.ReplicationKeyValue == "" {
		return
	}

	marker, err := ParseDatetime(pm.ReplicationKeyValue)
	if err != nil {
		return
	}
	if c.latest == nil || marker.After(*c.latest) {
		c.latest = &marker
		c.state.ReplicationKeyValue = formatDatetime(marker)
	}
}
