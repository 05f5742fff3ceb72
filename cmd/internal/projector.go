package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf16"

	"github.com/pkg/errors"
)

// ProjectRecord normalizes one raw API object. Nested properties and associations
// become JSON text, and the replication key, when set, is copied from properties to
// a top level timestamp. Every other field is passed through as raw JSON.
func ProjectRecord(raw []byte, replicationKey string) (Record, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, errors.Wrap(err, "unable to decode record")
	}

	record := make(Record, len(fields)+1)
	for name, value := range fields {
		record[name] = value
	}

	if replicationKey != "" {
		value, err := replicationKeyValue(fields["properties"], replicationKey)
		if err != nil {
			return nil, err
		}
		record[replicationKey] = value
	}

	for _, name := range []string{"properties", "associations"} {
		value, ok := fields[name]
		if !ok {
			continue
		}
		text, err := jsonText(value)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to serialize %v", name)
		}
		record[name] = text
	}
	return record, nil
}

func replicationKeyValue(properties json.RawMessage, key string) (*time.Time, error) {
	if len(properties) == 0 {
		return nil, nil
	}

	var values map[string]json.RawMessage
	if err := json.Unmarshal(properties, &values); err != nil {
		return nil, errors.Wrapf(err, "unable to read %v from properties", key)
	}

	var raw *string
	if v, ok := values[key]; ok {
		if err := json.Unmarshal(v, &raw); err != nil {
			return nil, errors.Wrapf(err, "invalid %v", key)
		}
	}
	if raw == nil {
		return nil, nil
	}

	t, err := ParseDatetime(*raw)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid %v", key)
	}
	return &t, nil
}

// jsonText re-encodes a JSON value keeping its key order, separating items with
// ", " and keys from values with ": ", so {"a":1} becomes {"a": 1}.
func jsonText(raw json.RawMessage) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var buf bytes.Buffer
	if err := writeJSONValue(dec, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func writeJSONValue(dec *json.Decoder, buf *bytes.Buffer) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}

	switch v := tok.(type) {
	case json.Delim:
		open, closing := byte('['), byte(']')
		if v == '{' {
			open, closing = '{', '}'
		}
		buf.WriteByte(open)
		for i := 0; dec.More(); i++ {
			if i > 0 {
				buf.WriteString(", ")
			}
			if open == '{' {
				key, err := dec.Token()
				if err != nil {
					return err
				}
				if err := writeJSONString(buf, key.(string)); err != nil {
					return err
				}
				buf.WriteString(": ")
			}
			if err := writeJSONValue(dec, buf); err != nil {
				return err
			}
		}
		// consume the closing delimiter
		if _, err := dec.Token(); err != nil {
			return err
		}
		buf.WriteByte(closing)
	case string:
		return writeJSONString(buf, v)
	case json.Number:
		buf.WriteString(v.String())
	case bool:
		if v {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case nil:
		buf.WriteString("null")
	}
	return nil
}

// writeJSONString quotes s with every character outside ASCII written as a \uXXXX
// escape, surrogate pairs included, so "Zoë" becomes "Zo\u00eb".
func writeJSONString(buf *bytes.Buffer, s string) error {
	buf.WriteByte('"')
	for _, r := range s {
		switch {
		case r == '"':
			buf.WriteString(`\"`)
		case r == '\\':
			buf.WriteString(`\\`)
		case r == '\n':
			buf.WriteString(`\n`)
		case r == '\r':
			buf.WriteString(`\r`)
		case r == '\t':
			buf.WriteString(`\t`)
		case r == '\b':
			buf.WriteString(`\b`)
		case r == '\f':
			buf.WriteString(`\f`)
		case r < 0x20 || (r > 0x7e && r <= 0xffff):
			fmt.Fprintf(buf, `\u%04x`, r)
		case r > 0xffff:
			hi, lo := utf16.EncodeRune(r)
			fmt.Fprintf(buf, `\u%04x\u%04x`, hi, lo)
		default:
			buf.WriteRune(r)
		}
	}
	buf.WriteByte('"')
	return nil
}
