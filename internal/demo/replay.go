package demo

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/dshills/eventcore/internal/event"
)

// ReplaySource is the Metadata.Source of decoded events.
const ReplaySource = "replay"

// Errors returned while decoding replay batches.
var (
	ErrUnknownEventType = errors.New("unknown event type")
	ErrInvalidJSON      = errors.New("invalid json")
)

// replayFile is the YAML layout of a replay batch:
//
//	correlation_id: checkout-42   # optional
//	events:
//	  - type: order.placed
//	    order_id: o-1
//	    customer: ada
//	    amount: 12.50
//	  - type: order.shipped
//	    order_id: o-1
//	    carrier: ups
//
// The JSON layout has the same keys.
type replayFile struct {
	CorrelationID string      `yaml:"correlation_id"`
	Events        []yaml.Node `yaml:"events"`
}

type recordHeader struct {
	Type string `yaml:"type"`
}

// decodeFunc decodes one record's payload into v.
type decodeFunc func(v any) error

// decoders maps record type names to payload decoders.
var decoders = map[string]func(decodeFunc, event.Metadata) (event.Event, error){
	"order.placed": func(decode decodeFunc, md event.Metadata) (event.Event, error) {
		e := OrderPlaced{Metadata: md}
		err := decode(&e)
		return e, err
	},
	"order.cancelled": func(decode decodeFunc, md event.Metadata) (event.Event, error) {
		e := OrderCancelled{Metadata: md}
		err := decode(&e)
		return e, err
	},
	"order.shipped": func(decode decodeFunc, md event.Metadata) (event.Event, error) {
		e := OrderShipped{Metadata: md}
		err := decode(&e)
		return e, err
	},
}

// batch assigns metadata to decoded records.
type batch struct {
	correlation string
	events      []event.Event
}

func newBatch(correlation string, n int) *batch {
	if correlation == "" {
		correlation = uuid.NewString()
	}
	return &batch{correlation: correlation, events: make([]event.Event, 0, n)}
}

// add decodes a record of the named type. Each event after the first is
// caused by its predecessor.
func (b *batch) add(typeName string, decode decodeFunc) error {
	fn, ok := decoders[typeName]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownEventType, typeName)
	}

	md := event.NewMetadata(ReplaySource).WithCorrelation(b.correlation)
	if n := len(b.events); n > 0 {
		md = md.WithCausation(b.events[n-1])
	}
	e, err := fn(decode, md)
	if err != nil {
		return err
	}
	b.events = append(b.events, e)
	return nil
}

// Decode reads a YAML replay batch. Every event gets fresh metadata sharing
// the file's correlation ID, or a generated one.
func Decode(r io.Reader) ([]event.Event, error) {
	var file replayFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil // empty document
		}
		return nil, fmt.Errorf("decode replay: %w", err)
	}

	b := newBatch(file.CorrelationID, len(file.Events))
	for i := range file.Events {
		node := &file.Events[i]

		var hdr recordHeader
		if err := node.Decode(&hdr); err != nil {
			return nil, fmt.Errorf("decode replay event %d: %w", i, err)
		}
		if err := b.add(hdr.Type, node.Decode); err != nil {
			return nil, fmt.Errorf("decode replay event %d (line %d): %w", i, node.Line, err)
		}
	}
	return b.events, nil
}

// DecodeJSON reads a JSON replay batch with the same layout as Decode.
func DecodeJSON(r io.Reader) ([]event.Event, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read replay: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("decode replay: %w", ErrInvalidJSON)
	}

	doc := gjson.ParseBytes(data)
	records := doc.Get("events").Array()
	b := newBatch(doc.Get("correlation_id").String(), len(records))

	for i, rec := range records {
		if !rec.IsObject() {
			return nil, fmt.Errorf("decode replay event %d: %w: record is not an object", i, ErrInvalidJSON)
		}
		raw := []byte(rec.Raw)
		decode := func(v any) error { return json.Unmarshal(raw, v) }
		if err := b.add(rec.Get("type").String(), decode); err != nil {
			return nil, fmt.Errorf("decode replay event %d: %w", i, err)
		}
	}
	return b.events, nil
}

// DecodeFile picks the decoder for name by extension: ".json" uses
// DecodeJSON, anything else Decode.
func DecodeFile(name string, r io.Reader) ([]event.Event, error) {
	if strings.EqualFold(filepath.Ext(name), ".json") {
		return DecodeJSON(r)
	}
	return Decode(r)
}
