package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Field names used by stores for the raw link records.
const (
	FieldName      = "name"
	FieldURL       = "url"
	FieldVariables = "variables"
	FieldCreatedAt = "createdAt"
	FieldOrder     = "order"
)

// Link is a stored URL template ("varlink") with its preset values.
type Link struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is assigned by the store on creation and never reused.
	ID string `json:"id" mapstructure:"-"`

	// ─────────────────────────────
	// User content
	// (overwritten by Save when editing)
	// ─────────────────────────────

	// Name is the display label.
	Name string `json:"name" mapstructure:"name"`

	// URL is the template. Every Placeholder is substituted on resolve.
	// Example: https://jira.example.com/browse/$
	URL string `json:"url" mapstructure:"url"`

	// Variables are the preset substitution values, in entry order.
	Variables []string `json:"variables" mapstructure:"variables"`

	// ─────────────────────────────
	// Ordering
	// ─────────────────────────────

	// CreatedAt is the creation time in epoch milliseconds. Set once.
	CreatedAt int64 `json:"createdAt" mapstructure:"createdAt"`

	// Order is the display sort key. Rewritten by reorder.
	Order int64 `json:"order" mapstructure:"order"`
}

// LinkInput is the user-editable part of a link.
type LinkInput struct {
	Name      string   `json:"name"`
	URL       string   `json:"url"`
	Variables []string `json:"variables"`
}

// Validate rejects inputs without a title or a target URL.
func (in LinkInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.URL) == "" {
		return fmt.Errorf("%w: missing title or target url", ErrValidation)
	}
	return nil
}

// Record returns the store fields written for this input. It never carries
// order or createdAt, so an update with it leaves both untouched.
func (in LinkInput) Record() Record {
	return Record{
		FieldName:      in.Name,
		FieldURL:       in.URL,
		FieldVariables: NormalizeVariables(in.Variables),
	}
}

// NeedsVariable reports whether the template contains the placeholder.
func (l Link) NeedsVariable() bool {
	return strings.Contains(l.URL, Placeholder)
}

// MarshalJSON adds needsVariable so clients know whether a card takes a
// value before opening it.
func (l Link) MarshalJSON() ([]byte, error) {
	type plain Link
	return json.Marshal(struct {
		plain
		NeedsVariable bool `json:"needsVariable"`
	}{plain(l), l.NeedsVariable()})
}

// Record is the raw field set of one stored link.
type Record map[string]any

// Snapshot is the whole collection as delivered by a store: id -> record.
type Snapshot map[string]Record

// DecodeLink converts a raw record into a Link tagged with id.
// Numeric fields may arrive as strings (Redis hashes) and variables
// as a JSON encoded list. A field that does not parse is left at its zero
// value and reported in err; the returned link is always usable.
func DecodeLink(id string, raw Record) (link Link, err error) {
	link = Link{ID: id}
	if err := decodeInto(&link, raw); err == nil {
		return link, nil
	}

	// Retry one field at a time, keeping every field that parses
	link = Link{ID: id}
	var errs []error
	for _, key := range []string{FieldName, FieldURL, FieldVariables, FieldCreatedAt, FieldOrder} {
		v, ok := raw[key]
		if !ok {
			continue
		}
		var part Link
		if err := decodeInto(&part, Record{key: v}); err != nil {
			errs = append(errs, err)
			continue
		}
		link.copyField(key, part)
	}
	if len(errs) == 0 {
		return link, nil
	}
	return link, fmt.Errorf("link %s partially decoded: %w", id, errors.Join(errs...))
}

func decodeInto(dst *Link, raw Record) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       variablesHook,
		WeaklyTypedInput: true,
		Result:           dst,
	})
	if err != nil {
		return fmt.Errorf("failed to build decoder: %w", err)
	}
	return dec.Decode(map[string]any(raw))
}

func (l *Link) copyField(key string, from Link) {
	switch key {
	case FieldName:
		l.Name = from.Name
	case FieldURL:
		l.URL = from.URL
	case FieldVariables:
		l.Variables = from.Variables
	case FieldCreatedAt:
		l.CreatedAt = from.CreatedAt
	case FieldOrder:
		l.Order = from.Order
	}
}

var stringSliceType = reflect.TypeOf([]string{})

// variablesHook decodes a JSON encoded string list into []string.
func variablesHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != stringSliceType {
		return data, nil
	}
	s := strings.TrimSpace(data.(string))
	if s == "" {
		return []string{}, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("invalid variables list: %w", err)
	}
	return out, nil
}
