package stackexchange

import (
	"bytes"
	"encoding/json"
	"fmt"

	errs "github.com/9ao9ai9ar/stack-exchange-backup/pkg/errors"
)

// Envelope is the common wrapper object returned by every method.
// Fields the filter leaves out stay nil.
type Envelope[T any] struct {
	Items          []T     `json:"items,omitempty"`
	HasMore        *bool   `json:"has_more,omitempty"`
	Total          *int    `json:"total,omitempty"`
	QuotaMax       *int    `json:"quota_max,omitempty"`
	QuotaRemaining *int    `json:"quota_remaining,omitempty"`
	Backoff        *int    `json:"backoff,omitempty"`
	Page           *int    `json:"page,omitempty"`
	PageSize       *int    `json:"page_size,omitempty"`
	Type           *string `json:"type,omitempty"`
	ErrorID        *int    `json:"error_id,omitempty"`
	ErrorName      *string `json:"error_name,omitempty"`
	ErrorMessage   *string `json:"error_message,omitempty"`
}

// More reports whether the server announced another page
func (e *Envelope[T]) More() bool {
	return e.HasMore != nil && *e.HasMore
}

// rawEnvelope mirrors Envelope with items left undecoded
type rawEnvelope struct {
	Items          json.RawMessage `json:"items"`
	HasMore        *bool           `json:"has_more"`
	Total          *int            `json:"total"`
	QuotaMax       *int            `json:"quota_max"`
	QuotaRemaining *int            `json:"quota_remaining"`
	Backoff        *int            `json:"backoff"`
	Page           *int            `json:"page"`
	PageSize       *int            `json:"page_size"`
	Type           *string         `json:"type"`
	ErrorID        *int            `json:"error_id"`
	ErrorName      *string         `json:"error_name"`
	ErrorMessage   *string         `json:"error_message"`
}

// ParseEnvelope decodes body into an Envelope. Unknown wrapper fields and
// type mismatches are rejected; item objects may carry fields T does not
// model.
func ParseEnvelope[T any](body []byte) (*Envelope[T], error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()

	var raw rawEnvelope
	if err := dec.Decode(&raw); err != nil {
		return nil, &errs.ValidationError{Field: "response", Message: "malformed wrapper object", Err: err}
	}
	if dec.More() {
		return nil, &errs.ValidationError{Field: "response", Message: "trailing data after wrapper object"}
	}

	env := &Envelope[T]{
		HasMore:        raw.HasMore,
		Total:          raw.Total,
		QuotaMax:       raw.QuotaMax,
		QuotaRemaining: raw.QuotaRemaining,
		Backoff:        raw.Backoff,
		Page:           raw.Page,
		PageSize:       raw.PageSize,
		Type:           raw.Type,
		ErrorID:        raw.ErrorID,
		ErrorName:      raw.ErrorName,
		ErrorMessage:   raw.ErrorMessage,
	}
	if len(raw.Items) > 0 && !bytes.Equal(raw.Items, []byte("null")) {
		if err := json.Unmarshal(raw.Items, &env.Items); err != nil {
			return nil, &errs.ValidationError{
				Field:   "items",
				Message: fmt.Sprintf("cannot decode items as %T", env.Items),
				Err:     err,
			}
		}
	}
	return env, nil
}
