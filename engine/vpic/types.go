// Package vpic is a client for the NHTSA vehicle APIs: the vPIC VIN decoder and
// the recalls and complaints lookups keyed by make, model and model year.
package vpic

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MaxComplaints is how many complaints are kept from a complaintsByVehicle response.
const MaxComplaints = 10

var (
	// ErrNoResults means the decoder answered but gave no usable result set.
	ErrNoResults = errors.New("vpic: response has no result set")
)

// StatusError is returned for a non-2xx HTTP response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.Code, e.URL)
}

// DecodeResult is one variable of a decodevin response. Value is nil when the
// decoder has nothing for the variable.
type DecodeResult struct {
	Value      *string `json:"Value"`
	ValueID    *string `json:"ValueId,omitempty"`
	Variable   string  `json:"Variable"`
	VariableID int     `json:"VariableId"`
}

// decodeResponse keeps Results raw so a missing or null set can be told apart
// from an empty one.
type decodeResponse struct {
	Count          int             `json:"Count"`
	Message        string          `json:"Message"`
	SearchCriteria string          `json:"SearchCriteria"`
	Results        json.RawMessage `json:"Results"`
}

// listResponse is the envelope shared by recallsByVehicle and complaintsByVehicle.
type listResponse struct {
	Count   int             `json:"Count"`
	Message string          `json:"Message"`
	Results json.RawMessage `json:"results"`
}
