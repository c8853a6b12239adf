// Package checker runs one VIN lookup cycle: validate, decode, then fetch
// recalls and complaints concurrently, publishing a Snapshot at every step.
package checker

import (
	"github.com/WessleyAI/vincheck/engine/domain"
)

// Phase is the state of a lookup cycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseValidating
	PhaseDecoding
	PhaseDecodeFailed
	PhaseDecodingDone
	PhaseEnriching
	PhaseEnriched
)

var phaseNames = [...]string{
	PhaseIdle:         "idle",
	PhaseValidating:   "validating",
	PhaseDecoding:     "decoding",
	PhaseDecodeFailed: "decode_failed",
	PhaseDecodingDone: "decoding_done",
	PhaseEnriching:    "enriching",
	PhaseEnriched:     "enriched",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// Terminal reports whether no further updates follow in this cycle.
func (p Phase) Terminal() bool { return p == PhaseDecodeFailed || p == PhaseEnriched }

// PanelState tracks one enrichment lookup.
type PanelState int

const (
	PanelPending PanelState = iota
	PanelLoading
	PanelReady
)

func (s PanelState) String() string {
	switch s {
	case PanelPending:
		return "pending"
	case PanelLoading:
		return "loading"
	case PanelReady:
		return "ready"
	default:
		return "unknown"
	}
}

func (s PanelState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// ErrorKind classifies a user-visible decode failure.
type ErrorKind int

const (
	ErrorNone ErrorKind = iota
	ErrorValidation
	ErrorDecodeTransport
	ErrorDecodeEmpty
	ErrorDecodeUnresolved
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorNone:
		return "none"
	case ErrorValidation:
		return "validation"
	case ErrorDecodeTransport:
		return "decode_transport"
	case ErrorDecodeEmpty:
		return "decode_empty"
	case ErrorDecodeUnresolved:
		return "decode_unresolved"
	default:
		return "unknown"
	}
}

func (k ErrorKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Failure is the error banner content for a failed cycle.
type Failure struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

// Snapshot is the full published state of one cycle. Published snapshots are
// never mutated; slices and the summary are shared read-only.
type Snapshot struct {
	Cycle          uint64                 `json:"cycle"`
	Phase          Phase                  `json:"phase"`
	VIN            domain.VIN             `json:"vin,omitempty"`
	Failure        *Failure               `json:"failure,omitempty"`
	Vehicle        *domain.VehicleSummary `json:"vehicle,omitempty"`
	RecallState    PanelState             `json:"recalls_state"`
	Recalls        []domain.Recall        `json:"recalls"`
	ComplaintState PanelState             `json:"complaints_state"`
	Complaints     []domain.Complaint     `json:"complaints"`
}
