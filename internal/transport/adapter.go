// Package transport is the concrete Transport Adapter: a gorilla/websocket
// hub implementing the subscribe/unsubscribe/initial-data/instrument-update
// contract of spec.md §4.H over a per-session connection.
package transport

import (
	"github.com/deltafeed/deltafeed/internal/filter"
	"github.com/deltafeed/deltafeed/internal/instrument"
)

// subscribeRequest is the inbound wire frame for a subscribe action.
type subscribeRequest struct {
	Action          string       `json:"action"`
	SubscriptionID  string       `json:"subscriptionId,omitempty"`
	InstrumentIDs   []string     `json:"instrumentIds"`
	Filter          *filter.Node `json:"filter,omitempty"`
	UpdateFrequency float64      `json:"updateFrequency,omitempty"`
}

// unsubscribeRequest is the inbound wire frame for an unsubscribe action.
type unsubscribeRequest struct {
	Action         string `json:"action"`
	SubscriptionID string `json:"subscriptionId"`
}

// envelope is decoded first to dispatch on Action before unmarshalling the
// full shape, mirroring the teacher's inbound-frame handling.
type envelope struct {
	Action string `json:"action"`
}

// ack is the outbound acknowledgement for subscribe/unsubscribe requests.
type ack struct {
	Type           string `json:"type"`
	Success        bool   `json:"success"`
	SubscriptionID string `json:"subscriptionId,omitempty"`
	Message        string `json:"message"`
}

// initialDataMsg carries the current snapshot of every requested,
// existing instrument that passes the subscription's predicate.
type initialDataMsg struct {
	Type        string              `json:"type"`
	Instruments []instrument.FieldMap `json:"instruments"`
}

// instrumentUpdateMsg is the outbound delta wire shape of spec.md §6.
type instrumentUpdateMsg struct {
	Type         string              `json:"type"`
	InstrumentID string              `json:"instrumentId"`
	Timestamp    int64               `json:"timestamp"`
	Fields       instrument.FieldMap `json:"fields"`
}
