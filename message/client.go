package message

import (
	"encoding/json"

	"xdao.co/nostrwire/event"
)

// ClientMessage is a client-to-relay message: ClientEvent, Req, Close, or
// Unknown.
type ClientMessage interface {
	MessageLabel() string
	isClientMessage()
}

// ClientEvent submits a record. Event is unauthenticated when parsed.
type ClientEvent struct {
	Event event.Event
}

// Req opens a subscription. Filters are passed through unmodified and are
// not interpreted here.
type Req struct {
	SubscriptionID string
	Filters        []json.RawMessage
}

// Close ends a subscription.
type Close struct {
	SubscriptionID string
}

func (ClientEvent) MessageLabel() string { return LabelEvent }
func (Req) MessageLabel() string         { return LabelReq }
func (Close) MessageLabel() string       { return LabelClose }
func (ClientEvent) isClientMessage()     {}
func (Req) isClientMessage()             {}
func (Close) isClientMessage()           {}

// ParseClientMessage classifies one client frame with the same error
// discipline as ParseRelayMessage.
func ParseClientMessage(raw []byte) (ClientMessage, error) {
	env, unknown, err := envelopeOrUnknown(raw)
	if err != nil {
		return nil, err
	}
	if unknown != nil {
		return *unknown, nil
	}
	switch env.Label {
	case LabelEvent:
		ev, err := recordAt(env, 0)
		if err != nil {
			return nil, err
		}
		return ClientEvent{Event: ev}, nil
	case LabelReq:
		sub, err := stringAt(env, 0, "subscription id")
		if err != nil {
			return nil, err
		}
		filters := make([]json.RawMessage, 0, len(env.Values)-1)
		for _, f := range env.Values[1:] {
			filters = append(filters, append(json.RawMessage(nil), f...))
		}
		return Req{SubscriptionID: sub, Filters: filters}, nil
	case LabelClose:
		sub, err := stringAt(env, 0, "subscription id")
		if err != nil {
			return nil, err
		}
		return Close{SubscriptionID: sub}, nil
	default:
		return unknownFrom(env, raw)
	}
}
