package message

import (
	"xdao.co/nostrwire/event"
	"xdao.co/nostrwire/protoerr"
)

// RelayMessage is a relay-to-client message: RelayEvent, Notice, or Unknown.
type RelayMessage interface {
	MessageLabel() string
	isRelayMessage()
}

// RelayEvent delivers a record for a subscription. Event is unauthenticated.
type RelayEvent struct {
	SubscriptionID string
	Event          event.Event
}

// Notice is a human-readable message from the relay.
type Notice struct {
	Message string
}

func (RelayEvent) MessageLabel() string { return LabelEvent }
func (Notice) MessageLabel() string     { return LabelNotice }
func (RelayEvent) isRelayMessage()      {}
func (Notice) isRelayMessage()          {}

// ParseRelayMessage classifies one inbound frame.
//
// Errors are KindEnvelope (not JSON), KindShape (recognized label with
// missing or ill-typed fields), or KindRecord (the embedded record could not
// be decoded). Valid JSON that is not a recognized shape is returned as
// Unknown without error.
func ParseRelayMessage(raw []byte) (RelayMessage, error) {
	env, unknown, err := envelopeOrUnknown(raw)
	if err != nil {
		return nil, err
	}
	if unknown != nil {
		return *unknown, nil
	}
	switch env.Label {
	case LabelEvent:
		// A frame too short to hold a record is a record failure even when
		// the subscription id is also absent.
		if len(env.Values) < 2 {
			return nil, missingRecord(env)
		}
		sub, err := stringAt(env, 0, "subscription id")
		if err != nil {
			return nil, err
		}
		ev, err := recordAt(env, 1)
		if err != nil {
			return nil, err
		}
		return RelayEvent{SubscriptionID: sub, Event: ev}, nil
	case LabelNotice:
		msg, err := stringAt(env, 0, "message")
		if err != nil {
			return nil, err
		}
		return Notice{Message: msg}, nil
	default:
		return unknownFrom(env, raw)
	}
}

func recordAt(env Envelope, i int) (event.Event, error) {
	if i >= len(env.Values) {
		return event.Event{}, missingRecord(env)
	}
	return event.Parse(env.Values[i])
}

func missingRecord(env Envelope) error {
	return protoerr.New(protoerr.KindRecord, "NOSTR-REC-001", env.Label+": missing record")
}
