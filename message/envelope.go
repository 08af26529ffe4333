// Package message classifies the tagged JSON arrays exchanged between clients
// and relays, and encodes outbound messages.
//
// Classification is structural only. A RelayEvent or ClientEvent carries an
// event.Event that has not been authenticated; callers must run
// event.Authenticate before trusting it.
package message

import (
	"bytes"
	"encoding/json"

	"xdao.co/nostrwire/protoerr"
)

const (
	LabelEvent  = "EVENT"
	LabelReq    = "REQ"
	LabelClose  = "CLOSE"
	LabelNotice = "NOTICE"
)

// Envelope is the outer positional array of any message: a string label
// followed by label-specific values.
type Envelope struct {
	Label  string
	Values []json.RawMessage
}

// ParseEnvelope splits raw into its label and positional values.
func ParseEnvelope(raw []byte) (Envelope, error) {
	if !json.Valid(raw) {
		return Envelope{}, protoerr.New(protoerr.KindEnvelope, "NOSTR-ENV-001", "frame is not valid JSON")
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil || elems == nil {
		return Envelope{}, protoerr.Wrap(protoerr.KindEnvelope, "NOSTR-ENV-002", "frame is not a JSON array", err)
	}
	if len(elems) == 0 {
		return Envelope{}, protoerr.New(protoerr.KindEnvelope, "NOSTR-ENV-003", "frame has no label")
	}
	label, ok := jsonString(elems[0])
	if !ok {
		return Envelope{}, protoerr.New(protoerr.KindEnvelope, "NOSTR-ENV-004", "frame label is not a string")
	}
	return Envelope{Label: label, Values: elems[1:]}, nil
}

// Unknown is any syntactically valid frame that is not a recognized message
// shape. Data holds the decoded frame with numbers kept as json.Number.
type Unknown struct {
	Label string
	Data  any
}

func (u Unknown) MessageLabel() string { return u.Label }
func (Unknown) isRelayMessage()        {}
func (Unknown) isClientMessage()       {}

// envelopeOrUnknown parses the envelope of a frame. Invalid JSON is an
// error; valid JSON without a string label becomes Unknown.
func envelopeOrUnknown(raw []byte) (Envelope, *Unknown, error) {
	env, err := ParseEnvelope(raw)
	if err == nil {
		return env, nil, nil
	}
	if protoerr.RuleID(err) == "NOSTR-ENV-001" {
		return Envelope{}, nil, err
	}
	data, derr := decodeValue(raw)
	if derr != nil {
		return Envelope{}, nil, protoerr.Wrap(protoerr.KindEnvelope, "NOSTR-ENV-001", "frame is not valid JSON", derr)
	}
	return Envelope{}, &Unknown{Data: data}, nil
}

func unknownFrom(env Envelope, raw []byte) (Unknown, error) {
	data, err := decodeValue(raw)
	if err != nil {
		return Unknown{}, protoerr.Wrap(protoerr.KindEnvelope, "NOSTR-ENV-001", "frame is not valid JSON", err)
	}
	return Unknown{Label: env.Label, Data: data}, nil
}

func decodeValue(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func jsonString(raw json.RawMessage) (string, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return "", false
	}
	return s, true
}

// stringAt returns the string at position i of the values following the label.
func stringAt(env Envelope, i int, field string) (string, error) {
	if i >= len(env.Values) {
		return "", protoerr.New(protoerr.KindShape, "NOSTR-SHAPE-001", env.Label+": missing "+field)
	}
	s, ok := jsonString(env.Values[i])
	if !ok {
		return "", protoerr.New(protoerr.KindShape, "NOSTR-SHAPE-002", env.Label+": "+field+" is not a string")
	}
	return s, nil
}
