package message

import (
	"bytes"
	"encoding/json"

	"github.com/nbd-wtf/go-nostr"

	"xdao.co/nostrwire/canonjson"
	"xdao.co/nostrwire/event"
	"xdao.co/nostrwire/protoerr"
)

// NewReq builds a subscription request. Each filter is marshaled with
// encoding/json; already-encoded filters may be passed as json.RawMessage.
func NewReq(subID string, filters ...any) (Req, error) {
	raw := make([]json.RawMessage, 0, len(filters))
	for _, f := range filters {
		b, err := json.Marshal(f)
		if err != nil {
			return Req{}, protoerr.Wrap(protoerr.KindShape, "NOSTR-SHAPE-003", "REQ: filter is not encodable", err)
		}
		raw = append(raw, b)
	}
	return Req{SubscriptionID: subID, Filters: raw}, nil
}

// EncodeSubmission encodes an authenticated record as a client EVENT
// message. It refuses records that did not pass authentication.
func EncodeSubmission(a event.Authentic) ([]byte, error) {
	if !a.Valid() {
		return nil, protoerr.New(protoerr.KindSignature, event.RuleSignature, "record is not authenticated")
	}
	return EncodeClientMessage(ClientEvent{Event: a.Event()})
}

// EncodeClientMessage serializes m as a compact JSON array.
func EncodeClientMessage(m ClientMessage) ([]byte, error) {
	switch v := m.(type) {
	case ClientEvent:
		b := []byte(`["EVENT",`)
		b = v.Event.AppendJSON(b)
		return append(b, ']'), nil
	case Req:
		b := []byte(`["REQ",`)
		b = canonjson.AppendString(b, v.SubscriptionID)
		for _, f := range v.Filters {
			var buf bytes.Buffer
			if err := json.Compact(&buf, f); err != nil {
				return nil, protoerr.Wrap(protoerr.KindShape, "NOSTR-SHAPE-003", "REQ: filter is not valid JSON", err)
			}
			b = append(b, ',')
			b = append(b, buf.Bytes()...)
		}
		return append(b, ']'), nil
	case Close:
		b := []byte(`["CLOSE",`)
		b = canonjson.AppendString(b, v.SubscriptionID)
		return append(b, ']'), nil
	case Unknown:
		return encodeUnknown(v)
	case nil:
		return nil, protoerr.New(protoerr.KindInternal, "NOSTR-INTERNAL-001", "nil message")
	default:
		return nil, protoerr.New(protoerr.KindInternal, "NOSTR-INTERNAL-001", "unsupported client message type")
	}
}

// EncodeRelayMessage serializes m as a compact JSON array.
func EncodeRelayMessage(m RelayMessage) ([]byte, error) {
	switch v := m.(type) {
	case RelayEvent:
		b := []byte(`["EVENT",`)
		b = canonjson.AppendString(b, v.SubscriptionID)
		b = append(b, ',')
		b = v.Event.AppendJSON(b)
		return append(b, ']'), nil
	case Notice:
		b := []byte(`["NOTICE",`)
		b = canonjson.AppendString(b, v.Message)
		return append(b, ']'), nil
	case Unknown:
		return encodeUnknown(v)
	case nil:
		return nil, protoerr.New(protoerr.KindInternal, "NOSTR-INTERNAL-001", "nil message")
	default:
		return nil, protoerr.New(protoerr.KindInternal, "NOSTR-INTERNAL-001", "unsupported relay message type")
	}
}

func encodeUnknown(u Unknown) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(u.Data); err != nil {
		return nil, protoerr.Wrap(protoerr.KindInternal, "NOSTR-INTERNAL-001", "unknown message is not encodable", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// DecodeFilters decodes the opaque filters into go-nostr's typed form.
// Classification never depends on this.
func (r Req) DecodeFilters() (nostr.Filters, error) {
	out := make(nostr.Filters, 0, len(r.Filters))
	for _, raw := range r.Filters {
		var f nostr.Filter
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, protoerr.Wrap(protoerr.KindShape, "NOSTR-SHAPE-003", "REQ: filter does not decode", err)
		}
		out = append(out, f)
	}
	return out, nil
}
