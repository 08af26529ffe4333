// Package event implements the protocol's signed record: its transport JSON
// form, its canonical encoding, identifier derivation, and the two-stage
// split between structurally decoded records (Event) and records whose
// identifier and signature have been checked (Authentic).
package event

import (
	"bytes"
	"encoding/json"
	"errors"

	"xdao.co/nostrwire/canonjson"
	"xdao.co/nostrwire/hexutil"
	"xdao.co/nostrwire/protoerr"
)

// ID is the SHA-256 digest of a record's canonical form.
type ID [32]byte

// PubKey is a BIP340 x-only public key.
type PubKey [32]byte

// Signature is a BIP340 Schnorr signature.
type Signature [64]byte

func (id ID) String() string { return hexutil.Encode(id[:]) }
func (p PubKey) String() string { return hexutil.Encode(p[:]) }
func (s Signature) String() string { return hexutil.Encode(s[:]) }

func (id ID) MarshalJSON() ([]byte, error) { return canonjson.AppendString(nil, id.String()), nil }
func (p PubKey) MarshalJSON() ([]byte, error) { return canonjson.AppendString(nil, p.String()), nil }
func (s Signature) MarshalJSON() ([]byte, error) { return canonjson.AppendString(nil, s.String()), nil }

func (id *ID) UnmarshalJSON(b []byte) error { return unmarshalHex(id[:], b, "id") }
func (p *PubKey) UnmarshalJSON(b []byte) error { return unmarshalHex(p[:], b, "pubkey") }
func (s *Signature) UnmarshalJSON(b []byte) error { return unmarshalHex(s[:], b, "sig") }

// ParseID decodes a 64-character lowercase hex identifier.
func ParseID(s string) (ID, error) {
	var id ID
	if err := hexutil.DecodeFixed(id[:], s); err != nil {
		return ID{}, protoerr.Wrap(protoerr.KindRecord, "NOSTR-REC-004", "invalid id hex", err)
	}
	return id, nil
}

// ParsePubKey decodes a 64-character lowercase hex public key.
func ParsePubKey(s string) (PubKey, error) {
	var p PubKey
	if err := hexutil.DecodeFixed(p[:], s); err != nil {
		return PubKey{}, protoerr.Wrap(protoerr.KindRecord, "NOSTR-REC-004", "invalid pubkey hex", err)
	}
	return p, nil
}

// ParseSignature decodes a 128-character lowercase hex signature.
func ParseSignature(s string) (Signature, error) {
	var sig Signature
	if err := hexutil.DecodeFixed(sig[:], s); err != nil {
		return Signature{}, protoerr.Wrap(protoerr.KindRecord, "NOSTR-REC-004", "invalid sig hex", err)
	}
	return sig, nil
}

func unmarshalHex(dst []byte, b []byte, field string) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return protoerr.Wrap(protoerr.KindRecord, "NOSTR-REC-004", field+" must be a hex string", err)
	}
	if err := hexutil.DecodeFixed(dst, s); err != nil {
		return protoerr.Wrap(protoerr.KindRecord, "NOSTR-REC-004", "invalid "+field+" hex", err)
	}
	return nil
}

// Tag is one tag entry; the first element is conventionally the tag name.
type Tag []string

// Tags is the ordered tag list of a record. Order is significant.
type Tags []Tag

// UnmarshalJSON accepts only an array of arrays of strings; null rows and
// null elements are rejected rather than silently read as empty.
func (t *Tags) UnmarshalJSON(b []byte) error {
	var rows []json.RawMessage
	if err := json.Unmarshal(b, &rows); err != nil {
		return protoerr.Wrap(protoerr.KindRecord, "NOSTR-REC-005", "tags must be an array of arrays", err)
	}
	if rows == nil {
		return protoerr.New(protoerr.KindRecord, "NOSTR-REC-005", "tags must not be null")
	}
	out := make(Tags, 0, len(rows))
	for _, row := range rows {
		if isNull(row) {
			return protoerr.New(protoerr.KindRecord, "NOSTR-REC-005", "tag must not be null")
		}
		var elems []*string
		if err := json.Unmarshal(row, &elems); err != nil {
			return protoerr.Wrap(protoerr.KindRecord, "NOSTR-REC-005", "tag must be an array of strings", err)
		}
		tag := make(Tag, len(elems))
		for i, e := range elems {
			if e == nil {
				return protoerr.New(protoerr.KindRecord, "NOSTR-REC-005", "tag elements must not be null")
			}
			tag[i] = *e
		}
		out = append(out, tag)
	}
	*t = out
	return nil
}

func (t Tags) MarshalJSON() ([]byte, error) {
	return canonjson.AppendStringMatrix(nil, t.matrix()), nil
}

func (t Tags) matrix() [][]string {
	rows := make([][]string, len(t))
	for i, tag := range t {
		rows[i] = tag
	}
	return rows
}

// Clone returns a deep copy of t.
func (t Tags) Clone() Tags {
	if t == nil {
		return nil
	}
	out := make(Tags, len(t))
	for i, tag := range t {
		out[i] = append(Tag(nil), tag...)
	}
	return out
}

// Event is a structurally decoded record. Nothing about an Event implies its
// identifier or signature are valid; see Authenticate.
type Event struct {
	ID        ID
	PubKey    PubKey
	CreatedAt int64
	Kind      int32
	Tags      Tags
	Content   string
	Sig       Signature
}

type wireEvent struct {
	ID        *ID        `json:"id"`
	PubKey    *PubKey    `json:"pubkey"`
	CreatedAt *int64     `json:"created_at"`
	Kind      *int32     `json:"kind"`
	Tags      *Tags      `json:"tags"`
	Content   *string    `json:"content"`
	Sig       *Signature `json:"sig"`
}

// UnmarshalJSON decodes the transport form. All seven fields are required;
// unknown fields are ignored.
func (e *Event) UnmarshalJSON(b []byte) error {
	if isNull(b) {
		return protoerr.New(protoerr.KindRecord, "NOSTR-REC-002", "record must be an object, got null")
	}
	var w wireEvent
	if err := json.Unmarshal(b, &w); err != nil {
		var pe *protoerr.Error
		if errors.As(err, &pe) {
			return err
		}
		return protoerr.Wrap(protoerr.KindRecord, "NOSTR-REC-002", "invalid record JSON", err)
	}
	switch {
	case w.ID == nil:
		return missingField("id")
	case w.PubKey == nil:
		return missingField("pubkey")
	case w.CreatedAt == nil:
		return missingField("created_at")
	case w.Kind == nil:
		return missingField("kind")
	case w.Tags == nil:
		return missingField("tags")
	case w.Content == nil:
		return missingField("content")
	case w.Sig == nil:
		return missingField("sig")
	}
	*e = Event{
		ID:        *w.ID,
		PubKey:    *w.PubKey,
		CreatedAt: *w.CreatedAt,
		Kind:      *w.Kind,
		Tags:      *w.Tags,
		Content:   *w.Content,
		Sig:       *w.Sig,
	}
	return nil
}

// MarshalJSON emits the transport form with fields in protocol order and
// without HTML escaping.
func (e Event) MarshalJSON() ([]byte, error) {
	return e.AppendJSON(nil), nil
}

// AppendJSON appends the transport form of e to dst.
func (e Event) AppendJSON(dst []byte) []byte {
	dst = append(dst, `{"id":`...)
	dst = canonjson.AppendString(dst, e.ID.String())
	dst = append(dst, `,"pubkey":`...)
	dst = canonjson.AppendString(dst, e.PubKey.String())
	dst = append(dst, `,"created_at":`...)
	dst = canonjson.AppendInt(dst, e.CreatedAt)
	dst = append(dst, `,"kind":`...)
	dst = canonjson.AppendInt(dst, int64(e.Kind))
	dst = append(dst, `,"tags":`...)
	dst = canonjson.AppendStringMatrix(dst, e.Tags.matrix())
	dst = append(dst, `,"content":`...)
	dst = canonjson.AppendString(dst, e.Content)
	dst = append(dst, `,"sig":`...)
	dst = canonjson.AppendString(dst, e.Sig.String())
	return append(dst, '}')
}

// Parse decodes a record from its transport JSON form.
func Parse(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		var pe *protoerr.Error
		if errors.As(err, &pe) {
			return Event{}, err
		}
		return Event{}, protoerr.Wrap(protoerr.KindRecord, "NOSTR-REC-002", "invalid record JSON", err)
	}
	return e, nil
}

func missingField(name string) error {
	return protoerr.New(protoerr.KindRecord, "NOSTR-REC-003", "record is missing field "+name)
}

func isNull(b []byte) bool {
	return bytes.Equal(bytes.TrimSpace(b), []byte("null"))
}
