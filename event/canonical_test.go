package event

import (
	"bytes"
	"crypto/sha256"
	"testing"

	"github.com/nbd-wtf/go-nostr"
)

func TestCanonicalize_GoldenBytes(t *testing.T) {
	ev := mustGolden(t)
	want := `[0,"` + goldenPub + `",1672310253,1,[],"` + goldenContent + `"]`
	if got := string(ev.Canonical()); got != want {
		t.Fatalf("canonical mismatch:\n got %s\nwant %s", got, want)
	}
	if got := ev.ComputeID().String(); got != goldenID {
		t.Fatalf("identifier mismatch: got %s want %s", got, goldenID)
	}
	if !ValidateID(ev) {
		t.Fatalf("golden record failed ValidateID")
	}
	if err := CheckID(ev); err != nil {
		t.Fatalf("CheckID: %v", err)
	}
}

func TestCanonicalize_Deterministic(t *testing.T) {
	pub, err := ParsePubKey(goldenPub)
	if err != nil {
		t.Fatalf("ParsePubKey: %v", err)
	}
	tags := Tags{{"e", "x", "wss://relay"}, {"t", "go"}}
	a := Canonicalize(pub, 42, 7, tags, "line\nbreak")
	b := Canonicalize(pub, 42, 7, tags.Clone(), "line\nbreak")
	if !bytes.Equal(a, b) {
		t.Fatalf("canonical form not deterministic")
	}
	if DeriveID(pub, 42, 7, tags, "line\nbreak") != sha256.Sum256(a) {
		t.Fatalf("DeriveID is not sha256 of Canonicalize")
	}
	if !bytes.Equal(Canonicalize(pub, 0, 0, nil, ""), Canonicalize(pub, 0, 0, Tags{}, "")) {
		t.Fatalf("nil and empty tags must canonicalize identically")
	}
}

func TestValidateID_DetectsEverySingleFieldMutation(t *testing.T) {
	base := mustGolden(t)
	base.Tags = Tags{{"e", "abc"}}
	base.ID = base.ComputeID()
	if !ValidateID(base) {
		t.Fatalf("base record must validate")
	}

	otherPub, err := ParsePubKey("79be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798")
	if err != nil {
		t.Fatalf("ParsePubKey: %v", err)
	}
	mutations := map[string]func(e *Event){
		"content":    func(e *Event) { e.Content += "!" },
		"created_at": func(e *Event) { e.CreatedAt++ },
		"kind":       func(e *Event) { e.Kind = 2 },
		"tag entry":  func(e *Event) { e.Tags = Tags{{"e", "abd"}} },
		"tag order":  func(e *Event) { e.Tags = Tags{{"e", "abc"}, {"p", "x"}} },
		"author_key": func(e *Event) { e.PubKey = otherPub },
		"stated id":  func(e *Event) { e.ID[31] ^= 1 },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			ev := base
			ev.Tags = base.Tags.Clone()
			mutate(&ev)
			if ValidateID(ev) {
				t.Fatalf("mutation of %s not detected", name)
			}
		})
	}
	if !ValidateID(base) {
		t.Fatalf("subtests must not mutate the base record")
	}
}

// go-nostr is an independent implementation of the same canonical form.
func TestCanonicalize_MatchesGoNostr(t *testing.T) {
	contents := []string{
		goldenContent,
		"quotes \" and backslashes \\ and slashes /",
		"newline\nreturn\rtab\tbackspace\bformfeed\f",
		"<script>alert('&')</script>",
		"日本語のテキスト 🚀",
		"",
	}
	tags := Tags{{"e", "5c83da77af1dec6d7289834998ad7aafbd9e2191396d75ec3cc27f5a77226f36", "wss://nostr.example.com"}, {"p", goldenPub}, {"t", "nostr"}}
	pub, err := ParsePubKey(goldenPub)
	if err != nil {
		t.Fatalf("ParsePubKey: %v", err)
	}
	for _, content := range contents {
		ref := nostr.Event{
			PubKey:    goldenPub,
			CreatedAt: nostr.Timestamp(1700000000),
			Kind:      1,
			Tags:      nostr.Tags{{tags[0][0], tags[0][1], tags[0][2]}, {tags[1][0], tags[1][1]}, {tags[2][0], tags[2][1]}},
			Content:   content,
		}
		got := Canonicalize(pub, 1700000000, 1, tags, content)
		if want := ref.Serialize(); !bytes.Equal(got, want) {
			t.Fatalf("canonical form diverges from go-nostr for %q:\n got %s\nwant %s", content, got, want)
		}
		if id := DeriveID(pub, 1700000000, 1, tags, content); id.String() != ref.GetID() {
			t.Fatalf("identifier diverges from go-nostr for %q", content)
		}
	}
}
