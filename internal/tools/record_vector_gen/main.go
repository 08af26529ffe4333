package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"xdao.co/nostrwire/event"
	"xdao.co/nostrwire/keys"
)

func mustKey(last byte) keys.SecretKey {
	secret := make([]byte, keys.SecretKeySize)
	secret[len(secret)-1] = last
	sk, err := keys.ParseSecretKeyHex(fmt.Sprintf("%x", secret))
	if err != nil {
		panic(err)
	}
	return sk
}

type vector struct {
	name  string
	key   keys.SecretKey
	draft event.Draft
}

func writeVector(dir string, v vector) event.Event {
	// nil rand keeps signatures reproducible across runs.
	a, err := event.Finalize(v.draft, keys.NewSigner(v.key, nil))
	if err != nil {
		panic(err)
	}
	ev := a.Event()
	files := map[string][]byte{
		v.name + ".json":      ev.AppendJSON(nil),
		v.name + ".canonical": ev.Canonical(),
		v.name + ".id":        []byte(ev.ID.String() + "\n"),
		v.name + ".cid":       []byte(ev.CID() + "\n"),
	}
	for name, b := range files {
		if err := os.WriteFile(filepath.Join(dir, name), b, 0o644); err != nil {
			panic(err)
		}
	}
	fmt.Printf("%s ID=%s\n", v.name, ev.ID)
	return ev
}

// writeRejected emits copies of ev that must fail authentication: one with
// altered content, one with a signature byte changed.
func writeRejected(dir, name string, ev event.Event) {
	tampered := ev
	tampered.Content += "!"
	flipped := ev
	flipped.Sig[50] ^= 0x01
	files := map[string][]byte{
		name + ".tampered_content.json": tampered.AppendJSON(nil),
		name + ".flipped_sig.json":      flipped.AppendJSON(nil),
	}
	for file, b := range files {
		if err := os.WriteFile(filepath.Join(dir, file), b, 0o644); err != nil {
			panic(err)
		}
	}
}

func main() {
	dir := flag.String("out", filepath.Join("testdata", "conformance", "record", "v1"), "Output directory")
	flag.Parse()
	if err := os.MkdirAll(*dir, 0o755); err != nil {
		panic(err)
	}

	one := mustKey(1)
	pubOne := one.PublicKey()
	vectors := []vector{
		{
			name: "escapes",
			key:  one,
			draft: event.Draft{
				CreatedAt: 1700000000,
				Kind:      1,
				Tags: event.Tags{
					{"t", "go"},
					{"p", fmt.Sprintf("%x", pubOne[:]), "wss://relay.example.org/"},
					{"e"},
				},
				Content: "line1\nline2\t\"q\" \\ </script> &   \x01 \x7f café \U0001F62F",
			},
		},
		{
			name:  "empty",
			key:   mustKey(2),
			draft: event.Draft{Tags: event.Tags{}},
		},
		{
			name: "long_form",
			key:  one,
			draft: event.Draft{
				CreatedAt: 1712345678,
				Kind:      30023,
				Tags:      event.Tags{{"d", "intro"}, {"title", "Hello"}, {"published_at", "1712345678"}},
				Content:   "# Hello\n\nSome *markdown* text.\n",
			},
		},
	}
	for _, v := range vectors {
		ev := writeVector(*dir, v)
		if v.name == "escapes" {
			writeRejected(*dir, v.name, ev)
		}
	}
}
