package main

import (
	"bufio"
	"crypto/rand"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"xdao.co/nostrwire/event"
	"xdao.co/nostrwire/inbound"
	"xdao.co/nostrwire/keys"
	"xdao.co/nostrwire/message"
)

func readRecord(path string, errOut io.Writer) (event.Event, bool) {
	b, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(errOut, "read %s: %v\n", filepath.Base(path), err)
		return event.Event{}, false
	}
	ev, err := event.Parse(b)
	if err != nil {
		fmt.Fprintf(errOut, "invalid record: %v\n", err)
		return event.Event{}, false
	}
	return ev, true
}

func cmdID(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("id", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var asCID bool
	fs.BoolVar(&asCID, "cid", false, "Print the CIDv1 of the canonical form instead of the hex id")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: nostrwire id [--cid] <record.json>")
		return exitUsage
	}
	ev, ok := readRecord(fs.Arg(0), errOut)
	if !ok {
		return exitFailure
	}
	if asCID {
		_, _ = fmt.Fprintln(out, ev.CID())
		return exitOK
	}
	id := ev.ComputeID()
	if id != ev.ID {
		fmt.Fprintf(errOut, "note: stated id %s differs from computed id\n", ev.ID)
	}
	_, _ = fmt.Fprintln(out, id)
	return exitOK
}

func cmdVerify(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: nostrwire verify <record.json>")
		return exitUsage
	}
	ev, ok := readRecord(fs.Arg(0), errOut)
	if !ok {
		return exitFailure
	}
	a, err := event.Authenticate(ev)
	if err != nil {
		fmt.Fprintf(errOut, "invalid: %v\n", err)
		return exitFor(err)
	}
	fmt.Fprintf(out, "OK %s\n", a.ID())
	return exitOK
}

type signerFlags struct {
	secretHex  string
	signerName string
	signerRole string
	keyFile    string
}

func (sf *signerFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&sf.secretHex, "secret-hex", "", "Secret key as 64 hex chars")
	fs.StringVar(&sf.signerName, "signer", "", "Use a stored key by name (from 'nostrwire key init')")
	fs.StringVar(&sf.signerRole, "signer-role", "", "When using --signer, optionally use a derived role key")
	fs.StringVar(&sf.keyFile, "key-file", "", "Path to a secret key file (hex) created by 'nostrwire key init/derive'")
}

func (sf *signerFlags) load(errOut io.Writer) (keys.SecretKey, int) {
	if sf.secretHex == "" && sf.signerName == "" && sf.keyFile == "" {
		fmt.Fprintln(errOut, "missing signer: use --secret-hex, --signer, or --key-file")
		return keys.SecretKey{}, exitUsage
	}
	if sf.secretHex != "" && (sf.signerName != "" || sf.keyFile != "") {
		fmt.Fprintln(errOut, "conflicting signer flags: --secret-hex cannot be combined with --signer or --key-file")
		return keys.SecretKey{}, exitUsage
	}
	if sf.signerName != "" && sf.keyFile != "" {
		fmt.Fprintln(errOut, "conflicting signer flags: --signer cannot be combined with --key-file")
		return keys.SecretKey{}, exitUsage
	}
	ks, ok := openKeyStore(errOut)
	if !ok {
		return keys.SecretKey{}, exitFailure
	}
	sk, err := ks.LoadSecret(sf.secretHex, sf.signerName, sf.signerRole, sf.keyFile)
	if err != nil {
		fmt.Fprintf(errOut, "invalid signer: %v\n", err)
		return keys.SecretKey{}, exitUsage
	}
	return sk, exitOK
}

func cmdSign(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("sign", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var kind int
	var content string
	var contentFile string
	var createdAt int64
	var tags stringList
	var signer signerFlags

	fs.IntVar(&kind, "kind", -1, "Record kind")
	fs.StringVar(&content, "content", "", "Record content")
	fs.StringVar(&contentFile, "content-file", "", "Read content from a file ('-' for stdin)")
	fs.Int64Var(&createdAt, "created-at", 0, "Unix timestamp (defaults to now)")
	fs.Var(&tags, "tag", "Tag as comma-separated values, e.g. t,golang (repeatable)")
	signer.register(fs)

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if kind < 0 || kind > 1<<31-1 {
		fmt.Fprintln(errOut, "missing or invalid --kind")
		return exitUsage
	}
	if content != "" && contentFile != "" {
		fmt.Fprintln(errOut, "conflicting flags: --content cannot be combined with --content-file")
		return exitUsage
	}
	if contentFile != "" {
		var b []byte
		var err error
		if contentFile == "-" {
			b, err = io.ReadAll(stdin)
		} else {
			b, err = os.ReadFile(contentFile)
		}
		if err != nil {
			fmt.Fprintf(errOut, "read --content-file: %v\n", err)
			return exitFailure
		}
		content = string(b)
	}
	if createdAt == 0 {
		createdAt = time.Now().Unix()
	}

	sk, code := signer.load(errOut)
	if code != exitOK {
		return code
	}

	draft := event.Draft{
		CreatedAt: createdAt,
		Kind:      int32(kind),
		Tags:      make(event.Tags, 0, len(tags)),
		Content:   content,
	}
	for _, t := range tags {
		draft.Tags = append(draft.Tags, event.Tag(strings.Split(t, ",")))
	}

	a, err := event.Finalize(draft, keys.NewSigner(sk, rand.Reader))
	if err != nil {
		fmt.Fprintf(errOut, "sign: %v\n", err)
		return exitFailure
	}
	b := a.Event().AppendJSON(nil)
	b = append(b, '\n')
	_, _ = out.Write(b)
	return exitOK
}

func cmdClassify(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("classify", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var mode string
	fs.StringVar(&mode, "mode", "", "Compliance mode: permissive or strict (defaults to config)")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() > 1 {
		fmt.Fprintln(errOut, "usage: nostrwire classify [--mode permissive|strict] [file]")
		return exitUsage
	}
	cfg, ok := loadConfig("", errOut)
	if !ok {
		return exitFailure
	}
	if !applyMode(&cfg, mode, errOut) {
		return exitUsage
	}

	in := stdin
	if fs.NArg() == 1 {
		f, err := os.Open(fs.Arg(0))
		if err != nil {
			fmt.Fprintf(errOut, "open %s: %v\n", filepath.Base(fs.Arg(0)), err)
			return exitFailure
		}
		defer f.Close()
		in = f
	}

	p := &inbound.Pipeline{Mode: cfg.Mode, Logger: newLogger(cfg, errOut)}
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), int(cfg.ReadLimit))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		printResult(out, p.Process([]byte(line)))
	}
	if err := sc.Err(); err != nil {
		fmt.Fprintf(errOut, "read frames: %v\n", err)
		return exitFailure
	}
	return exitOK
}

func printResult(w io.Writer, r inbound.Result) {
	detail := ""
	switch m := r.Message.(type) {
	case message.RelayEvent:
		detail = m.SubscriptionID + " " + m.Event.ID.String()
	case message.Notice:
		detail = m.Message
	case message.Unknown:
		detail = m.Label
	}
	if r.Err != nil {
		if detail != "" {
			detail += " "
		}
		detail += r.Err.Error()
	}
	fmt.Fprintf(w, "%s\t%s\n", r.Outcome, detail)
}
