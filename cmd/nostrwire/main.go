package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"xdao.co/nostrwire/compliance"
	"xdao.co/nostrwire/internal/config"
	"xdao.co/nostrwire/internal/logging"
	"xdao.co/nostrwire/protoerr"
)

const (
	exitOK         = 0
	exitFailure    = 1
	exitUsage      = 2
	exitIDMismatch = 3
	exitBadSig     = 4
)

var stdin io.Reader = os.Stdin

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return exitUsage
	}

	switch args[0] {
	case "key":
		return cmdKey(args[1:], out, errOut)
	case "id":
		return cmdID(args[1:], out, errOut)
	case "verify":
		return cmdVerify(args[1:], out, errOut)
	case "sign":
		return cmdSign(args[1:], out, errOut)
	case "classify":
		return cmdClassify(args[1:], out, errOut)
	case "req":
		return cmdReq(args[1:], out, errOut)
	case "listen":
		return cmdListen(args[1:], out, errOut)
	case "publish":
		return cmdPublish(args[1:], out, errOut)
	case "help", "-h", "--help":
		printUsage(out)
		return exitOK
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return exitUsage
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "nostrwire: signed record codec, verifier, and relay client")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  nostrwire key generate")
	fmt.Fprintln(w, "  nostrwire key init --name <name> [--secret-hex <64hex>] [--force]")
	fmt.Fprintln(w, "  nostrwire key derive --from <name> --role <role> [--force]")
	fmt.Fprintln(w, "  nostrwire key list")
	fmt.Fprintln(w, "  nostrwire key export --name <name> [--role <role>]")
	fmt.Fprintln(w, "  nostrwire id [--cid] <record.json>")
	fmt.Fprintln(w, "  nostrwire verify <record.json>")
	fmt.Fprintln(w, "  nostrwire sign --kind <n> (--content <text> | --content-file <path>) [--tag a,b ...] [--created-at <unix>] (--secret-hex <64hex> | --signer <name> [--signer-role <role>] | --key-file <path>)")
	fmt.Fprintln(w, "  nostrwire classify [--mode permissive|strict] [file]")
	fmt.Fprintln(w, "  nostrwire req [--sub <id>] [--kinds 1,7] [--authors <hex,...>] [--limit <n>] [--since <unix>]")
	fmt.Fprintln(w, "  nostrwire listen [--config <file>] [--relay <url>] [--mode permissive|strict] [--sub <id>] [--kinds ...] [--authors ...] [--limit <n>]")
	fmt.Fprintln(w, "  nostrwire publish [--config <file>] [--relay <url>] [--wait <duration>] <record.json>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - keys are stored under ~/.nostrwire/keys/<name> (0600 secret key files); override with NOSTRWIRE_KEY_DIR")
	fmt.Fprintln(w, "  - verify exits 3 when the id does not match the record, 4 when the signature is invalid")
	fmt.Fprintln(w, "  - classify reads one frame per line and prints the outcome of each")
	fmt.Fprintln(w, "  - sign writes the record JSON to stdout")
}

func loadConfig(path string, errOut io.Writer) (config.Config, bool) {
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(errOut, "config: %v\n", err)
		return config.Config{}, false
	}
	return cfg, true
}

func newLogger(cfg config.Config, errOut io.Writer) zerolog.Logger {
	return logging.New(errOut, "nostrwire", cfg.LogLevel)
}

func applyMode(cfg *config.Config, mode string, errOut io.Writer) bool {
	if mode == "" {
		return true
	}
	m, err := compliance.ParseMode(mode)
	if err != nil {
		fmt.Fprintf(errOut, "invalid --mode: %v\n", err)
		return false
	}
	cfg.Mode = m
	return true
}

// exitFor maps an authentication error onto verify's exit codes.
func exitFor(err error) int {
	switch protoerr.KindOf(err) {
	case protoerr.KindIdentifier:
		return exitIDMismatch
	case protoerr.KindSignature:
		return exitBadSig
	default:
		return exitFailure
	}
}

type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ";") }
func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}
