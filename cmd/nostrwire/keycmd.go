package main

import (
	"crypto/rand"
	"flag"
	"fmt"
	"io"

	"xdao.co/nostrwire/keys"
)

func cmdKey(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printKeyUsage(errOut)
		return exitUsage
	}
	switch args[0] {
	case "generate":
		return cmdKeyGenerate(args[1:], out, errOut)
	case "init":
		return cmdKeyInit(args[1:], out, errOut)
	case "derive":
		return cmdKeyDerive(args[1:], out, errOut)
	case "list":
		return cmdKeyList(args[1:], out, errOut)
	case "export":
		return cmdKeyExport(args[1:], out, errOut)
	case "help", "-h", "--help":
		printKeyUsage(out)
		return exitOK
	default:
		fmt.Fprintf(errOut, "unknown key subcommand: %s\n\n", args[0])
		printKeyUsage(errOut)
		return exitUsage
	}
}

func printKeyUsage(w io.Writer) {
	fmt.Fprintln(w, "nostrwire key: local secp256k1 key management")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  nostrwire key generate")
	fmt.Fprintln(w, "  nostrwire key init --name <name> [--secret-hex <64hex>] [--force]")
	fmt.Fprintln(w, "  nostrwire key derive --from <name> --role <role> [--force]")
	fmt.Fprintln(w, "  nostrwire key list")
	fmt.Fprintln(w, "  nostrwire key export --name <name> [--role <role>]")
}

func openKeyStore(errOut io.Writer) (*keys.KeyStore, bool) {
	cfg, ok := loadConfig("", errOut)
	if !ok {
		return nil, false
	}
	ks, err := keys.CreateKeyStore(cfg.KeyDir)
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return nil, false
	}
	return ks, true
}

func cmdKeyGenerate(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key generate", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	sk, pub, err := keys.GenerateKeypair(rand.Reader)
	if err != nil {
		fmt.Fprintf(errOut, "generate: %v\n", err)
		return exitFailure
	}
	fmt.Fprintf(out, "secret: %s\n", sk.Hex())
	fmt.Fprintf(out, "pubkey: %x\n", pub[:])
	return exitOK
}

func cmdKeyInit(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key init", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var name string
	var secretHex string
	var force bool

	fs.StringVar(&name, "name", "", "Key name (directory under the key dir)")
	fs.StringVar(&secretHex, "secret-hex", "", "Optional secret key as 64 hex chars (for reproducible demos)")
	fs.BoolVar(&force, "force", false, "Overwrite existing key files")

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if name == "" {
		fmt.Fprintln(errOut, "missing --name")
		return exitUsage
	}
	if err := keys.CheckKeyName(name); err != nil {
		fmt.Fprintf(errOut, "invalid --name: %v\n", err)
		return exitUsage
	}

	var sk keys.SecretKey
	var err error
	if secretHex != "" {
		sk, err = keys.ParseSecretKeyHex(secretHex)
		if err != nil {
			fmt.Fprintf(errOut, "invalid --secret-hex: %v\n", err)
			return exitUsage
		}
	} else {
		sk, _, err = keys.GenerateKeypair(rand.Reader)
		if err != nil {
			fmt.Fprintf(errOut, "generate: %v\n", err)
			return exitFailure
		}
	}

	ks, ok := openKeyStore(errOut)
	if !ok {
		return exitFailure
	}
	pubHex, rootPath, err := ks.InitializeRootKey(name, sk, force)
	if err != nil {
		fmt.Fprintf(errOut, "write key: %v\n", err)
		return exitFailure
	}
	fmt.Fprintf(out, "Created root key: %s\n", pubHex)
	fmt.Fprintf(out, "Stored at: %s\n", rootPath)
	return exitOK
}

func cmdKeyDerive(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key derive", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var from string
	var role string
	var force bool

	fs.StringVar(&from, "from", "", "Root key name")
	fs.StringVar(&role, "role", "", "Role identifier (e.g. posting, relay-auth)")
	fs.BoolVar(&force, "force", false, "Overwrite existing key files")

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if from == "" {
		fmt.Fprintln(errOut, "missing --from")
		return exitUsage
	}
	if role == "" {
		fmt.Fprintln(errOut, "missing --role")
		return exitUsage
	}
	if err := keys.CheckKeyName(from); err != nil {
		fmt.Fprintf(errOut, "invalid --from: %v\n", err)
		return exitUsage
	}
	if err := keys.CheckRole(role); err != nil {
		fmt.Fprintf(errOut, "invalid --role: %v\n", err)
		return exitUsage
	}
	ks, ok := openKeyStore(errOut)
	if !ok {
		return exitFailure
	}
	pubHex, rolePath, err := ks.DeriveKeyFromRole(from, role, force)
	if err != nil {
		fmt.Fprintf(errOut, "derive role key: %v\n", err)
		return exitFailure
	}
	fmt.Fprintf(out, "Created role key: %s\n", pubHex)
	fmt.Fprintf(out, "Stored at: %s\n", rolePath)
	return exitOK
}

func cmdKeyExport(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key export", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var name string
	var role string

	fs.StringVar(&name, "name", "", "Key name")
	fs.StringVar(&role, "role", "", "Optional role (if set, exports derived role key)")

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if name == "" {
		fmt.Fprintln(errOut, "missing --name")
		return exitUsage
	}
	if err := keys.CheckKeyName(name); err != nil {
		fmt.Fprintf(errOut, "invalid --name: %v\n", err)
		return exitUsage
	}
	if role != "" {
		if err := keys.CheckRole(role); err != nil {
			fmt.Fprintf(errOut, "invalid --role: %v\n", err)
			return exitUsage
		}
	}
	ks, ok := openKeyStore(errOut)
	if !ok {
		return exitFailure
	}
	pubHex, err := ks.ExportPublicKey(name, role)
	if err != nil {
		fmt.Fprintf(errOut, "export key: %v\n", err)
		return exitFailure
	}
	_, _ = fmt.Fprintln(out, pubHex)
	return exitOK
}

func cmdKeyList(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key list", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	ks, ok := openKeyStore(errOut)
	if !ok {
		return exitFailure
	}
	entries, err := ks.ListKeys()
	if err != nil {
		fmt.Fprintf(errOut, "list keys: %v\n", err)
		return exitFailure
	}
	for _, e := range entries {
		fmt.Fprintf(out, "%s %s\n", e.Identifier, e.PublicKey)
		for _, r := range e.Roles {
			fmt.Fprintf(out, "  - %s\n", r)
		}
	}
	return exitOK
}
