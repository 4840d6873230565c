package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ipfs/go-cid"

	"github.com/sectormesh/routing/identity"
	"github.com/sectormesh/routing/location"
	"github.com/sectormesh/routing/messages"
	"github.com/sectormesh/routing/section"
	"github.com/sectormesh/routing/storage"
	"github.com/sectormesh/routing/storage/archiveconfig"
	"github.com/sectormesh/routing/storage/localfs"
	"github.com/sectormesh/routing/xorname"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}

	switch args[0] {
	case "key":
		return cmdKey(args[1:], out, errOut)
	case "sign":
		return cmdSign(args[1:], out, errOut)
	case "inspect":
		return cmdInspect(args[1:], out, errOut)
	case "verify":
		return cmdVerify(args[1:], out, errOut)
	case "hash":
		return cmdHash(args[1:], out, errOut)
	case "archive":
		return cmdArchive(args[1:], out, errOut)
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "meshmsg: sign, inspect and archive section-routing messages")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  meshmsg key init --name <name> [--seed-hex <64hex>] [--force]")
	fmt.Fprintln(w, "  meshmsg key list")
	fmt.Fprintln(w, "  meshmsg key export --name <name>")
	fmt.Fprintln(w, "  meshmsg sign --dst <64hex> [--dst-kind node|section] (--signer <name> | --seed-hex <64hex>) [--content <text>] [--content-file <file>]")
	fmt.Fprintln(w, "  meshmsg inspect <file>")
	fmt.Fprintln(w, "  meshmsg verify [--anchor <prefix>=<keyhex> ...] <file>")
	fmt.Fprintln(w, "  meshmsg hash <file>")
	fmt.Fprintln(w, "  meshmsg archive put (--dir <dir> | --config <archive.json>) <file>")
	fmt.Fprintln(w, "  meshmsg archive get (--dir <dir> | --config <archive.json>) <id>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - --seed-hex must be a 32-byte (64 hex chars) ed25519 seed")
	fmt.Fprintln(w, "  - identities are stored under ~/.sectormesh/identities (0600 seed files)")
	fmt.Fprintln(w, "  - sign writes the exact wire bytes to stdout (no trailing newline)")
	fmt.Fprintln(w, "  - verify prints Full or Unknown; a broken signature is an error")
}

func cmdKey(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "usage: meshmsg key <init|list|export> ...")
		return 2
	}
	switch args[0] {
	case "init":
		return cmdKeyInit(args[1:], out, errOut)
	case "list":
		return cmdKeyList(args[1:], out, errOut)
	case "export":
		return cmdKeyExport(args[1:], out, errOut)
	default:
		fmt.Fprintf(errOut, "unknown key subcommand: %s\n", args[0])
		return 2
	}
}

func cmdKeyInit(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key init", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var name string
	var seedHex string
	var force bool
	fs.StringVar(&name, "name", "", "Identity name (directory under ~/.sectormesh/identities)")
	fs.StringVar(&seedHex, "seed-hex", "", "Optional ed25519 seed as 64 hex chars (for reproducible setups)")
	fs.BoolVar(&force, "force", false, "Overwrite an existing identity")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if name == "" {
		fmt.Fprintln(errOut, "missing --name")
		return 2
	}
	if err := identity.CheckName(name); err != nil {
		fmt.Fprintf(errOut, "invalid --name: %v\n", err)
		return 2
	}

	var seed []byte
	if seedHex != "" {
		var err error
		seed, err = identity.ParseSeedHex(seedHex)
		if err != nil {
			fmt.Fprintf(errOut, "invalid --seed-hex: %v\n", err)
			return 2
		}
	} else {
		seed = make([]byte, ed25519.SeedSize)
		if _, err := rand.Read(seed); err != nil {
			fmt.Fprintf(errOut, "rand: %v\n", err)
			return 1
		}
	}

	store, err := identity.OpenStore("")
	if err != nil {
		fmt.Fprintf(errOut, "identity store: %v\n", err)
		return 1
	}
	id, err := store.Init(name, seed, force)
	if err != nil {
		fmt.Fprintf(errOut, "write identity: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "Name: %s\n", id.Public().Name().Hex())
	fmt.Fprintf(out, "Key:  %s\n", id.Public().Encoded())
	return 0
}

func cmdKeyList(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key list", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	store, err := identity.OpenStore("")
	if err != nil {
		fmt.Fprintf(errOut, "identity store: %v\n", err)
		return 1
	}
	names, err := store.List()
	if err != nil {
		fmt.Fprintf(errOut, "list identities: %v\n", err)
		return 1
	}
	for _, n := range names {
		id, err := store.Load(n)
		if err != nil {
			fmt.Fprintf(out, "%s\t(unreadable: %v)\n", n, err)
			continue
		}
		fmt.Fprintf(out, "%s\t%s\n", n, id.Public().Name().Hex())
	}
	return 0
}

func cmdKeyExport(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key export", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var name string
	fs.StringVar(&name, "name", "", "Identity name")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if name == "" {
		fmt.Fprintln(errOut, "missing --name")
		return 2
	}
	store, err := identity.OpenStore("")
	if err != nil {
		fmt.Fprintf(errOut, "identity store: %v\n", err)
		return 1
	}
	id, err := store.Load(name)
	if err != nil {
		fmt.Fprintf(errOut, "load identity: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, id.Public().Encoded())
	return 0
}

func cmdSign(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("sign", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var dstHex string
	var dstKind string
	var signer string
	var seedHex string
	var content string
	var contentFile string
	fs.StringVar(&dstHex, "dst", "", "Destination name as 64 hex chars")
	fs.StringVar(&dstKind, "dst-kind", "node", "Destination kind: node or section")
	fs.StringVar(&signer, "signer", "", "Use a stored identity by name")
	fs.StringVar(&seedHex, "seed-hex", "", "Sign with an ad-hoc ed25519 seed (64 hex chars)")
	fs.StringVar(&content, "content", "", "Payload text")
	fs.StringVar(&contentFile, "content-file", "", "Payload file (overrides --content)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if dstHex == "" {
		fmt.Fprintln(errOut, "missing --dst")
		return 2
	}
	if signer == "" && seedHex == "" {
		fmt.Fprintln(errOut, "missing signer: use --signer or --seed-hex")
		return 2
	}
	if signer != "" && seedHex != "" {
		fmt.Fprintln(errOut, "conflicting signer flags: --signer cannot be combined with --seed-hex")
		return 2
	}

	dstName, err := xorname.ParseHex(dstHex)
	if err != nil {
		fmt.Fprintf(errOut, "invalid --dst: %v\n", err)
		return 2
	}
	var dst location.DstLocation
	switch dstKind {
	case "node":
		dst = location.NodeDst(dstName)
	case "section":
		dst = location.SectionDst(dstName)
	default:
		fmt.Fprintln(errOut, "invalid --dst-kind (expected node or section)")
		return 2
	}

	var id *identity.FullID
	if seedHex != "" {
		seed, err := identity.ParseSeedHex(seedHex)
		if err != nil {
			fmt.Fprintf(errOut, "invalid --seed-hex: %v\n", err)
			return 2
		}
		id, err = identity.FromSeed(seed)
		if err != nil {
			fmt.Fprintf(errOut, "identity: %v\n", err)
			return 1
		}
	} else {
		store, err := identity.OpenStore("")
		if err != nil {
			fmt.Fprintf(errOut, "identity store: %v\n", err)
			return 1
		}
		id, err = store.Load(signer)
		if err != nil {
			fmt.Fprintf(errOut, "load identity: %v\n", err)
			return 1
		}
	}

	payload := []byte(content)
	if contentFile != "" {
		payload, err = os.ReadFile(contentFile)
		if err != nil {
			fmt.Fprintf(errOut, "read --content-file: %v\n", err)
			return 1
		}
	}

	msg, err := messages.SingleSrc(id, dst, nil, messages.UserMessage{Content: payload})
	if err != nil {
		fmt.Fprintf(errOut, "sign: %v\n", err)
		return 1
	}
	fmt.Fprintf(errOut, "Hash: %s\n", msg.Hash().Hex())
	_, _ = out.Write(msg.ToBytes())
	return 0
}

func readMessage(path string, errOut io.Writer) (*messages.Message, int) {
	b, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(errOut, "read %s: %v\n", path, err)
		return nil, 1
	}
	msg, err := messages.FromBytes(b)
	if err != nil {
		fmt.Fprintf(errOut, "invalid message: %v\n", err)
		return nil, 1
	}
	return msg, 0
}

func cmdInspect(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: meshmsg inspect <file>")
		return 2
	}
	msg, code := readMessage(fs.Arg(0), errOut)
	if msg == nil {
		return code
	}
	fmt.Fprintf(out, "Hash:     %s\n", msg.Hash().Hex())
	fmt.Fprintf(out, "Src:      %s\n", msg.SrcLocation())
	fmt.Fprintf(out, "Dst:      %s\n", msg.Dst())
	fmt.Fprintf(out, "Variant:  %d\n", msg.Variant().Kind())
	if msg.DstKey() != nil {
		fmt.Fprintln(out, "Dst-Key:  present")
	} else {
		fmt.Fprintln(out, "Dst-Key:  absent")
	}
	if sa, ok := msg.Src().(messages.SectionAuthority); ok {
		fmt.Fprintf(out, "Proof:    %d keys\n", sa.Proof.Len())
	}
	return 0
}

type anchorList []string

func (a *anchorList) String() string { return strings.Join(*a, ",") }
func (a *anchorList) Set(v string) error {
	*a = append(*a, v)
	return nil
}

func cmdVerify(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var anchors anchorList
	fs.Var(&anchors, "anchor", "Trusted key as <prefix>=<keyhex> (repeatable; prefix may be empty for the root)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: meshmsg verify [--anchor <prefix>=<keyhex> ...] <file>")
		return 2
	}

	trustedPairs := make([]section.TrustedKey, 0, len(anchors))
	for _, spec := range anchors {
		prefixStr, keyHex, ok := strings.Cut(spec, "=")
		if !ok {
			fmt.Fprintf(errOut, "invalid --anchor %q (expected <prefix>=<keyhex>)\n", spec)
			return 2
		}
		prefix, err := xorname.ParsePrefix(prefixStr)
		if err != nil {
			fmt.Fprintf(errOut, "invalid --anchor prefix %q: %v\n", prefixStr, err)
			return 2
		}
		keyBytes, err := hex.DecodeString(strings.TrimSpace(keyHex))
		if err != nil {
			fmt.Fprintf(errOut, "invalid --anchor key hex: %v\n", err)
			return 2
		}
		key, err := section.UnmarshalKey(keyBytes)
		if err != nil {
			fmt.Fprintf(errOut, "invalid --anchor key: %v\n", err)
			return 2
		}
		trustedPairs = append(trustedPairs, section.TrustedKey{Prefix: prefix, Key: key})
	}

	msg, code := readMessage(fs.Arg(0), errOut)
	if msg == nil {
		return code
	}
	status, err := msg.Verify(section.NewTrustedKeys(trustedPairs))
	if err != nil {
		fmt.Fprintf(errOut, "verify: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, status)
	return 0
}

func cmdHash(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("hash", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: meshmsg hash <file>")
		return 2
	}
	b, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "read %s: %v\n", fs.Arg(0), err)
		return 1
	}
	_, _ = fmt.Fprintln(out, messages.HashOf(b).Hex())
	return 0
}

func openArchive(dir, configPath string, errOut io.Writer) (storage.Archive, func() error, int) {
	switch {
	case dir != "" && configPath != "":
		fmt.Fprintln(errOut, "conflicting flags: --dir cannot be combined with --config")
		return nil, nil, 2
	case dir != "":
		a, err := localfs.New(dir)
		if err != nil {
			fmt.Fprintf(errOut, "open archive: %v\n", err)
			return nil, nil, 1
		}
		return a, func() error { return nil }, 0
	case configPath != "":
		cfg, err := archiveconfig.LoadFile(configPath)
		if err != nil {
			fmt.Fprintf(errOut, "load --config: %v\n", err)
			return nil, nil, 1
		}
		a, closeAll, err := cfg.Open("")
		if err != nil {
			fmt.Fprintf(errOut, "open archive: %v\n", err)
			return nil, nil, 1
		}
		return a, closeAll, 0
	default:
		fmt.Fprintln(errOut, "missing archive: use --dir or --config")
		return nil, nil, 2
	}
}

func cmdArchive(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "usage: meshmsg archive <put|get> ...")
		return 2
	}
	switch args[0] {
	case "put":
		return cmdArchivePut(args[1:], out, errOut)
	case "get":
		return cmdArchiveGet(args[1:], out, errOut)
	default:
		fmt.Fprintf(errOut, "unknown archive subcommand: %s\n", args[0])
		return 2
	}
}

func cmdArchivePut(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("archive put", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var dir string
	var configPath string
	fs.StringVar(&dir, "dir", "", "Local archive directory")
	fs.StringVar(&configPath, "config", "", "Archive config file (JSON)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: meshmsg archive put (--dir <dir> | --config <archive.json>) <file>")
		return 2
	}

	// Only verified wire messages enter the archive.
	msg, code := readMessage(fs.Arg(0), errOut)
	if msg == nil {
		return code
	}

	a, closeAll, code := openArchive(dir, configPath, errOut)
	if a == nil {
		return code
	}
	defer func() { _ = closeAll() }()

	id, err := storage.PutMessage(a, msg)
	if err != nil {
		fmt.Fprintf(errOut, "archive put: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, id)
	return 0
}

func cmdArchiveGet(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("archive get", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var dir string
	var configPath string
	fs.StringVar(&dir, "dir", "", "Local archive directory")
	fs.StringVar(&configPath, "config", "", "Archive config file (JSON)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: meshmsg archive get (--dir <dir> | --config <archive.json>) <id>")
		return 2
	}
	id, err := cid.Decode(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "invalid id: %v\n", err)
		return 2
	}

	a, closeAll, code := openArchive(dir, configPath, errOut)
	if a == nil {
		return code
	}
	defer func() { _ = closeAll() }()

	msg, err := storage.GetMessage(a, id)
	if err != nil {
		fmt.Fprintf(errOut, "archive get: %v\n", err)
		return 1
	}
	fmt.Fprintf(errOut, "Hash: %s\n", msg.Hash().Hex())
	_, _ = out.Write(msg.ToBytes())
	return 0
}
