// Copyright © 2026 Enrik Berkhan.  Copying, distribution, and modification of this software is governed by
// the MIT-style license in the file ../../LICENSE.md.

package main

import (
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/op/go-logging"
	"golang.org/x/crypto/blake2b"

	"github.com/enrikb/spitfire/dragon"
)

var log = logging.MustGetLogger("spitfire")

const progName = "spitfire"
const usageMessageRaw = `
Usage: spitfire OPTIONS SUBCOMMAND...

Options:
  --bits N, -b N
	Cipher strength: 128 or 256 bits.  Defaults to 256.
  --debug, -d
	Log cipher setup details to standard error.

Subcommands:
  keystream (-k HEXKEY -v HEXIV | -p PASSPHRASE) -n COUNT
	Write COUNT bytes of raw keystream to standard output as hex.
	With -p, both key and IV are derived from the passphrase; only
	useful for inspection, never reuse a passphrase-derived IV for
	encryption.

  encrypt (-k HEXKEY | -p PASSPHRASE) [-i FILE] [-o FILE]
	Encrypt standard input (or FILE) to standard output (or FILE).
	A fresh random IV is generated and prepended to the output.

  decrypt (-k HEXKEY | -p PASSPHRASE) [-i FILE] [-o FILE]
	Reverse of encrypt: strip the IV prefix and decrypt the rest.
`

type nullWriter struct{}

func (n *nullWriter) Write(p []byte) (int, error) {
	return len(p), nil
}

var ourFlags *flag.FlagSet
var argI int = 0

func usageMessage() string {
	return strings.TrimLeft(usageMessageRaw, "\n")
}

func usageErrorf(detailFmt string, detailArgs ...interface{}) {
	detail := fmt.Sprintf(detailFmt, detailArgs...)
	fmt.Fprintf(os.Stderr, "%s: %s\n%s", progName, detail, usageMessage())
	os.Exit(64)
}

func exitError(err error) {
	fmt.Fprintf(os.Stderr, "%s: %s\n", progName, err.Error())
	os.Exit(1)
}

func nextArg(expected string) string {
	if !(argI < ourFlags.NArg()) {
		usageErrorf("not enough arguments; expected %s", expected)
	}
	arg := ourFlags.Arg(argI)
	argI++
	return arg
}

func remainingArgs() []string {
	slice := ourFlags.Args()[argI:]
	argI = ourFlags.NArg()
	return slice
}

func endOfArgs() {
	if argI < ourFlags.NArg() {
		usageErrorf("too many arguments at %d (\"%s\")", argI, ourFlags.Arg(argI))
	}
}

var leveledLogBackend logging.Leveled

func startLogging() {
	backend := logging.NewLogBackend(os.Stderr, progName+": ", 0)
	formatSpec := "%{color:bold}%{level:6s}%{color:reset} %{module:-10s} | %{message}"
	formatter := logging.MustStringFormatter(formatSpec)
	formatted := logging.NewBackendFormatter(backend, formatter)
	leveled := logging.AddModuleLevel(formatted)
	leveled.SetLevel(logging.WARNING, "")
	logging.SetBackend(leveled)
	leveledLogBackend = leveled
}

var cipherBits int

func keyBytes() int {
	return cipherBits / 8
}

// keyMaterial resolves the -k/-v/-p options of a subcommand into key and
// (possibly nil) IV.  A passphrase is stretched with BLAKE2b; the IV half,
// when requested, comes from a second personalized hash.
type keyMaterial struct {
	keyHex, ivHex, passphrase string
}

func (km *keyMaterial) addTo(subFlags *flag.FlagSet) {
	subFlags.StringVar(&km.keyHex, "k", "", "")
	subFlags.StringVar(&km.ivHex, "v", "", "")
	subFlags.StringVar(&km.passphrase, "p", "", "")
}

func derive(passphrase, person string, n int) []byte {
	h, err := blake2b.New(n, nil)
	if err != nil {
		panic("spitfire: bad BLAKE2b size")
	}
	io.WriteString(h, person)
	io.WriteString(h, passphrase)
	return h.Sum(nil)
}

func (km *keyMaterial) key() []byte {
	switch {
	case km.keyHex != "" && km.passphrase != "":
		usageErrorf("-k and -p are mutually exclusive")
	case km.keyHex != "":
		key, err := hex.DecodeString(km.keyHex)
		if err != nil {
			usageErrorf("bad key hex: %s", err.Error())
		}
		if len(key) != keyBytes() {
			usageErrorf("key must be %d hex digits at %d bits", keyBytes()*2, cipherBits)
		}
		return key
	case km.passphrase != "":
		log.Info("deriving %d-bit key from passphrase", cipherBits)
		return derive(km.passphrase, "spitfire.key.", keyBytes())
	}
	usageErrorf("one of -k or -p is required")
	return nil
}

// iv returns the explicit or passphrase-derived IV, or nil if neither was
// given.
func (km *keyMaterial) iv() []byte {
	if km.ivHex != "" {
		iv, err := hex.DecodeString(km.ivHex)
		if err != nil {
			usageErrorf("bad IV hex: %s", err.Error())
		}
		if len(iv) != keyBytes() {
			usageErrorf("IV must be %d hex digits at %d bits", keyBytes()*2, cipherBits)
		}
		return iv
	}
	if km.passphrase != "" {
		log.Warning("IV derived from passphrase; do not reuse for encryption")
		return derive(km.passphrase, "spitfire.iv.", keyBytes())
	}
	return nil
}

func subcommandFlags() *flag.FlagSet {
	subFlags := flag.NewFlagSet(progName, flag.ContinueOnError)
	subFlags.Usage = func() {}
	subFlags.SetOutput(&nullWriter{})
	return subFlags
}

func parseSubFlags(subFlags *flag.FlagSet, args []string) {
	argErr := subFlags.Parse(args)
	if argErr == flag.ErrHelp {
		io.WriteString(os.Stdout, usageMessage())
		os.Exit(0)
	} else if argErr != nil {
		usageErrorf("%s", argErr.Error())
	}
	ourFlags = subFlags
	argI = 0
}

func openInput(path string) io.ReadCloser {
	if path == "" {
		return os.Stdin
	}
	in, err := os.Open(path)
	if err != nil {
		exitError(err)
	}
	return in
}

func openOutput(path string) io.WriteCloser {
	if path == "" {
		return os.Stdout
	}
	out, err := os.Create(path)
	if err != nil {
		exitError(err)
	}
	return out
}

func keystreamFromArgs() (func() error, error) {
	subFlags := subcommandFlags()
	var km keyMaterial
	km.addTo(subFlags)
	countPtr := subFlags.Int("n", 0, "")
	parseSubFlags(subFlags, remainingArgs())
	endOfArgs()

	key := km.key()
	iv := km.iv()
	if iv == nil {
		usageErrorf("keystream requires -v or -p")
	}
	if *countPtr <= 0 {
		usageErrorf("keystream requires -n COUNT")
	}

	return func() error {
		c, err := dragon.NewCipher(key, iv)
		if err != nil {
			return err
		}
		out := make([]byte, *countPtr)
		c.KeystreamBytes(out)
		fmt.Println(hex.EncodeToString(out))
		return nil
	}, nil
}

// xorCopy pumps src through the cipher into dst.
func xorCopy(dst io.Writer, src io.Reader, c *dragon.Cipher) error {
	chunk := make([]byte, 64*1024)
	for {
		n, err := src.Read(chunk)
		if n > 0 {
			c.XORKeyStream(chunk[:n], chunk[:n])
			if _, werr := dst.Write(chunk[:n]); werr != nil {
				return werr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func cryptFromArgs(decrypting bool) (func() error, error) {
	subFlags := subcommandFlags()
	var km keyMaterial
	km.addTo(subFlags)
	inPtr := subFlags.String("i", "", "")
	outPtr := subFlags.String("o", "", "")
	parseSubFlags(subFlags, remainingArgs())
	endOfArgs()

	key := km.key()
	if km.ivHex != "" {
		usageErrorf("encrypt/decrypt manage the IV themselves; -v is not accepted")
	}

	return func() error {
		in := openInput(*inPtr)
		defer in.Close()
		out := openOutput(*outPtr)
		defer out.Close()

		iv := make([]byte, keyBytes())
		if decrypting {
			if _, err := io.ReadFull(in, iv); err != nil {
				return fmt.Errorf("spitfire: reading IV prefix: %w", err)
			}
		} else {
			if _, err := rand.Read(iv); err != nil {
				return err
			}
			if _, err := out.Write(iv); err != nil {
				return err
			}
		}
		log.Info("IV %x", iv)

		c, err := dragon.NewCipher(key, iv)
		if err != nil {
			return err
		}
		return xorCopy(out, in, c)
	}, nil
}

func main() {
	startLogging()

	ourFlags = flag.NewFlagSet(progName, flag.ContinueOnError)
	ourFlags.Usage = func() {}
	ourFlags.SetOutput(&nullWriter{})

	// Usage strings are hardcoded above.

	var debugLogging bool
	ourFlags.IntVar(&cipherBits, "bits", 256, "")
	ourFlags.IntVar(&cipherBits, "b", 256, "")
	ourFlags.BoolVar(&debugLogging, "debug", false, "")
	ourFlags.BoolVar(&debugLogging, "d", false, "")

	argErr := ourFlags.Parse(os.Args[1:])
	if argErr == flag.ErrHelp {
		io.WriteString(os.Stdout, usageMessage())
		os.Exit(0)
	} else if argErr != nil {
		usageErrorf("%s", argErr.Error())
	}

	if debugLogging {
		leveledLogBackend.SetLevel(logging.DEBUG, "")
	}

	if cipherBits != 128 && cipherBits != 256 {
		usageErrorf("bad cipher strength %d; must be 128 or 256", cipherBits)
	}

	var requestedCommand func() error
	var err error
	subcommandArg := nextArg("SUBCOMMAND")
	switch subcommandArg {
	default:
		usageErrorf("bad subcommand \"%s\"", subcommandArg)
	case "keystream":
		requestedCommand, err = keystreamFromArgs()
	case "encrypt":
		requestedCommand, err = cryptFromArgs(false)
	case "decrypt":
		requestedCommand, err = cryptFromArgs(true)
	}

	if err == nil {
		err = requestedCommand()
	}
	if err != nil {
		exitError(err)
	}
}
