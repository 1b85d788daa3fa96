package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/op/go-logging"
)

const progName = "heatshrink"

// logModule names the CLI logger; the codec logs as "heatshrink".
const logModule = progName + "-cli"
const usageMessageRaw = `
Usage: heatshrink [-v] SUBCOMMAND...

Files default to standard input and output; "-" names them explicitly.

Subcommands:
  encode [-w BITS] [-l BITS] [IN [OUT]]
	Compress IN into a raw heatshrink stream.

  decode [-w BITS] [-l BITS] [-b SIZE] [IN [OUT]]
	Decompress a raw stream. The parameters must match the encoder's.

  pack [-w BITS] [-l BITS] [IN [OUT]]
	Compress IN into a container carrying the parameters, the length
	and a digest of the data.

  unpack [IN [OUT]]
	Extract and verify a container.

  dump [-w BITS] [-l BITS] [IN]
	List the tokens of a raw stream followed by a summary.

  sweep [-max-window BITS] [-svg FILE] [IN]
	Compress IN with every window/lookahead pair and print the sizes next
	to a zstd baseline. With -svg, also chart the ratios.

Options:
  -v	Trace codec state transitions on standard error.
`

var log = logging.MustGetLogger(logModule)

type nullWriter struct{}

func (n *nullWriter) Write(p []byte) (int, error) {
	return len(p), nil
}

var ourFlags *flag.FlagSet

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

var argI int

func nextArg(expected string) string {
	if !(argI < ourFlags.NArg()) {
		usageErrorf("not enough arguments; expected %s", expected)
	}
	arg := ourFlags.Arg(argI)
	argI++
	return arg
}

// optionalArg returns the next argument, or "-" when none is left.
func optionalArg() string {
	if argI < ourFlags.NArg() {
		return nextArg("")
	}
	return "-"
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

// newSubFlags returns a quiet flag set for one subcommand.
func newSubFlags() *flag.FlagSet {
	subFlags := flag.NewFlagSet(progName, flag.ContinueOnError)
	subFlags.Usage = func() {}
	subFlags.SetOutput(&nullWriter{})
	return subFlags
}

// parseSubFlags parses the remaining arguments into subFlags and makes it
// the source for nextArg.
func parseSubFlags(subFlags *flag.FlagSet) {
	argErr := subFlags.Parse(remainingArgs())
	if argErr == flag.ErrHelp {
		io.WriteString(os.Stdout, usageMessage())
		os.Exit(0)
	} else if argErr != nil {
		usageErrorf("%s", argErr.Error())
	}

	ourFlags = subFlags
	argI = 0
}

func startLogging(verbose bool) {
	backend := logging.NewLogBackend(os.Stderr, progName+": ", 0)
	formatSpec := "%{level:8s} %{module:-14s} | %{message}"
	formatter := logging.MustStringFormatter(formatSpec)
	formatted := logging.NewBackendFormatter(backend, formatter)
	leveled := logging.AddModuleLevel(formatted)
	leveled.SetLevel(logging.INFO, "")
	if verbose {
		leveled.SetLevel(logging.DEBUG, "")
	}
	logging.SetBackend(leveled)
}

func main() {
	var err error

	ourFlags = flag.NewFlagSet(progName, flag.ContinueOnError)
	ourFlags.Usage = func() {}
	ourFlags.SetOutput(&nullWriter{})
	verbosePtr := ourFlags.Bool("v", false, "")

	argErr := ourFlags.Parse(os.Args[1:])
	if argErr == flag.ErrHelp {
		io.WriteString(os.Stdout, usageMessage())
		os.Exit(0)
	} else if argErr != nil {
		usageErrorf("%s", argErr.Error())
	}

	startLogging(*verbosePtr)

	var requestedCommand func() error
	subcommandArg := nextArg("SUBCOMMAND")
	switch subcommandArg {
	default:
		usageErrorf("unrecognized subcommand \"%s\"", subcommandArg)
	case "encode":
		requestedCommand, err = encodeFromArgs()
	case "decode":
		requestedCommand, err = decodeFromArgs()
	case "pack":
		requestedCommand, err = packFromArgs()
	case "unpack":
		requestedCommand, err = unpackFromArgs()
	case "dump":
		requestedCommand, err = dumpFromArgs()
	case "sweep":
		requestedCommand, err = sweepFromArgs()
	}

	if err != nil {
		exitError(err)
	}

	err = requestedCommand()
	if err != nil {
		exitError(err)
	}
}
