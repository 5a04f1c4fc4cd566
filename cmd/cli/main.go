// Command geocam is a CLI client for the GeoCam service.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"

	"github.com/and161185/geocam/internal/apiclient"
	"github.com/and161185/geocam/internal/errs"
	"github.com/and161185/geocam/internal/validate"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// errUsage marks bad command-line input.
var errUsage = errors.New("usage")

func usage(w io.Writer) {
	fmt.Fprintf(w, `geocam CLI
Usage:
  geocam [-config file] [-api URL] [-v] <cmd> [args]

Commands:
  version
  register   -name <name> -email <email> -p <password> -confirm <password>
  login      -email <email> -p <password>          (saves token and user id)
  logout
  whoami
  capture    -photo <image> [-front <image>] [-facing back|front] [-toggle]
             [-lat <deg> -lon <deg> | -fix <file> | -no-location] [-camera-ok]
  photos     [-limit n] [-json]
`)
}

var commands = map[string]func(*app, context.Context, []string) error{
	"register": (*app).cmdRegister,
	"login":    (*app).cmdLogin,
	"logout":   (*app).cmdLogout,
	"whoami":   (*app).cmdWhoami,
	"capture":  (*app).cmdCapture,
	"photos":   (*app).cmdPhotos,
}

// main dispatches subcommands and exits with run's status.
func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes one command. Exit codes: 0 ok, 1 failure, 2 bad input.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("geocam", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfgPath := fs.String("config", "", "config file (default $XDG_CONFIG_HOME/geocam/config.yaml)")
	apiURL := fs.String("api", "", "API base URL (overrides config and GEOCAM_API_URL)")
	verbose := fs.Bool("v", false, "log to stderr")
	fs.Usage = func() { usage(stderr) }
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		usage(stderr)
		return 2
	}
	cmd, rest := fs.Arg(0), fs.Args()[1:]

	if cmd == "version" {
		fmt.Fprintf(stdout, "geocam %s (%s)\n", version, buildDate)
		return 0
	}

	handler, ok := commands[cmd]
	if !ok {
		usage(stderr)
		return 2
	}

	a, err := newApp(*cfgPath, *apiURL, *verbose, stdin, stdout, stderr)
	if err != nil {
		return report(stderr, err)
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err = handler(a, ctx, rest)
	if err != nil {
		return report(stderr, err)
	}
	return 0
}

// report prints err for a human and returns the exit code.
func report(w io.Writer, err error) int {
	if errors.Is(err, errUsage) {
		fmt.Fprintln(w, err)
		return 2
	}

	var verr *validate.Error
	if errors.As(err, &verr) {
		fmt.Fprintln(w, "invalid input:")
		printFields(w, verr.Fields)
		return 2
	}

	switch {
	case errors.Is(err, errs.ErrAuthenticationRequired):
		fmt.Fprintln(w, "not logged in; run `geocam login` first")
	case errors.Is(err, errs.ErrPermissionDenied):
		fmt.Fprintln(w, "camera permission denied; pass -camera-ok to allow access")
	default:
		fmt.Fprintln(w, err)
	}

	var rerr *apiclient.RequestError
	if errors.As(err, &rerr) {
		if fields := rerr.FieldErrors(); len(fields) > 0 {
			printFields(w, fields)
		}
	}
	return 1
}

func printFields(w io.Writer, fields map[string]string) {
	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		fmt.Fprintf(w, "  %s: %s\n", k, fields[k])
	}
}

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
