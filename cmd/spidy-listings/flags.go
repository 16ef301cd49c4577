package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/spidy-listings/internal/config"
	"github.com/Sternrassler/spidy-listings/pkg/logging"
)

// options holds the parsed command line.
type options struct {
	configPath  string
	envFile     string
	itemIDs     idList
	itemNames   nameList
	all         bool
	verbosity   int
	maxBackoff  float64
	metricsAddr string
	pretty      bool
	outputDir   string

	set map[string]bool
}

// idList is a repeatable -i flag. Comma separated values are accepted too.
type idList []int64

func (l *idList) String() string {
	parts := make([]string, len(*l))
	for i, id := range *l {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

func (l *idList) Set(value string) error {
	for _, part := range strings.Split(value, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid item id %q", part)
		}
		*l = append(*l, id)
	}
	return nil
}

// nameList is a repeatable -n flag.
type nameList []string

func (l *nameList) String() string {
	return strings.Join(*l, ",")
}

func (l *nameList) Set(value string) error {
	*l = append(*l, value)
	return nil
}

// counter is a boolean flag that counts its occurrences.
type counter struct {
	n    *int
	step int
}

func (c counter) String() string {
	if c.n == nil {
		return "0"
	}
	return strconv.Itoa(*c.n)
}

func (c counter) Set(value string) error {
	on, err := strconv.ParseBool(value)
	if err != nil {
		return err
	}
	if on {
		*c.n += c.step
	}
	return nil
}

func (c counter) IsBoolFlag() bool { return true }

const usageHeader = `Usage: spidy-listings [flags] [output-dir]

Fetches the buy and sell listing history of GW2Spidy items and writes one
chronologically ordered CSV file per item into output-dir (default "output").

Flags:
`

func parseArgs(args []string, stderr io.Writer) (*options, error) {
	opts := &options{envFile: ".env"}

	fs := flag.NewFlagSet("spidy-listings", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usageHeader)
		fs.PrintDefaults()
	}

	for _, name := range []string{"i", "item-id"} {
		fs.Var(&opts.itemIDs, name, "item id to fetch (repeatable)")
	}
	for _, name := range []string{"n", "item-name"} {
		fs.Var(&opts.itemNames, name, "item name to search for (repeatable)")
	}
	for _, name := range []string{"a", "all"} {
		fs.BoolVar(&opts.all, name, false, "fetch every item in the catalog")
	}
	fs.Var(counter{n: &opts.verbosity, step: 1}, "v", "increase verbosity (repeatable)")
	fs.Var(counter{n: &opts.verbosity, step: 2}, "vv", "same as -v -v")
	fs.Var(counter{n: &opts.verbosity, step: 3}, "vvv", "same as -v -v -v")
	fs.Float64Var(&opts.maxBackoff, "max-backoff", config.DefaultMaxInterval.Seconds(), "maximum wait between page requests in seconds")
	fs.StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	fs.StringVar(&opts.envFile, "env-file", opts.envFile, "path to a .env file (ignored when missing)")
	fs.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	fs.BoolVar(&opts.pretty, "pretty", false, "human readable log output")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	switch fs.NArg() {
	case 0:
	case 1:
		opts.outputDir = fs.Arg(0)
	default:
		fs.Usage()
		return nil, fmt.Errorf("expected at most one output directory, got %d arguments", fs.NArg())
	}

	opts.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })

	if opts.maxBackoff < 0 {
		return nil, errors.New("--max-backoff must be >= 0")
	}

	return opts, nil
}

// apply overlays the flags that were given on the command line.
func (o *options) apply(cfg *config.Config) {
	if len(o.itemIDs) > 0 {
		cfg.Selection.ItemIDs = append([]int64(nil), o.itemIDs...)
	}
	if len(o.itemNames) > 0 {
		cfg.Selection.ItemNames = append([]string(nil), o.itemNames...)
	}
	if o.all {
		cfg.Selection.All = true
	}
	if o.set["max-backoff"] {
		cfg.Pacing.MaxInterval = time.Duration(o.maxBackoff * float64(time.Second))
	}
	if o.set["metrics-addr"] {
		cfg.Metrics.Addr = o.metricsAddr
	}
	if o.set["pretty"] {
		cfg.Log.Pretty = o.pretty
	}
	if o.verbosity > 0 {
		cfg.Log.Level = logging.LevelFromVerbosity(o.verbosity)
	}
	if o.outputDir != "" {
		cfg.Output.Dir = o.outputDir
	}
}
