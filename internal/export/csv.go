// Package export writes merged listing histories to an output destination.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/Sternrassler/spidy-listings/pkg/spidy"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// ErrSink wraps every failure to create or write an output destination.
var ErrSink = errors.New("output sink")

// Header is the CSV column order.
var Header = []string{"timestamp", "type", "unit_price", "quantity", "listings", "unit_price_gold"}

var copperPerGold = decimal.NewFromInt(10000)

// Row is one merged listing tagged with the side it came from.
type Row struct {
	Side    spidy.Side
	Listing spidy.Listing
}

// Record renders r in Header order.
func (r Row) Record() []string {
	return []string{
		r.Listing.Timestamp.String(),
		string(r.Side),
		strconv.FormatInt(r.Listing.UnitPrice, 10),
		strconv.FormatInt(r.Listing.Quantity, 10),
		strconv.FormatInt(r.Listing.Listings, 10),
		GoldString(r.Listing.UnitPrice),
	}
}

// GoldString converts a copper price to gold with four decimals.
func GoldString(copper int64) string {
	return decimal.NewFromInt(copper).Div(copperPerGold).StringFixed(4)
}

// RecordWriter receives the rows of one item.
type RecordWriter interface {
	Write(Row) error
	Close() error
}

// Sink opens one destination per item, named after the item.
type Sink interface {
	Open(item spidy.Item) (RecordWriter, error)
}

// CSVDir writes <name>.csv files into a directory. When two items of one run
// share a name, the later one is written to "<name> (<id>).csv".
type CSVDir struct {
	dir    string
	logger zerolog.Logger

	mu      sync.Mutex
	claimed map[string]int64 // file name -> item id
}

// NewCSVDir creates dir (and parents) and returns a sink writing into it.
// Relative paths are resolved against the working directory.
func NewCSVDir(dir string) (*CSVDir, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve %s: %v", ErrSink, dir, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create directory: %v", ErrSink, err)
	}
	return &CSVDir{
		dir:     abs,
		logger:  log.With().Str("component", "export").Logger(),
		claimed: make(map[string]int64),
	}, nil
}

// Dir returns the absolute output directory.
func (d *CSVDir) Dir() string {
	return d.dir
}

// Path returns the file written for name.
func (d *CSVDir) Path(name string) string {
	return filepath.Join(d.dir, FileName(name))
}

// Open creates (or truncates) the file for item and writes the header.
func (d *CSVDir) Open(item spidy.Item) (RecordWriter, error) {
	path := filepath.Join(d.dir, d.claim(item))

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", ErrSink, path, err)
	}

	w := &csvWriter{f: f, w: csv.NewWriter(f), path: path}
	if err := w.w.Write(Header); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: write header %s: %v", ErrSink, path, err)
	}

	d.logger.Debug().Str("path", path).Msg("Opened output file")
	return w, nil
}

// claim picks the file name for item. A name already taken by another item
// in this run gets the item id appended.
func (d *CSVDir) claim(item spidy.Item) string {
	d.mu.Lock()
	defer d.mu.Unlock()

	file := FileName(item.Name)
	if owner, taken := d.claimed[file]; taken && owner != item.ID {
		file = FileName(fmt.Sprintf("%s (%d)", item.Name, item.ID))
		d.logger.Warn().
			Int64("item_id", item.ID).
			Int64("other_item_id", owner).
			Str("item_name", item.Name).
			Str("file", file).
			Msg("Item name already written in this run, appending item id")
	}
	d.claimed[file] = item.ID
	return file
}

type csvWriter struct {
	f    *os.File
	w    *csv.Writer
	path string
	rows int
}

func (c *csvWriter) Write(r Row) error {
	if err := c.w.Write(r.Record()); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrSink, c.path, err)
	}
	c.rows++
	return nil
}

func (c *csvWriter) Close() error {
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		c.f.Close()
		return fmt.Errorf("%w: flush %s: %v", ErrSink, c.path, err)
	}
	if err := c.f.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", ErrSink, c.path, err)
	}
	return nil
}

var nameReplacer = strings.NewReplacer("/", "_", "\\", "_", "\x00", "_")

// FileName maps an item name to its CSV file name.
func FileName(name string) string {
	name = nameReplacer.Replace(name)
	if name == "" || name == "." || name == ".." {
		name = "_" + name
	}
	return name + ".csv"
}
