// Package resolve turns a user selection (item ids, search terms or the
// whole catalog) into a deduplicated stream of items to process.
//
// Explicit selections are resolved up front: each id is looked up on its own
// and each term is searched through the paginated search endpoint. Lookup
// failures, empty searches and ambiguous searches are recorded as warnings
// and never abort the batch. The "all items" selection walks the catalog
// lazily; a catalog failure is returned to the caller.
package resolve

import (
	"context"
	"errors"
	"fmt"

	"github.com/Sternrassler/spidy-listings/pkg/client"
	"github.com/Sternrassler/spidy-listings/pkg/pagination"
	"github.com/Sternrassler/spidy-listings/pkg/spidy"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrEmptySelection is returned when no selection mode is set.
var ErrEmptySelection = errors.New("no items selected")

// ErrConflictingSelection is returned when "all" is combined with ids or names.
var ErrConflictingSelection = errors.New("all items cannot be combined with ids or names")

// Lookup is the part of the API the resolver needs. *spidy.API implements it.
type Lookup interface {
	Item(ctx context.Context, id int64) (spidy.Item, error)
	ItemSearch(term string) *pagination.Sequence[spidy.Item]
	Items() *pagination.Sequence[spidy.Item]
}

// Selection is the entity selection input.
type Selection struct {
	IDs   []int64
	Names []string
	All   bool
}

// Validate checks that exactly one mode family is selected.
func (s Selection) Validate() error {
	explicit := len(s.IDs) > 0 || len(s.Names) > 0
	switch {
	case s.All && explicit:
		return ErrConflictingSelection
	case !s.All && !explicit:
		return ErrEmptySelection
	}
	return nil
}

// WarningKind classifies a recovered resolution problem.
type WarningKind string

const (
	// WarnLookupFailed means a single id could not be looked up.
	WarnLookupFailed WarningKind = "lookup_failed"

	// WarnSearchFailed means a search term's pagination failed.
	WarnSearchFailed WarningKind = "search_failed"

	// WarnNoMatch means a search term matched nothing.
	WarnNoMatch WarningKind = "no_match"

	// WarnAmbiguous means a search term matched more than one item.
	WarnAmbiguous WarningKind = "ambiguous"
)

// Warning is a recovered resolution problem.
type Warning struct {
	Kind    WarningKind
	Query   string
	Matches int
	Err     error
}

func (w Warning) String() string {
	switch w.Kind {
	case WarnNoMatch:
		return fmt.Sprintf("search %q matched no items", w.Query)
	case WarnAmbiguous:
		return fmt.Sprintf("search %q matched %d items, keeping all", w.Query, w.Matches)
	default:
		return fmt.Sprintf("%s %s: %v", w.Kind, w.Query, w.Err)
	}
}

// Source yields resolved items one at a time.
type Source interface {
	Next(ctx context.Context) (spidy.Item, bool, error)

	// SizeHint is exact for explicit selections and advisory for the catalog.
	SizeHint() (int, bool)
}

// Resolver resolves selections against a Lookup.
type Resolver struct {
	lookup   Lookup
	logger   zerolog.Logger
	warnings []Warning
}

// New creates a Resolver.
func New(lookup Lookup) *Resolver {
	return &Resolver{
		lookup: lookup,
		logger: log.With().Str("component", "resolve").Logger(),
	}
}

// Warnings returns the problems recovered so far.
func (r *Resolver) Warnings() []Warning {
	return append([]Warning(nil), r.warnings...)
}

// Resolve returns the items to process for sel.
// Only an invalid selection or a cancelled context fails an explicit
// selection; everything else is recorded in Warnings.
func (r *Resolver) Resolve(ctx context.Context, sel Selection) (Source, error) {
	if err := sel.Validate(); err != nil {
		return nil, err
	}
	if sel.All {
		r.logger.Info().Msg("Resolving all items from the catalog")
		return &catalogSource{seq: r.lookup.Items(), seen: newDedup()}, nil
	}

	items, err := r.resolveExplicit(ctx, sel)
	if err != nil {
		return nil, err
	}
	return &sliceSource{items: items}, nil
}

func (r *Resolver) resolveExplicit(ctx context.Context, sel Selection) ([]spidy.Item, error) {
	seen := newDedup()
	var items []spidy.Item

	for _, id := range sel.IDs {
		if seen.hasID(id) {
			r.logger.Debug().Int64("item_id", id).Msg("Skipping duplicate item id")
			continue
		}
		item, err := r.lookup.Item(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("resolve item %d: %w", id, ctx.Err())
			}
			r.warn(Warning{Kind: WarnLookupFailed, Query: fmt.Sprint(id), Err: err})
			continue
		}
		if seen.add(item) {
			items = append(items, item)
		}
	}

	for _, term := range sel.Names {
		matches, err := r.lookup.ItemSearch(term).Collect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("search %q: %w", term, ctx.Err())
			}
			r.warn(Warning{Kind: WarnSearchFailed, Query: term, Err: err})
			continue
		}

		switch len(matches) {
		case 0:
			r.warn(Warning{Kind: WarnNoMatch, Query: term})
		case 1:
		default:
			r.warn(Warning{Kind: WarnAmbiguous, Query: term, Matches: len(matches)})
		}

		for _, item := range matches {
			if seen.add(item) {
				items = append(items, item)
			}
		}
	}

	r.logger.Info().
		Int("ids", len(sel.IDs)).
		Int("terms", len(sel.Names)).
		Int("resolved", len(items)).
		Int("warnings", len(r.warnings)).
		Msg("Items resolved")

	return items, nil
}

func (r *Resolver) warn(w Warning) {
	r.warnings = append(r.warnings, w)

	event := r.logger.Warn().Str("kind", string(w.Kind)).Str("query", w.Query)
	if w.Err != nil {
		event = event.Err(w.Err).Str("error_class", string(client.ClassOf(w.Err)))
	}
	if w.Matches > 0 {
		event = event.Int("matches", w.Matches)
	}
	event.Msg(w.String())
}

// dedup keys items by id when known and by name otherwise.
type dedup struct {
	ids   map[int64]struct{}
	names map[string]struct{}
}

func newDedup() *dedup {
	return &dedup{
		ids:   make(map[int64]struct{}),
		names: make(map[string]struct{}),
	}
}

func (d *dedup) hasID(id int64) bool {
	_, ok := d.ids[id]
	return ok
}

// add records item and reports whether it was new.
func (d *dedup) add(item spidy.Item) bool {
	if item.ID != 0 {
		if d.hasID(item.ID) {
			return false
		}
		d.ids[item.ID] = struct{}{}
		d.names[item.Name] = struct{}{}
		return true
	}
	if _, ok := d.names[item.Name]; ok {
		return false
	}
	d.names[item.Name] = struct{}{}
	return true
}

type sliceSource struct {
	items []spidy.Item
	pos   int
}

func (s *sliceSource) Next(context.Context) (spidy.Item, bool, error) {
	if s.pos >= len(s.items) {
		return spidy.Item{}, false, nil
	}
	item := s.items[s.pos]
	s.pos++
	return item, true, nil
}

func (s *sliceSource) SizeHint() (int, bool) {
	return len(s.items), true
}

type catalogSource struct {
	seq  *pagination.Sequence[spidy.Item]
	seen *dedup
}

func (s *catalogSource) Next(ctx context.Context) (spidy.Item, bool, error) {
	for {
		item, ok, err := s.seq.Next(ctx)
		if err != nil {
			return spidy.Item{}, false, fmt.Errorf("walk item catalog: %w", err)
		}
		if !ok {
			return spidy.Item{}, false, nil
		}
		if s.seen.add(item) {
			return item, true, nil
		}
	}
}

func (s *catalogSource) SizeHint() (int, bool) {
	return s.seq.SizeHint()
}
