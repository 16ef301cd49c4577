// Package spidy implements the GW2Spidy API endpoints used to retrieve item
// metadata and buy/sell listing history.
package spidy

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/Sternrassler/spidy-listings/pkg/client"
	"github.com/Sternrassler/spidy-listings/pkg/pacing"
	"github.com/Sternrassler/spidy-listings/pkg/pagination"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Endpoint labels used for metrics and sequence names.
const (
	EndpointItem       = "item"
	EndpointItemSearch = "item-search"
	EndpointItems      = "items"
	EndpointListings   = "listings"
)

// ErrSideMismatch is returned when a listings page reports a different side
// than the one requested.
var ErrSideMismatch = errors.New("listing side mismatch")

// Format is the response format path segment.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// Getter performs a GET request and decodes the JSON response.
// *client.Client implements it.
type Getter interface {
	GetJSON(ctx context.Context, endpoint, url string, v any) error
}

// Config holds the API configuration.
type Config struct {
	// BaseURL is the API root, e.g. https://www.gw2spidy.com/api
	BaseURL string

	// Version path segment
	Version string

	// Format path segment (only json is decoded)
	Format Format

	// Pacing configures the per-sequence backoff policy.
	Pacing pacing.Config

	// Cooldown optionally extends the wait before page requests.
	Cooldown pagination.Cooldown

	// SequenceOptions are appended to every sequence (e.g. a test sleep).
	SequenceOptions []pagination.Option
}

// DefaultConfig returns the public GW2Spidy v0.9 JSON configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL: "https://www.gw2spidy.com/api",
		Version: "v0.9",
		Format:  FormatJSON,
		Pacing:  pacing.DefaultConfig(),
	}
}

// API is the GW2Spidy endpoint set.
type API struct {
	getter Getter
	cfg    Config
	logger zerolog.Logger
}

// New creates an API on top of getter.
func New(getter Getter, cfg Config) (*API, error) {
	if getter == nil {
		return nil, fmt.Errorf("getter is required")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if cfg.Version == "" {
		return nil, fmt.Errorf("version is required")
	}
	if cfg.Format != FormatJSON {
		return nil, fmt.Errorf("unsupported format %q (only %q is decoded)", cfg.Format, FormatJSON)
	}
	if err := cfg.Pacing.Validate(); err != nil {
		return nil, fmt.Errorf("pacing: %w", err)
	}

	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &API{
		getter: getter,
		cfg:    cfg,
		logger: log.With().Str("component", "spidy-api").Logger(),
	}, nil
}

// methodURL builds <base>/<version>/<format>/<method>/<segments...>.
func (a *API) methodURL(method string, segments ...string) string {
	parts := []string{a.cfg.BaseURL, a.cfg.Version, string(a.cfg.Format), method}
	for _, s := range segments {
		parts = append(parts, url.PathEscape(s))
	}
	return strings.Join(parts, "/")
}

// Item looks up a single item by id. No pagination, no pacing.
func (a *API) Item(ctx context.Context, id int64) (Item, error) {
	a.logger.Debug().Int64("item_id", id).Msg("Requesting item data")

	var resp ItemResult
	if err := a.getter.GetJSON(ctx, EndpointItem, a.methodURL(EndpointItem, strconv.FormatInt(id, 10)), &resp); err != nil {
		return Item{}, fmt.Errorf("get item %d: %w", id, err)
	}
	return resp.Result, nil
}

// ItemSearch returns a lazy sequence over the items matching term.
func (a *API) ItemSearch(term string) *pagination.Sequence[Item] {
	base := a.methodURL(EndpointItemSearch, term)
	return a.itemSequence(EndpointItemSearch, base)
}

// Items returns a lazy sequence over the whole item catalog.
func (a *API) Items() *pagination.Sequence[Item] {
	base := a.methodURL(EndpointItems, "all")
	return a.itemSequence(EndpointItems, base)
}

// Listings returns a lazy sequence over one side of an item's listings in
// server order (newest first).
func (a *API) Listings(id int64, side Side) *pagination.Sequence[Listing] {
	return pagination.NewSequence[Listing](a.ListingsFetcher(id, side), a.newPolicy(), a.sequenceOptions(EndpointListings)...)
}

// ListingsFetcher returns the page fetcher for one side of an item's listings.
func (a *API) ListingsFetcher(id int64, side Side) pagination.PageFetcher[Listing] {
	base := a.methodURL(EndpointListings, strconv.FormatInt(id, 10), string(side))

	return pagination.FetcherFunc[Listing](func(ctx context.Context, page int) (*pagination.Envelope[Listing], error) {
		var resp ListingsPage
		if err := a.getter.GetJSON(ctx, EndpointListings, pageURL(base, page), &resp); err != nil {
			return nil, fmt.Errorf("listings %d/%s: %w", id, side, err)
		}
		if resp.Side != "" && resp.Side != side {
			return nil, &client.APIError{
				StatusCode: 200,
				ErrorClass: client.ErrorClassDecode,
				Message:    fmt.Sprintf("requested %s listings for item %d, got %s", side, id, resp.Side),
				Err:        ErrSideMismatch,
			}
		}
		return &pagination.Envelope[Listing]{
			Page:     resp.Page,
			LastPage: resp.LastPage,
			PerPage:  resp.Count,
			Results:  resp.Results,
		}, nil
	})
}

func (a *API) itemSequence(endpoint, base string) *pagination.Sequence[Item] {
	fetcher := pagination.FetcherFunc[Item](func(ctx context.Context, page int) (*pagination.Envelope[Item], error) {
		var resp ItemsPage
		if err := a.getter.GetJSON(ctx, endpoint, pageURL(base, page), &resp); err != nil {
			return nil, fmt.Errorf("%s: %w", endpoint, err)
		}
		return &pagination.Envelope[Item]{
			Page:     resp.Page,
			LastPage: resp.LastPage,
			PerPage:  resp.Count,
			Results:  resp.Results,
		}, nil
	})

	return pagination.NewSequence[Item](fetcher, a.newPolicy(), a.sequenceOptions(endpoint)...)
}

// newPolicy gives each sequence its own pacing state.
func (a *API) newPolicy() *pacing.Policy {
	// Config was validated in New.
	policy, _ := pacing.New(a.cfg.Pacing)
	return policy
}

func (a *API) sequenceOptions(name string) []pagination.Option {
	opts := []pagination.Option{pagination.WithName(name)}
	if a.cfg.Cooldown != nil {
		opts = append(opts, pagination.WithCooldown(a.cfg.Cooldown))
	}
	return append(opts, a.cfg.SequenceOptions...)
}

func pageURL(base string, page int) string {
	return base + "/" + strconv.Itoa(page)
}
