// Package testutil provides testing utilities for the GW2Spidy client.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
)

// APIPrefix is the path prefix the mock serves, matching spidy.DefaultConfig.
const APIPrefix = "/v0.9/json"

// Page is one page served by the mock.
type Page struct {
	Count    int
	LastPage int
	Results  any
	// Extra fields merged into the envelope (e.g. "sell-or-buy").
	Extra map[string]any
}

// Failure makes the mock answer a request with an error instead of a page.
type Failure struct {
	// StatusCode to return. Zero means drop the connection (transport error).
	StatusCode int
	Headers    map[string]string
	Body       string
}

// MockSpidy is a configurable mock GW2Spidy server for testing.
type MockSpidy struct {
	server *httptest.Server

	mu       sync.RWMutex
	pages    map[string][]Page  // resource path -> pages (index 0 is page 1)
	items    map[int64]any      // single item lookups
	failures map[string]Failure // full path -> failure
	requests map[string]int     // full path -> count

	// LastRequestHeader holds the headers of the most recent request.
	LastRequestHeader http.Header
}

// NewMockSpidy creates a new mock GW2Spidy server.
func NewMockSpidy() *MockSpidy {
	mock := &MockSpidy{
		pages:    make(map[string][]Page),
		items:    make(map[int64]any),
		failures: make(map[string]Failure),
		requests: make(map[string]int),
	}
	mock.server = httptest.NewServer(http.HandlerFunc(mock.handle))
	return mock
}

// URL returns the base URL to use as spidy.Config.BaseURL.
func (m *MockSpidy) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockSpidy) Close() {
	m.server.Close()
}

// SetPages serves pages for a paginated resource such as "listings/19697/buy".
func (m *MockSpidy) SetPages(resource string, pages ...Page) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages[strings.Trim(resource, "/")] = pages
}

// SetPaged splits results into pages of perPage items and serves them for
// resource. An empty result set is served as a single empty page.
func (m *MockSpidy) SetPaged(resource string, perPage int, results []any, extra map[string]any) {
	var pages []Page
	for start := 0; start < len(results) || start == 0; start += perPage {
		end := start + perPage
		if end > len(results) {
			end = len(results)
		}
		pages = append(pages, Page{Count: perPage, Results: results[start:end], Extra: extra})
		if end == len(results) {
			break
		}
	}
	for i := range pages {
		pages[i].LastPage = len(pages)
	}
	m.SetPages(resource, pages...)
}

// SetItem serves item for the single item endpoint.
func (m *MockSpidy) SetItem(id int64, item any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[id] = item
}

// SetFailure makes requests to path (relative to APIPrefix, e.g.
// "listings/19697/sell/2") fail.
func (m *MockSpidy) SetFailure(path string, f Failure) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[strings.Trim(path, "/")] = f
}

// RequestCount returns the number of requests made to path (relative to
// APIPrefix). An empty path returns the total.
func (m *MockSpidy) RequestCount(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if path == "" {
		total := 0
		for _, n := range m.requests {
			total += n
		}
		return total
	}
	return m.requests[strings.Trim(path, "/")]
}

func (m *MockSpidy) handle(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, APIPrefix), "/")

	m.mu.Lock()
	m.requests[path]++
	m.LastRequestHeader = r.Header.Clone()
	failure, failing := m.failures[path]
	m.mu.Unlock()

	if failing {
		m.fail(w, failure)
		return
	}

	if strings.HasPrefix(path, "item/") {
		m.serveItem(w, strings.TrimPrefix(path, "item/"))
		return
	}

	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		http.NotFound(w, r)
		return
	}
	resource, pageStr := path[:idx], path[idx+1:]
	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		http.NotFound(w, r)
		return
	}

	m.mu.RLock()
	pages, ok := m.pages[resource]
	m.mu.RUnlock()
	if !ok || page > len(pages) {
		http.NotFound(w, r)
		return
	}

	p := pages[page-1]
	body := map[string]any{
		"count":     p.Count,
		"page":      page,
		"last_page": p.LastPage,
		"total":     p.Count * p.LastPage,
		"results":   p.Results,
	}
	for k, v := range p.Extra {
		body[k] = v
	}
	writeJSON(w, body)
}

func (m *MockSpidy) serveItem(w http.ResponseWriter, idStr string) {
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		http.Error(w, "bad id", http.StatusBadRequest)
		return
	}

	m.mu.RLock()
	item, ok := m.items[id]
	m.mu.RUnlock()
	if !ok {
		http.Error(w, fmt.Sprintf("item %d not found", id), http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{"result": item})
}

func (m *MockSpidy) fail(w http.ResponseWriter, f Failure) {
	if f.StatusCode == 0 {
		hj, ok := w.(http.Hijacker)
		if !ok {
			http.Error(w, "hijack unsupported", http.StatusInternalServerError)
			return
		}
		conn, _, err := hj.Hijack()
		if err == nil {
			conn.Close()
		}
		return
	}

	for k, v := range f.Headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(f.StatusCode)
	if f.Body != "" {
		w.Write([]byte(f.Body))
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

// ItemJSON builds a minimal GW2Spidy item object.
func ItemJSON(id int64, name string) map[string]any {
	return map[string]any{
		"data_id":                      id,
		"name":                         name,
		"rarity":                       1,
		"restriction_level":            0,
		"img":                          "https://render.guildwars2.com/file/" + strconv.FormatInt(id, 10) + ".png",
		"type_id":                      5,
		"sub_type_id":                  0,
		"price_last_changed":           "2018-06-01 12:00:00 UTC",
		"max_offer_unit_price":         100,
		"min_sale_unit_price":          120,
		"offer_availability":           1000,
		"sale_availability":            2000,
		"sale_price_change_last_hour":  0,
		"offer_price_change_last_hour": 0,
	}
}

// ListingJSON builds a GW2Spidy listing object.
func ListingJSON(timestamp string, unitPrice, quantity, listings int64) map[string]any {
	return map[string]any{
		"listing_datetime": timestamp,
		"unit_price":       unitPrice,
		"quantity":         quantity,
		"listings":         listings,
	}
}
