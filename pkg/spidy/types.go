package spidy

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// TimeLayout is the GW2Spidy timestamp format. All timestamps are UTC.
const TimeLayout = "2006-01-02 15:04:05 UTC"

// ErrUnknownRarity is returned when decoding a rarity outside the known set.
var ErrUnknownRarity = errors.New("unknown rarity")

// Rarity is the item rarity classification.
// Values are hard-coded from https://www.gw2spidy.com/api/v0.9/json/rarities
type Rarity int

const (
	RarityJunk Rarity = iota
	RarityCommon
	RarityFine
	RarityMasterwork
	RarityRare
	RarityExotic
	RarityAscended
	RarityLegendary
)

var rarityNames = [...]string{
	RarityJunk:       "Junk",
	RarityCommon:     "Common",
	RarityFine:       "Fine",
	RarityMasterwork: "Masterwork",
	RarityRare:       "Rare",
	RarityExotic:     "Exotic",
	RarityAscended:   "Ascended",
	RarityLegendary:  "Legendary",
}

// Valid reports whether r is one of the known rarities.
func (r Rarity) Valid() bool {
	return r >= RarityJunk && r <= RarityLegendary
}

func (r Rarity) String() string {
	if !r.Valid() {
		return fmt.Sprintf("Rarity(%d)", int(r))
	}
	return rarityNames[r]
}

// MarshalJSON encodes the rarity as its number.
func (r Rarity) MarshalJSON() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRarity, int(r))
	}
	return json.Marshal(int(r))
}

// UnmarshalJSON decodes a numeric rarity and rejects unknown values.
func (r *Rarity) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decode rarity: %w", err)
	}
	v := Rarity(n)
	if !v.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownRarity, n)
	}
	*r = v
	return nil
}

// Time is a UTC timestamp in TimeLayout.
type Time struct {
	time.Time
}

// ParseTime parses s in TimeLayout.
func ParseTime(s string) (Time, error) {
	t, err := time.ParseInLocation(TimeLayout, s, time.UTC)
	if err != nil {
		return Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return Time{t}, nil
}

// String formats t in TimeLayout.
func (t Time) String() string {
	return t.UTC().Format(TimeLayout)
}

// MarshalJSON encodes t in TimeLayout.
func (t Time) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes a TimeLayout string.
func (t *Time) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decode timestamp: %w", err)
	}
	parsed, err := ParseTime(strings.TrimSpace(s))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Side is the listing side.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Item is one tradeable item. Its identity is ID; all other fields are
// informational.
type Item struct {
	ID                       int64  `json:"data_id"`
	Name                     string `json:"name"`
	Rarity                   Rarity `json:"rarity"`
	RestrictionLevel         int    `json:"restriction_level"`
	Img                      string `json:"img"`
	PriceLastChanged         Time   `json:"price_last_changed"`
	MaxOfferUnitPrice        int64  `json:"max_offer_unit_price"`
	MinSaleUnitPrice         int64  `json:"min_sale_unit_price"`
	OfferAvailability        int64  `json:"offer_availability"`
	SaleAvailability         int64  `json:"sale_availability"`
	SalePriceChangeLastHour  int    `json:"sale_price_change_last_hour"`
	OfferPriceChangeLastHour int    `json:"offer_price_change_last_hour"`
	TypeID                   int64  `json:"type_id"`
	SubTypeID                int64  `json:"sub_type_id"`
}

// Listing is one historical data point for one side of an item's market.
type Listing struct {
	Timestamp Time  `json:"listing_datetime"`
	UnitPrice int64 `json:"unit_price"`
	Quantity  int64 `json:"quantity"`
	Listings  int64 `json:"listings"`
}

// ItemsPage is a page of the items/all and item-search endpoints.
type ItemsPage struct {
	Count    int    `json:"count"`
	Page     int    `json:"page"`
	LastPage int    `json:"last_page"`
	Total    int    `json:"total"`
	Results  []Item `json:"results"`
}

// ListingsPage is a page of the listings endpoint.
type ListingsPage struct {
	Side     Side      `json:"sell-or-buy"`
	Count    int       `json:"count"`
	Page     int       `json:"page"`
	LastPage int       `json:"last_page"`
	Total    int       `json:"total"`
	Results  []Listing `json:"results"`
}

// ItemResult wraps the single-item endpoint response.
type ItemResult struct {
	Result Item `json:"result"`
}
