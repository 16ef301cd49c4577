package spidy

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestRarity_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Rarity
		wantErr error
	}{
		{name: "junk", input: "0", want: RarityJunk},
		{name: "exotic", input: "5", want: RarityExotic},
		{name: "legendary", input: "7", want: RarityLegendary},
		{name: "unknown high", input: "8", wantErr: ErrUnknownRarity},
		{name: "unknown negative", input: "-1", wantErr: ErrUnknownRarity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r Rarity
			err := json.Unmarshal([]byte(tt.input), &r)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Unmarshal(%s) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unmarshal(%s) error: %v", tt.input, err)
			}
			if r != tt.want {
				t.Errorf("Unmarshal(%s) = %v, want %v", tt.input, r, tt.want)
			}
		})
	}
}

func TestRarity_String(t *testing.T) {
	if got := RarityMasterwork.String(); got != "Masterwork" {
		t.Errorf("String() = %q, want Masterwork", got)
	}
	if got := Rarity(42).String(); got != "Rarity(42)" {
		t.Errorf("String() = %q, want Rarity(42)", got)
	}
}

func TestTime_RoundTrip(t *testing.T) {
	var ts Time
	if err := json.Unmarshal([]byte(`"2018-05-03 21:15:02 UTC"`), &ts); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}

	want := time.Date(2018, 5, 3, 21, 15, 2, 0, time.UTC)
	if !ts.Equal(want) {
		t.Errorf("parsed = %v, want %v", ts.Time, want)
	}
	if ts.Location() != time.UTC {
		t.Errorf("location = %v, want UTC", ts.Location())
	}

	out, err := json.Marshal(ts)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	if string(out) != `"2018-05-03 21:15:02 UTC"` {
		t.Errorf("Marshal = %s", out)
	}
}

func TestTime_InvalidFormat(t *testing.T) {
	for _, input := range []string{`"2018-05-03T21:15:02Z"`, `"yesterday"`, `12345`} {
		var ts Time
		if err := json.Unmarshal([]byte(input), &ts); err == nil {
			t.Errorf("Unmarshal(%s) should fail", input)
		}
	}
}

func TestItem_Decode(t *testing.T) {
	raw := `{
		"data_id": 19697,
		"name": "Copper Ore",
		"rarity": 1,
		"restriction_level": 0,
		"img": "https://render.guildwars2.com/file/19697.png",
		"type_id": 5,
		"sub_type_id": 0,
		"price_last_changed": "2018-06-01 12:00:00 UTC",
		"max_offer_unit_price": 101,
		"min_sale_unit_price": 130,
		"offer_availability": 1873205,
		"sale_availability": 903120,
		"sale_price_change_last_hour": -2,
		"offer_price_change_last_hour": 3
	}`

	var item Item
	if err := json.Unmarshal([]byte(raw), &item); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}

	if item.ID != 19697 || item.Name != "Copper Ore" || item.Rarity != RarityCommon {
		t.Errorf("identity fields = %d/%q/%v", item.ID, item.Name, item.Rarity)
	}
	if item.MaxOfferUnitPrice != 101 || item.MinSaleUnitPrice != 130 {
		t.Errorf("prices = %d/%d", item.MaxOfferUnitPrice, item.MinSaleUnitPrice)
	}
	if item.SalePriceChangeLastHour != -2 || item.OfferPriceChangeLastHour != 3 {
		t.Errorf("price changes = %d/%d", item.SalePriceChangeLastHour, item.OfferPriceChangeLastHour)
	}
	if item.PriceLastChanged.String() != "2018-06-01 12:00:00 UTC" {
		t.Errorf("PriceLastChanged = %s", item.PriceLastChanged)
	}
}

func TestItem_DecodeUnknownRarity(t *testing.T) {
	var item Item
	err := json.Unmarshal([]byte(`{"data_id": 1, "name": "x", "rarity": 9, "price_last_changed": "2018-06-01 12:00:00 UTC"}`), &item)
	if !errors.Is(err, ErrUnknownRarity) {
		t.Errorf("error = %v, want ErrUnknownRarity", err)
	}
}
