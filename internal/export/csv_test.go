package export

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Sternrassler/spidy-listings/pkg/spidy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(t *testing.T, ts string, side spidy.Side, price int64) Row {
	t.Helper()
	parsed, err := spidy.ParseTime(ts)
	require.NoError(t, err)
	return Row{Side: side, Listing: spidy.Listing{Timestamp: parsed, UnitPrice: price, Quantity: 10, Listings: 2}}
}

func TestGoldString(t *testing.T) {
	tests := []struct {
		copper int64
		want   string
	}{
		{0, "0.0000"},
		{1, "0.0001"},
		{123, "0.0123"},
		{10000, "1.0000"},
		{1234567, "123.4567"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, GoldString(tt.copper), "copper %d", tt.copper)
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Copper Ore", "Copper Ore.csv"},
		{"Mordrem/Ooze", "Mordrem_Ooze.csv"},
		{`a\b`, "a_b.csv"},
		{"nul\x00name", "nul_name.csv"},
		{"", "_.csv"},
		{"..", "_...csv"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FileName(tt.name), "name %q", tt.name)
	}
}

func TestCSVDir_WritesRows(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "output")

	sink, err := NewCSVDir(dir)
	require.NoError(t, err)
	assert.DirExists(t, dir)

	w, err := sink.Open(spidy.Item{ID: 19699, Name: "Iron Ore"})
	require.NoError(t, err)
	require.NoError(t, w.Write(row(t, "2018-06-01 12:00:00 UTC", spidy.SideBuy, 5)))
	require.NoError(t, w.Write(row(t, "2018-06-01 12:15:00 UTC", spidy.SideSell, 12345)))
	require.NoError(t, w.Close())

	f, err := os.Open(sink.Path("Iron Ore"))
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		Header,
		{"2018-06-01 12:00:00 UTC", "buy", "5", "10", "2", "0.0005"},
		{"2018-06-01 12:15:00 UTC", "sell", "12345", "10", "2", "1.2345"},
	}, records)
}

func TestCSVDir_EmptyHistoryWritesHeader(t *testing.T) {
	sink, err := NewCSVDir(t.TempDir())
	require.NoError(t, err)

	w, err := sink.Open(spidy.Item{ID: 1, Name: "Nothing"})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	data, err := os.ReadFile(sink.Path("Nothing"))
	require.NoError(t, err)
	assert.Equal(t, "timestamp,type,unit_price,quantity,listings,unit_price_gold\n", string(data))
}

func TestCSVDir_SharedNameGetsItemID(t *testing.T) {
	sink, err := NewCSVDir(t.TempDir())
	require.NoError(t, err)

	open := func(item spidy.Item, price int64) {
		w, err := sink.Open(item)
		require.NoError(t, err)
		require.NoError(t, w.Write(row(t, "2018-06-01 12:00:00 UTC", spidy.SideBuy, price)))
		require.NoError(t, w.Close())
	}

	open(spidy.Item{ID: 1, Name: "Mighty Sword"}, 10)
	open(spidy.Item{ID: 2, Name: "Mighty Sword"}, 20)
	// Reopening the same item keeps its file
	open(spidy.Item{ID: 1, Name: "Mighty Sword"}, 30)

	entries, err := os.ReadDir(sink.Dir())
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"Mighty Sword.csv", "Mighty Sword (2).csv"}, names)

	data, err := os.ReadFile(filepath.Join(sink.Dir(), "Mighty Sword (2).csv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), ",buy,20,")
}

func TestCSVDir_Errors(t *testing.T) {
	// A regular file where the directory should be
	file := filepath.Join(t.TempDir(), "taken")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := NewCSVDir(filepath.Join(file, "sub"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSink))

	sink, err := NewCSVDir(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.Mkdir(sink.Path("Blocked"), 0o755))

	_, err = sink.Open(spidy.Item{ID: 2, Name: "Blocked"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSink)
}

func TestNewCSVDir_RelativePath(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	sink, err := NewCSVDir("output")
	require.NoError(t, err)

	assert.True(t, filepath.IsAbs(sink.Dir()))
	assert.Equal(t, "output", filepath.Base(sink.Dir()))
}
