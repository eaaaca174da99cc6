package settings

import (
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

var testDefaults = Filter{MinPrice: 0, MaxPrice: 999999, DateBucket: DateToday}

func TestFilterMatchesPrice(t *testing.T) {
	f := Filter{MinPrice: 1000, MaxPrice: 2000}

	assert.False(t, f.MatchesPrice(999))
	assert.True(t, f.MatchesPrice(1000))
	assert.True(t, f.MatchesPrice(1500))
	assert.True(t, f.MatchesPrice(2000))
	assert.False(t, f.MatchesPrice(2001))
}

func TestFilterMatchesDate(t *testing.T) {
	today := Filter{DateBucket: DateToday}
	assert.True(t, today.MatchesDate("сегодня, 10:00"))
	assert.True(t, today.MatchesDate("Сегодня, 10:00"))
	assert.False(t, today.MatchesDate("вчера, 10:00"))

	anyDate := Filter{DateBucket: DateAny}
	assert.True(t, anyDate.MatchesDate("вчера, 10:00"))
	assert.True(t, anyDate.MatchesDate(""))

	alias := Filter{DateBucket: "any"}
	assert.True(t, alias.MatchesDate("12 мая"))
}

func TestStoreReplaceAndSnapshot(t *testing.T) {
	store := NewStore(testDefaults)
	assert.Equal(t, testDefaults, store.Snapshot())
	assert.False(t, store.Snapshot().Configured())

	snapshot := store.Snapshot()
	stored := store.Replace(Filter{MinPrice: 5000, MaxPrice: 100, DateBucket: " Вчера ", Destination: "chat-1"})

	assert.Equal(t, Filter{MinPrice: 100, MaxPrice: 5000, DateBucket: DateYesterday, Destination: "chat-1"}, stored)
	assert.Equal(t, stored, store.Snapshot())
	assert.Equal(t, testDefaults, snapshot, "earlier snapshot is unaffected by Replace")
	assert.Equal(t, testDefaults, store.Defaults())
}

func TestStoreCatalog(t *testing.T) {
	store := NewStore(testDefaults)
	assert.False(t, store.Ready())
	assert.Empty(t, store.Catalog())

	catalog := []Destination{{ID: "1@g.us", Name: "Семья"}, {ID: "2@c.us", Name: "2"}}
	store.SetCatalog(catalog)
	catalog[0].Name = "mutated"

	assert.True(t, store.Ready())
	assert.Equal(t, "Семья", store.Catalog()[0].Name)
	assert.True(t, store.HasDestination("2@c.us"))
	assert.False(t, store.HasDestination("3@c.us"))
}

func TestStoreConcurrentAccess(t *testing.T) {
	store := NewStore(testDefaults)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			store.Replace(Filter{MinPrice: n, MaxPrice: n + 10, DateBucket: DateAny})
		}(i)
		go func() {
			defer wg.Done()
			f := store.Snapshot()
			assert.LessOrEqual(t, f.MinPrice, f.MaxPrice)
		}()
	}
	wg.Wait()
}

func TestFilterFromForm(t *testing.T) {
	tests := []struct {
		name     string
		values   url.Values
		expected Filter
	}{
		{
			name:     "all fields",
			values:   url.Values{"min": {"1000"}, "max": {"2000"}, "date": {"вчера"}, "chat": {"1@g.us"}},
			expected: Filter{MinPrice: 1000, MaxPrice: 2000, DateBucket: DateYesterday, Destination: "1@g.us"},
		},
		{
			name:     "missing fields use defaults",
			values:   url.Values{},
			expected: Filter{MinPrice: 0, MaxPrice: 999999, DateBucket: DateToday},
		},
		{
			name:     "invalid numbers use defaults",
			values:   url.Values{"min": {"abc"}, "max": {"-5"}, "chat": {"1@g.us"}},
			expected: Filter{MinPrice: 0, MaxPrice: 999999, DateBucket: DateToday, Destination: "1@g.us"},
		},
		{
			name:     "empty date means any",
			values:   url.Values{"date": {""}},
			expected: Filter{MinPrice: 0, MaxPrice: 999999, DateBucket: DateAny},
		},
		{
			name:     "unknown date keeps default",
			values:   url.Values{"date": {"позавчера"}},
			expected: Filter{MinPrice: 0, MaxPrice: 999999, DateBucket: DateToday},
		},
		{
			name:     "inverted bounds are swapped",
			values:   url.Values{"min": {"300"}, "max": {"100"}},
			expected: Filter{MinPrice: 100, MaxPrice: 300, DateBucket: DateToday},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FilterFromForm(tt.values))
		})
	}
}
