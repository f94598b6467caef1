package member

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestShortID(t *testing.T) {
	tests := []struct {
		name string
		uri  string
		want string
	}{
		{
			name: "trailing slash",
			uri:  "https://example.org/members/alajouanine/",
			want: "alajouanine",
		},
		{
			name: "no trailing slash",
			uri:  "https://example.org/members/hemingway",
			want: "hemingway",
		},
		{
			name: "absent input",
			uri:  "",
			want: "",
		},
		{
			name: "bare identifier",
			uri:  "beach",
			want: "beach",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShortID(tt.uri))
		})
	}
}

func TestParseDate(t *testing.T) {
	assert.Equal(t, date(1921, 3, 14), ParseDate("1921-03-14"))
	assert.Equal(t, date(1921, 3, 1), ParseDate("1921-03"))
	assert.Equal(t, date(1921, 1, 1), ParseDate("1921"))
	assert.True(t, ParseDate("").IsZero())
	assert.True(t, ParseDate("not-a-date").IsZero())
	assert.True(t, ParseDate("1921-13-40").IsZero())
}

func TestEarliestDate(t *testing.T) {
	start := date(1922, 1, 10)
	purchase := date(1921, 12, 28)
	end := date(1922, 2, 10)

	assert.Equal(t, purchase, EarliestDate(start, purchase, end))
	assert.Equal(t, start, EarliestDate(start, time.Time{}, time.Time{}))
	assert.True(t, EarliestDate(time.Time{}, time.Time{}, time.Time{}).IsZero())
}

func TestSplitMemberURIs(t *testing.T) {
	first, second := SplitMemberURIs("https://example.org/members/stein/;https://example.org/members/toklas/")
	assert.Equal(t, "https://example.org/members/stein/", first)
	assert.Equal(t, "https://example.org/members/toklas/", second)

	first, second = SplitMemberURIs("https://example.org/members/stein/")
	assert.Equal(t, "https://example.org/members/stein/", first)
	assert.Empty(t, second)
}

func TestNormalizeDropsSharedAccounts(t *testing.T) {
	n := NewNormalizer(slog.Default())
	records := []RawEvent{
		{
			EventType:  "Subscription",
			StartDate:  "1921-03-14",
			MemberURIs: "https://example.org/members/stein/",
		},
		{
			EventType:  "Subscription",
			StartDate:  "1921-03-15",
			MemberURIs: "https://example.org/members/stein/;https://example.org/members/toklas/",
		},
	}

	events := n.Normalize(context.Background(), records)
	require.Len(t, events, 1)
	assert.Equal(t, "stein", events[0].MemberID)
}

func TestNormalizeDerivedFields(t *testing.T) {
	n := NewNormalizer(nil)
	records := []RawEvent{
		{
			EventType:                "Renewal",
			StartDate:                "1922-01-10",
			EndDate:                  "1922-02-10",
			SubscriptionPurchaseDate: "1921-12-28",
			MemberURIs:               "https://example.org/members/alajouanine/",
			ItemURI:                  "https://example.org/books/ulysses/",
			SourceType:               "Logbook",
		},
	}

	events := n.Normalize(context.Background(), records)
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, TypeRenewal, ev.Type)
	assert.Equal(t, "alajouanine", ev.MemberID)
	assert.Equal(t, "ulysses", ev.ItemID)
	assert.Equal(t, date(1921, 12, 28), ev.EarliestDate)
}

func TestNormalizeMalformedDates(t *testing.T) {
	n := NewNormalizer(nil)
	records := []RawEvent{
		{
			EventType:  "Borrow",
			StartDate:  "circa 1920",
			MemberURIs: "https://example.org/members/joyce/",
		},
	}

	events := n.Normalize(context.Background(), records)
	require.Len(t, events, 1)
	// Unparseable dates coerce to absent; the record survives until
	// the aggregation boundary.
	assert.True(t, events[0].EarliestDate.IsZero())
}
