package member

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// dateLayouts are the accepted source date shapes. Partially known dates
// round down to the first day of the month or year.
var dateLayouts = []string{"2006-01-02", "2006-01", "2006"}

// ParseDate coerces a source date string to a time. Empty or malformed
// strings coerce to the zero time rather than failing the record.
func ParseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// ShortID extracts the short identifier from a URI-shaped string: the
// final non-empty path segment. Returns "" for absent input.
func ShortID(uri string) string {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return ""
	}
	uri = strings.TrimRight(uri, "/")
	if idx := strings.LastIndex(uri, "/"); idx >= 0 {
		return uri[idx+1:]
	}
	return uri
}

// SplitMemberURIs splits the semicolon-joined member_uris field into its
// first and, when present, second URI.
func SplitMemberURIs(uris string) (first, second string) {
	parts := strings.SplitN(uris, ";", 2)
	first = strings.TrimSpace(parts[0])
	if len(parts) > 1 {
		second = strings.TrimSpace(parts[1])
	}
	return first, second
}

// EarliestDate returns the minimum of the given dates, ignoring absent
// (zero) values. Returns the zero time when all are absent.
func EarliestDate(dates ...time.Time) time.Time {
	var earliest time.Time
	for _, d := range dates {
		if d.IsZero() {
			continue
		}
		if earliest.IsZero() || d.Before(earliest) {
			earliest = d
		}
	}
	return earliest
}

// Normalizer derives canonical identifiers and typed dates from raw
// event records.
type Normalizer struct {
	logger *slog.Logger
}

// NewNormalizer creates a normalizer
func NewNormalizer(logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{logger: logger}
}

// Normalize converts raw records into normalized events. Events carrying
// a second member URI (shared or organizational accounts) are excluded
// entirely: they are not predictive of individual member behavior.
func (n *Normalizer) Normalize(ctx context.Context, records []RawEvent) []Event {
	events := make([]Event, 0, len(records))
	shared := 0

	for _, rec := range records {
		first, second := SplitMemberURIs(rec.MemberURIs)
		if second != "" {
			shared++
			continue
		}

		ev := Event{
			Type:                     EventType(strings.TrimSpace(rec.EventType)),
			StartDate:                ParseDate(rec.StartDate),
			EndDate:                  ParseDate(rec.EndDate),
			PurchaseDate:             ParseDate(rec.SubscriptionPurchaseDate),
			MemberURIs:               rec.MemberURIs,
			MemberNames:              rec.MemberNames,
			ItemURI:                  rec.ItemURI,
			SourceType:               rec.SourceType,
			SubscriptionDuration:     rec.SubscriptionDuration,
			SubscriptionDurationDays: rec.SubscriptionDurationDays,
			SubscriptionVolumes:      rec.SubscriptionVolumes,
			SubscriptionCategory:     rec.SubscriptionCategory,
			MemberID:                 ShortID(first),
			ItemID:                   ShortID(rec.ItemURI),
		}
		ev.EarliestDate = EarliestDate(ev.StartDate, ev.PurchaseDate, ev.EndDate)

		events = append(events, ev)
	}

	n.logger.InfoContext(ctx, "normalized event records",
		slog.Int("input", len(records)),
		slog.Int("output", len(events)),
		slog.Int("shared_accounts_dropped", shared))

	return events
}

// ToMemberEvents projects normalized events into the per-member view,
// keeping events regardless of date validity; zero dates are dropped
// later at the aggregation boundary.
func ToMemberEvents(events []Event) []MemberEvent {
	out := make([]MemberEvent, 0, len(events))
	for _, ev := range events {
		out = append(out, MemberEvent{
			MemberID:   ev.MemberID,
			Type:       ev.Type,
			Date:       ev.EarliestDate,
			SourceType: ev.SourceType,
		})
	}
	return out
}
