// Package aggregate reduces member event streams to first-event and
// first-subscription series and buckets them into periodic counts.
package aggregate

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"lendlib/internal/member"
)

// DefaultCutoff excludes events recorded after the library's documented
// activity ends; later dates are data-entry artifacts.
var DefaultCutoff = time.Date(1942, time.January, 1, 0, 0, 0, 0, time.UTC)

// Aggregator reduces per-member event streams to one row per member.
type Aggregator struct {
	logger *slog.Logger
	order  member.TypeOrder
	cutoff time.Time
}

// New creates an aggregator. A nil order falls back to the default
// categorical ordering; a zero cutoff falls back to DefaultCutoff.
func New(logger *slog.Logger, order member.TypeOrder, cutoff time.Time) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	if order == nil {
		order = member.DefaultTypeOrder()
	}
	if cutoff.IsZero() {
		cutoff = DefaultCutoff
	}
	return &Aggregator{logger: logger, order: order, cutoff: cutoff}
}

// FirstEventPerMember reduces the stream to each member's earliest
// event. Events with absent dates or dates on or after the cutoff are
// dropped first. Same-day ties resolve by the categorical type order,
// so a Subscription beats a Reimbursement recorded the same day.
func (a *Aggregator) FirstEventPerMember(ctx context.Context, events []member.MemberEvent) []member.MemberEvent {
	out := a.firstPerMember(events)

	a.logger.InfoContext(ctx, "reduced to first event per member",
		slog.Int("events", len(events)),
		slog.Int("members", len(out)))

	return out
}

// FirstSubscriptionPerMember reduces the stream to each member's
// earliest logbook-sourced Subscription or Renewal. The same date and
// tie-break rules as FirstEventPerMember apply.
func (a *Aggregator) FirstSubscriptionPerMember(ctx context.Context, events []member.MemberEvent) []member.MemberEvent {
	subs := make([]member.MemberEvent, 0, len(events))
	for _, ev := range events {
		if !member.IsLogbookSourced(ev.SourceType) {
			continue
		}
		if ev.Type != member.TypeSubscription && ev.Type != member.TypeRenewal {
			continue
		}
		subs = append(subs, ev)
	}

	out := a.firstPerMember(subs)

	a.logger.InfoContext(ctx, "reduced to first subscription per member",
		slog.Int("events", len(events)),
		slog.Int("members", len(out)))

	return out
}

// firstPerMember sorts usable events by date with categorical
// tie-breaks and keeps each member's first row.
func (a *Aggregator) firstPerMember(events []member.MemberEvent) []member.MemberEvent {
	usable := a.usable(events)

	sort.SliceStable(usable, func(i, j int) bool {
		if !usable[i].Date.Equal(usable[j].Date) {
			return usable[i].Date.Before(usable[j].Date)
		}
		return a.order.Rank(usable[i].Type) < a.order.Rank(usable[j].Type)
	})

	seen := make(map[string]bool, len(usable))
	out := make([]member.MemberEvent, 0, len(usable))
	for _, ev := range usable {
		if seen[ev.MemberID] {
			continue
		}
		seen[ev.MemberID] = true
		out = append(out, ev)
	}
	return out
}

// usable drops events whose date is absent or past the cutoff.
func (a *Aggregator) usable(events []member.MemberEvent) []member.MemberEvent {
	out := make([]member.MemberEvent, 0, len(events))
	for _, ev := range events {
		if ev.Date.IsZero() || !ev.Date.Before(a.cutoff) {
			continue
		}
		out = append(out, ev)
	}
	return out
}
