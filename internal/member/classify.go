package member

import "strings"

// logbookMarker identifies logbook-sourced events in the free-text
// source_type column.
const logbookMarker = "Logbook"

// membershipTypes are the subscription-category event types.
var membershipTypes = map[EventType]bool{
	TypeSubscription:    true,
	TypeRenewal:         true,
	TypeReimbursement:   true,
	TypeSupplement:      true,
	TypeSeparatePayment: true,
}

// IsLogbookSourced reports whether a source_type value marks a
// logbook-sourced event.
func IsLogbookSourced(sourceType string) bool {
	return strings.Contains(sourceType, logbookMarker)
}

// LogbookEvents selects the logbook-sourced events and computes each
// event's logbook date: the subscription purchase date when present,
// otherwise the start date.
func LogbookEvents(events []Event) []LogbookEvent {
	out := make([]LogbookEvent, 0, len(events))
	for _, ev := range events {
		if !IsLogbookSourced(ev.SourceType) {
			continue
		}

		logbookDate := ev.PurchaseDate
		if logbookDate.IsZero() {
			logbookDate = ev.StartDate
		}

		out = append(out, LogbookEvent{
			Type:                 ev.Type,
			StartDate:            ev.StartDate,
			EndDate:              ev.EndDate,
			PurchaseDate:         ev.PurchaseDate,
			MemberID:             ev.MemberID,
			MemberNames:          ev.MemberNames,
			SourceType:           ev.SourceType,
			SubscriptionDuration: ev.SubscriptionDuration,
			SubscriptionCategory: ev.SubscriptionCategory,
			LogbookDate:          logbookDate,
		})
	}
	return out
}

// MembershipEvents selects events whose type is one of the
// subscription-category types. The per-member date is the coerced
// earliest date; records whose dates all failed to parse keep a zero
// date and are dropped at the aggregation boundary.
func MembershipEvents(events []Event) []MemberEvent {
	out := make([]MemberEvent, 0, len(events))
	for _, ev := range events {
		if !membershipTypes[ev.Type] {
			continue
		}
		out = append(out, MemberEvent{
			MemberID:   ev.MemberID,
			Type:       ev.Type,
			Date:       ev.EarliestDate,
			SourceType: ev.SourceType,
		})
	}
	return out
}
