// Package member normalizes raw lending-library event records and
// partitions them into the logbook and membership subsets used by the
// gap-detection and forecasting pipeline.
package member

import "time"

// EventType is the recorded transaction kind for an event.
type EventType string

const (
	TypeSubscription    EventType = "Subscription"
	TypeRenewal         EventType = "Renewal"
	TypeSeparatePayment EventType = "Separate Payment"
	TypeBorrow          EventType = "Borrow"
	TypePurchase        EventType = "Purchase"
	TypeSupplement      EventType = "Supplement"
	TypeRequest         EventType = "Request"
	TypeGift            EventType = "Gift"
	TypeCrossedOut      EventType = "Crossed out"
	TypeReimbursement   EventType = "Reimbursement"
)

// TypeOrder is an explicit categorical ordering of event types. Earlier
// entries win same-day ties when picking a member's first event.
type TypeOrder []EventType

// DefaultTypeOrder returns the ordering used for first-event tie-breaks:
// subscriptions first, reimbursements last.
func DefaultTypeOrder() TypeOrder {
	return TypeOrder{
		TypeSubscription,
		TypeRenewal,
		TypeSeparatePayment,
		TypeBorrow,
		TypePurchase,
		TypeSupplement,
		TypeRequest,
		TypeGift,
		TypeCrossedOut,
		TypeReimbursement,
	}
}

// Rank returns the position of t in the ordering. Types not present in
// the ordering sort after all known types.
func (o TypeOrder) Rank(t EventType) int {
	for i, candidate := range o {
		if candidate == t {
			return i
		}
	}
	return len(o)
}

// RawEvent is one row of the source events table, untyped.
type RawEvent struct {
	EventType                string
	StartDate                string
	EndDate                  string
	SubscriptionPurchaseDate string
	MemberURIs               string
	MemberNames              string
	ItemURI                  string
	SourceType               string
	SubscriptionDuration     string
	SubscriptionDurationDays string
	SubscriptionVolumes      string
	SubscriptionCategory     string
}

// Event is a normalized event with derived identifiers and typed dates.
// Zero time values mean the date is absent. Events are immutable once
// produced; every pipeline stage builds a new collection.
type Event struct {
	Type         EventType
	StartDate    time.Time
	EndDate      time.Time
	PurchaseDate time.Time
	MemberURIs   string
	MemberNames  string
	ItemURI      string
	SourceType   string

	SubscriptionDuration     string
	SubscriptionDurationDays string
	SubscriptionVolumes      string
	SubscriptionCategory     string

	// Derived fields
	MemberID     string
	ItemID       string
	EarliestDate time.Time
}

// LogbookEvent is a logbook-sourced event carrying the field subset the
// gap pipeline needs. LogbookDate is the subscription purchase date when
// present, otherwise the start date.
type LogbookEvent struct {
	Type                 EventType
	StartDate            time.Time
	EndDate              time.Time
	PurchaseDate         time.Time
	MemberID             string
	MemberNames          string
	SourceType           string
	SubscriptionDuration string
	SubscriptionCategory string
	LogbookDate          time.Time
}

// MemberEvent is the per-member view of an event used by the aggregator.
// Date is the coerced earliest known date; events whose coercion failed
// carry a zero Date and are dropped at the aggregation boundary.
type MemberEvent struct {
	MemberID   string
	Type       EventType
	Date       time.Time
	SourceType string
}
