package aggregate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lendlib/internal/member"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestFirstEventPerMember(t *testing.T) {
	a := New(nil, nil, time.Time{})
	events := []member.MemberEvent{
		{MemberID: "stein", Type: member.TypeBorrow, Date: date(1921, 5, 1)},
		{MemberID: "stein", Type: member.TypeSubscription, Date: date(1920, 3, 14)},
		{MemberID: "joyce", Type: member.TypeRenewal, Date: date(1922, 2, 2)},
	}

	first := a.FirstEventPerMember(context.Background(), events)
	require.Len(t, first, 2)
	assert.Equal(t, "stein", first[0].MemberID)
	assert.Equal(t, member.TypeSubscription, first[0].Type)
	assert.Equal(t, "joyce", first[1].MemberID)
}

func TestFirstEventSameDayTieBreak(t *testing.T) {
	a := New(nil, nil, time.Time{})
	// Reimbursement listed first in the input; Subscription must still
	// win the same-day tie under the categorical ordering.
	events := []member.MemberEvent{
		{MemberID: "beach", Type: member.TypeReimbursement, Date: date(1925, 6, 1)},
		{MemberID: "beach", Type: member.TypeSubscription, Date: date(1925, 6, 1)},
	}

	first := a.FirstEventPerMember(context.Background(), events)
	require.Len(t, first, 1)
	assert.Equal(t, member.TypeSubscription, first[0].Type)
}

func TestFirstEventDropsAbsentAndPostCutoffDates(t *testing.T) {
	a := New(nil, nil, time.Time{})
	events := []member.MemberEvent{
		{MemberID: "a", Type: member.TypeSubscription},
		{MemberID: "b", Type: member.TypeSubscription, Date: date(1942, 1, 1)},
		{MemberID: "c", Type: member.TypeSubscription, Date: date(1950, 1, 1)},
		{MemberID: "d", Type: member.TypeSubscription, Date: date(1941, 12, 31)},
	}

	first := a.FirstEventPerMember(context.Background(), events)
	require.Len(t, first, 1)
	assert.Equal(t, "d", first[0].MemberID)
}

func TestFirstSubscriptionPerMember(t *testing.T) {
	a := New(nil, nil, time.Time{})
	events := []member.MemberEvent{
		// Earlier but not logbook-sourced.
		{MemberID: "stein", Type: member.TypeSubscription, Date: date(1920, 1, 1), SourceType: "Address Book"},
		{MemberID: "stein", Type: member.TypeRenewal, Date: date(1921, 4, 1), SourceType: "Logbook"},
		// Logbook-sourced but not a subscription-type event.
		{MemberID: "joyce", Type: member.TypeReimbursement, Date: date(1922, 1, 1), SourceType: "Logbook"},
	}

	first := a.FirstSubscriptionPerMember(context.Background(), events)
	require.Len(t, first, 1)
	assert.Equal(t, "stein", first[0].MemberID)
	assert.Equal(t, date(1921, 4, 1), first[0].Date)
}

func TestWeekEnding(t *testing.T) {
	// 1930-06-02 was a Monday; its week closes Sunday 1930-06-08.
	assert.Equal(t, date(1930, 6, 8), WeekEnding(date(1930, 6, 2)))
	// Sundays label their own week.
	assert.Equal(t, date(1930, 6, 8), WeekEnding(date(1930, 6, 8)))
	// Saturday rolls to the next day.
	assert.Equal(t, date(1930, 6, 8), WeekEnding(date(1930, 6, 7)))
}

func TestCountWeekly(t *testing.T) {
	events := []member.MemberEvent{
		{MemberID: "a", Date: date(1930, 6, 2)},
		{MemberID: "b", Date: date(1930, 6, 7)},
		{MemberID: "c", Date: date(1930, 6, 9)},
	}

	counts := CountWeekly(events)
	require.Len(t, counts, 2)
	assert.Equal(t, PeriodicCount{Date: date(1930, 6, 8), Total: 2}, counts[0])
	assert.Equal(t, PeriodicCount{Date: date(1930, 6, 15), Total: 1}, counts[1])
}

func TestCountYearly(t *testing.T) {
	events := []member.MemberEvent{
		{MemberID: "a", Date: date(1930, 1, 15)},
		{MemberID: "b", Date: date(1930, 12, 31)},
		{MemberID: "c", Date: date(1931, 6, 1)},
	}

	counts := CountYearly(events)
	require.Len(t, counts, 2)
	assert.Equal(t, PeriodicCount{Date: date(1930, 12, 31), Total: 2}, counts[0])
	assert.Equal(t, PeriodicCount{Date: date(1931, 12, 31), Total: 1}, counts[1])
}
