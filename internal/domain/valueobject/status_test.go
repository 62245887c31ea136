package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staymate/staymate-bff/internal/pkg/apperror"
)

func TestUnknownStatus_IsNotDefaultedToPending(t *testing.T) {
	s := PropertyStatus("ARCHIVED")

	assert.False(t, s.IsValid())
	badge := s.Badge()
	assert.Equal(t, ToneUnknown, badge.Tone)
	assert.Contains(t, badge.Label, "ARCHIVED")
	assert.NotEqual(t, PropertyStatusPending.Badge(), badge)
}

func TestBadge_AllKnownValuesHaveTone(t *testing.T) {
	statuses := []Status{
		PropertyStatusPending, PropertyStatusApproved, PropertyStatusActive, PropertyStatusInactive, PropertyStatusRented, PropertyStatusRejected,
		RoommatePostStatusPending, RoommatePostStatusPendingMatch, RoommatePostStatusApproved, RoommatePostStatusOpen, RoommatePostStatusMatched, RoommatePostStatusRejected,
		ApplicationStatusPending, ApplicationStatusAccepted, ApplicationStatusRejected, ApplicationStatusCancelled,
		BookingStatusPending, BookingStatusConfirmed, BookingStatusRejected, BookingStatusCancelled, BookingStatusCheckedIn, BookingStatusCheckedOut, BookingStatusCompleted,
		TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed,
		PayoutStatusPending, PayoutStatusProcessing, PayoutStatusPaid, PayoutStatusRejected,
		VerificationStatusPending, VerificationStatusApproved, VerificationStatusRejected,
		ReportStatusPending, ReportStatusInvestigating, ReportStatusResolved, ReportStatusDismissed,
		FraudSeverityLow, FraudSeverityMedium, FraudSeverityHigh, FraudSeverityCritical,
	}
	for _, s := range statuses {
		assert.True(t, s.IsValid(), s.String())
		assert.NotEqual(t, ToneUnknown, s.Badge().Tone, s.String())
		assert.NotEmpty(t, s.Badge().Label, s.String())
	}
}

func TestCheckTransition(t *testing.T) {
	assert.NoError(t, CheckTransition(BookingStatusPending, BookingStatusConfirmed))
	assert.NoError(t, CheckTransition(BookingStatusConfirmed, BookingStatusCheckedIn))

	err := CheckTransition(BookingStatusCompleted, BookingStatusPending)
	require.Error(t, err)
	assert.Equal(t, 409, apperror.StatusOf(err))

	err = CheckTransition(ApplicationStatus("WITHDRAWN"), ApplicationStatusAccepted)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WITHDRAWN")
}

func TestNewStatus_RejectsUnknown(t *testing.T) {
	_, err := NewPayoutStatus("SENT")
	assert.True(t, apperror.IsValidation(err))

	s, err := NewPayoutStatus("PAID")
	require.NoError(t, err)
	assert.Equal(t, PayoutStatusPaid, s)
}

func TestRange(t *testing.T) {
	min, max := 500.0, 1000.0
	r, err := NewRange(&min, &max)
	require.NoError(t, err)
	assert.True(t, r.Contains(750))
	assert.False(t, r.Contains(1001))

	_, err = NewRange(&max, &min)
	assert.Error(t, err)

	open, err := NewRange(nil, &max)
	require.NoError(t, err)
	assert.True(t, open.Contains(0))
	assert.True(t, Range{}.IsZero())
}

func TestTimestamp_ParsesBackendFormats(t *testing.T) {
	var payload struct {
		A Timestamp `json:"a"`
		B Timestamp `json:"b"`
		C Timestamp `json:"c"`
		D Timestamp `json:"d"`
	}
	err := json.Unmarshal([]byte(`{"a":"2025-03-01T10:15:30","b":"2025-03-01","c":"2025-03-01T10:15:30Z","d":null}`), &payload)
	require.NoError(t, err)

	assert.Equal(t, 10, payload.A.Hour())
	assert.Equal(t, 1, payload.B.Day())
	assert.Equal(t, 30, payload.C.Second())
	assert.True(t, payload.D.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`{"a":"01/03/2025"}`), &payload))
}
