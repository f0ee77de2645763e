package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return t
}

func TestOfferExpired(t *testing.T) {
	tests := []struct {
		name       string
		validUntil []time.Time
		now        time.Time
		want       bool
	}{
		{
			name: "no validity dates never expires",
			now:  date("2030-01-01"),
			want: false,
		},
		{
			name:       "one future date keeps the offer alive",
			validUntil: []time.Time{date("2025-01-01"), date("2025-06-01")},
			now:        date("2025-03-01"),
			want:       false,
		},
		{
			name:       "expires once every date has elapsed",
			validUntil: []time.Time{date("2025-01-01"), date("2025-06-01")},
			now:        date("2025-07-01"),
			want:       true,
		},
		{
			name:       "instant equal to the last date counts as elapsed",
			validUntil: []time.Time{date("2025-06-01")},
			now:        date("2025-06-01"),
			want:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offer := &Offer{ValidUntil: tt.validUntil}
			assert.Equal(t, tt.want, offer.Expired(tt.now))
		})
	}
}

func TestOfferEditable(t *testing.T) {
	for _, status := range AllOfferStatuses() {
		offer := &Offer{Status: status}
		want := status == OfferStatusDraft || status == OfferStatusNeedsModification
		assert.Equal(t, want, offer.Editable(), "status %s", status)
	}
}
