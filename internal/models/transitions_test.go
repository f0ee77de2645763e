package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOfferTransitions(t *testing.T) {
	allowed := map[[2]OfferStatus]bool{
		{OfferStatusDraft, OfferStatusSent}:                          true,
		{OfferStatusDraft, OfferStatusPendingManagerApproval}:        true,
		{OfferStatusDraft, OfferStatusExpired}:                       true,
		{OfferStatusPendingManagerApproval, OfferStatusSent}:         true,
		{OfferStatusPendingManagerApproval, OfferStatusRejected}:     true,
		{OfferStatusPendingManagerApproval, OfferStatusExpired}:      true,
		{OfferStatusSent, OfferStatusUnderReview}:                    true,
		{OfferStatusSent, OfferStatusAccepted}:                       true,
		{OfferStatusSent, OfferStatusRejected}:                       true,
		{OfferStatusSent, OfferStatusNeedsModification}:              true,
		{OfferStatusSent, OfferStatusExpired}:                        true,
		{OfferStatusUnderReview, OfferStatusAccepted}:                true,
		{OfferStatusUnderReview, OfferStatusRejected}:                true,
		{OfferStatusUnderReview, OfferStatusNeedsModification}:       true,
		{OfferStatusUnderReview, OfferStatusExpired}:                 true,
		{OfferStatusNeedsModification, OfferStatusDraft}:             true,
		{OfferStatusNeedsModification, OfferStatusExpired}:           true,
		{OfferStatusAccepted, OfferStatusCompleted}:                  true,
		{OfferStatusAccepted, OfferStatusExpired}:                    true,
	}

	for _, from := range AllOfferStatuses() {
		for _, to := range AllOfferStatuses() {
			want := allowed[[2]OfferStatus{from, to}]
			assert.Equal(t, want, from.CanTransition(to), "from %s to %s", from, to)
		}
	}
}

func TestOfferTerminalStates(t *testing.T) {
	terminal := map[OfferStatus]bool{
		OfferStatusRejected:  true,
		OfferStatusExpired:   true,
		OfferStatusCompleted: true,
	}
	for _, status := range AllOfferStatuses() {
		assert.Equal(t, terminal[status], status.Terminal(), "status %s", status)
	}
}

func TestDealTransitions(t *testing.T) {
	// Manager tier always precedes the super admin tier; rejections at
	// either tier are terminal.
	assert.True(t, DealStatusPendingManagerApproval.CanTransition(DealStatusPendingSuperAdminApproval))
	assert.True(t, DealStatusPendingManagerApproval.CanTransition(DealStatusRejectedByManager))
	assert.True(t, DealStatusPendingSuperAdminApproval.CanTransition(DealStatusAwaitingClientAccountCreation))
	assert.True(t, DealStatusPendingSuperAdminApproval.CanTransition(DealStatusRejectedBySuperAdmin))
	assert.True(t, DealStatusAwaitingClientAccountCreation.CanTransition(DealStatusAwaitingSalesmanReport))
	assert.True(t, DealStatusAwaitingSalesmanReport.CanTransition(DealStatusSentToLegal))
	assert.True(t, DealStatusSentToLegal.CanTransition(DealStatusSuccess))

	// The super admin tier can never act before the manager tier.
	assert.False(t, DealStatusPendingManagerApproval.CanTransition(DealStatusAwaitingClientAccountCreation))
	assert.False(t, DealStatusPendingManagerApproval.CanTransition(DealStatusRejectedBySuperAdmin))

	// No skipping ahead in the chain.
	assert.False(t, DealStatusPendingManagerApproval.CanTransition(DealStatusSentToLegal))
	assert.False(t, DealStatusAwaitingClientAccountCreation.CanTransition(DealStatusSentToLegal))
	assert.False(t, DealStatusPendingSuperAdminApproval.CanTransition(DealStatusSuccess))

	for _, status := range []DealStatus{
		DealStatusRejectedByManager,
		DealStatusRejectedBySuperAdmin,
		DealStatusSuccess,
		DealStatusFailed,
	} {
		assert.True(t, status.Terminal(), "status %s", status)
		for _, to := range AllDealStatuses() {
			assert.False(t, status.CanTransition(to), "from %s to %s", status, to)
		}
	}

	// Every live state can still fail.
	for _, status := range []DealStatus{
		DealStatusPendingManagerApproval,
		DealStatusPendingSuperAdminApproval,
		DealStatusApproved,
		DealStatusAwaitingClientAccountCreation,
		DealStatusAwaitingSalesmanReport,
		DealStatusSentToLegal,
	} {
		assert.True(t, status.CanTransition(DealStatusFailed), "from %s", status)
	}
}

func TestRepairTransitions(t *testing.T) {
	assert.True(t, RepairStatusPending.CanTransition(RepairStatusAssigned))
	assert.False(t, RepairStatusPending.CanTransition(RepairStatusInProgress))
	assert.True(t, RepairStatusAssigned.CanTransition(RepairStatusInProgress))
	assert.True(t, RepairStatusInProgress.CanTransition(RepairStatusWaitingForParts))
	assert.True(t, RepairStatusWaitingForParts.CanTransition(RepairStatusInProgress))
	assert.True(t, RepairStatusInProgress.CanTransition(RepairStatusCompleted))
	assert.False(t, RepairStatusCompleted.CanTransition(RepairStatusInProgress))
	assert.True(t, RepairStatusCompleted.Terminal())
	assert.True(t, RepairStatusCancelled.Terminal())
}
