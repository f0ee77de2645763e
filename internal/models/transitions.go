package models

// Legal lifecycle transitions per entity. Workflow services consult these
// tables before writing; anything outside them is rejected with
// INVALID_STATE_TRANSITION and leaves the row untouched.

var offerTransitions = map[OfferStatus]map[OfferStatus]bool{
	OfferStatusDraft: {
		OfferStatusSent:                   true,
		OfferStatusPendingManagerApproval: true,
		OfferStatusExpired:                true,
	},
	OfferStatusPendingManagerApproval: {
		OfferStatusSent:     true,
		OfferStatusRejected: true,
		OfferStatusExpired:  true,
	},
	OfferStatusSent: {
		OfferStatusUnderReview:       true,
		OfferStatusAccepted:          true,
		OfferStatusRejected:          true,
		OfferStatusNeedsModification: true,
		OfferStatusExpired:           true,
	},
	OfferStatusUnderReview: {
		OfferStatusAccepted:          true,
		OfferStatusRejected:          true,
		OfferStatusNeedsModification: true,
		OfferStatusExpired:           true,
	},
	OfferStatusNeedsModification: {
		OfferStatusDraft:   true,
		OfferStatusExpired: true,
	},
	OfferStatusAccepted: {
		OfferStatusCompleted: true,
		OfferStatusExpired:   true,
	},
	OfferStatusRejected:  {},
	OfferStatusExpired:   {},
	OfferStatusCompleted: {},
}

var dealTransitions = map[DealStatus]map[DealStatus]bool{
	DealStatusPendingManagerApproval: {
		DealStatusPendingSuperAdminApproval: true,
		DealStatusRejectedByManager:         true,
		DealStatusFailed:                    true,
	},
	DealStatusPendingSuperAdminApproval: {
		DealStatusAwaitingClientAccountCreation: true,
		DealStatusRejectedBySuperAdmin:          true,
		DealStatusFailed:                        true,
	},
	DealStatusAwaitingClientAccountCreation: {
		DealStatusAwaitingSalesmanReport: true,
		DealStatusFailed:                 true,
	},
	DealStatusAwaitingSalesmanReport: {
		DealStatusSentToLegal: true,
		DealStatusFailed:      true,
	},
	DealStatusSentToLegal: {
		DealStatusSuccess: true,
		DealStatusFailed:  true,
	},
	// APPROVED survives from an earlier data model; nothing produces it
	// anymore but rows carrying it can still be abandoned.
	DealStatusApproved: {
		DealStatusFailed: true,
	},
	DealStatusRejectedByManager:    {},
	DealStatusRejectedBySuperAdmin: {},
	DealStatusSuccess:              {},
	DealStatusFailed:               {},
}

var repairTransitions = map[RepairStatus]map[RepairStatus]bool{
	RepairStatusPending: {
		RepairStatusAssigned:  true,
		RepairStatusCancelled: true,
	},
	RepairStatusAssigned: {
		RepairStatusInProgress: true,
		RepairStatusOnHold:     true,
		RepairStatusCancelled:  true,
	},
	RepairStatusInProgress: {
		RepairStatusWaitingForParts: true,
		RepairStatusOnHold:          true,
		RepairStatusCompleted:       true,
		RepairStatusCancelled:       true,
	},
	RepairStatusWaitingForParts: {
		RepairStatusInProgress: true,
		RepairStatusCancelled:  true,
	},
	RepairStatusOnHold: {
		RepairStatusInProgress: true,
		RepairStatusCancelled:  true,
	},
	RepairStatusCompleted: {},
	RepairStatusCancelled: {},
}

// CanTransition reports whether an offer may move between the two states.
func (s OfferStatus) CanTransition(to OfferStatus) bool {
	return offerTransitions[s][to]
}

// Terminal reports whether no further offer transition is defined.
func (s OfferStatus) Terminal() bool {
	return len(offerTransitions[s]) == 0
}

// CanTransition reports whether a deal may move between the two states.
func (s DealStatus) CanTransition(to DealStatus) bool {
	return dealTransitions[s][to]
}

// Terminal reports whether no further deal transition is defined.
func (s DealStatus) Terminal() bool {
	return len(dealTransitions[s]) == 0
}

// CanTransition reports whether a repair request may move between the two states.
func (s RepairStatus) CanTransition(to RepairStatus) bool {
	return repairTransitions[s][to]
}

// Terminal reports whether no further repair transition is defined.
func (s RepairStatus) Terminal() bool {
	return len(repairTransitions[s]) == 0
}

// AllOfferStatuses lists every offer state, for exhaustive guard checks.
func AllOfferStatuses() []OfferStatus {
	return []OfferStatus{
		OfferStatusDraft,
		OfferStatusPendingManagerApproval,
		OfferStatusSent,
		OfferStatusUnderReview,
		OfferStatusAccepted,
		OfferStatusRejected,
		OfferStatusNeedsModification,
		OfferStatusExpired,
		OfferStatusCompleted,
	}
}

// AllDealStatuses lists every deal state.
func AllDealStatuses() []DealStatus {
	return []DealStatus{
		DealStatusPendingManagerApproval,
		DealStatusRejectedByManager,
		DealStatusPendingSuperAdminApproval,
		DealStatusRejectedBySuperAdmin,
		DealStatusApproved,
		DealStatusAwaitingClientAccountCreation,
		DealStatusAwaitingSalesmanReport,
		DealStatusSentToLegal,
		DealStatusSuccess,
		DealStatusFailed,
	}
}

// AllRepairStatuses lists every repair state.
func AllRepairStatuses() []RepairStatus {
	return []RepairStatus{
		RepairStatusPending,
		RepairStatusAssigned,
		RepairStatusInProgress,
		RepairStatusWaitingForParts,
		RepairStatusCompleted,
		RepairStatusCancelled,
		RepairStatusOnHold,
	}
}
