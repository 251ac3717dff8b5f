package domain

import "time"

// VisitorStatus tracks a visit from arrival to departure.
type VisitorStatus string

const (
	VisitorStatusPending    VisitorStatus = "PENDING"
	VisitorStatusApproved   VisitorStatus = "APPROVED"
	VisitorStatusDeclined   VisitorStatus = "DECLINED"
	VisitorStatusCheckedOut VisitorStatus = "CHECKED_OUT"
)

// VisitorAction is a host's answer to a visit request.
type VisitorAction string

const (
	VisitorActionAccept  VisitorAction = "accept"
	VisitorActionDecline VisitorAction = "decline"
)

// Valid reports whether a is accept or decline.
func (a VisitorAction) Valid() bool {
	return a == VisitorActionAccept || a == VisitorActionDecline
}

// Status returns the visitor status the action resolves to.
func (a VisitorAction) Status() VisitorStatus {
	if a == VisitorActionAccept {
		return VisitorStatusApproved
	}
	return VisitorStatusDeclined
}

// Visitor is a person checking in at the front desk.
type Visitor struct {
	ID             string
	OrganizationID string
	HostStaffID    string
	Name           string
	Email          *string
	Phone          *string
	Company        *string
	Purpose        string
	PhotoURL       *string
	Status         VisitorStatus
	RespondedAt    *time.Time
	CheckedInAt    time.Time
	CheckedOutAt   *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CheckInAction enumerates entries of the front desk log.
type CheckInAction string

const (
	CheckInActionCheckIn  CheckInAction = "CHECK_IN"
	CheckInActionApproved CheckInAction = "APPROVED"
	CheckInActionDeclined CheckInAction = "DECLINED"
	CheckInActionCheckOut CheckInAction = "CHECK_OUT"
)

// CheckInLog is an append-only record of front desk activity.
type CheckInLog struct {
	ID             string
	OrganizationID string
	VisitorID      string
	Action         CheckInAction
	PerformedBy    *string
	Note           *string
	CreatedAt      time.Time
}
