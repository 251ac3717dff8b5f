package dto

import (
	"time"

	"github.com/spec-kit/frontdesk/internal/domain"
	"github.com/spec-kit/frontdesk/internal/service"
)

// CheckInRequest payload from the kiosk.
type CheckInRequest struct {
	OrgSlug     string  `json:"orgSlug" validate:"required"`
	Name        string  `json:"name" validate:"required,max=200"`
	Email       *string `json:"email" validate:"omitempty,email|len=0"`
	Phone       *string `json:"phone" validate:"omitempty,max=50"`
	Company     *string `json:"company" validate:"omitempty,max=200"`
	Purpose     string  `json:"purpose" validate:"required,max=500"`
	HostStaffID string  `json:"hostStaffId" validate:"required"`
	PhotoURL    *string `json:"photoUrl" validate:"omitempty,url|len=0"`
}

// Input maps the request onto the service input.
func (r CheckInRequest) Input() service.CheckInInput {
	return service.CheckInInput{
		OrgSlug:     r.OrgSlug,
		Name:        r.Name,
		Email:       r.Email,
		Phone:       r.Phone,
		Company:     r.Company,
		Purpose:     r.Purpose,
		HostStaffID: r.HostStaffID,
		PhotoURL:    r.PhotoURL,
	}
}

// VisitorIDRequest addresses one visitor.
type VisitorIDRequest struct {
	VisitorID string `json:"visitorId" validate:"required"`
}

// TokenRequest carries an emailed response token.
type TokenRequest struct {
	Token string `json:"token" validate:"required"`
}

// RespondRequest answers a visit via an emailed token.
type RespondRequest struct {
	Token  string               `json:"token" validate:"required"`
	Action domain.VisitorAction `json:"action" validate:"required,oneof=accept decline"`
}

// RespondAsHostRequest answers a visit from the dashboard.
type RespondAsHostRequest struct {
	VisitorID string               `json:"visitorId" validate:"required"`
	Action    domain.VisitorAction `json:"action" validate:"required,oneof=accept decline"`
}

// VisitorListRequest filters the front desk log.
type VisitorListRequest struct {
	Status []domain.VisitorStatus `json:"status" validate:"omitempty,dive,oneof=PENDING APPROVED DECLINED CHECKED_OUT"`
	Search *string                `json:"search"`
	From   *time.Time             `json:"from"`
	To     *time.Time             `json:"to"`
	Limit  int                    `json:"limit" validate:"omitempty,min=1,max=200"`
	Offset int                    `json:"offset" validate:"omitempty,min=0"`
}

// Filter maps the request onto the service filter.
func (r VisitorListRequest) Filter() service.VisitorListFilter {
	return service.VisitorListFilter{
		Statuses: r.Status,
		Search:   r.Search,
		From:     r.From,
		To:       r.To,
		Limit:    r.Limit,
		Offset:   r.Offset,
	}
}

// VisitorResponse is the wire form of a visitor.
type VisitorResponse struct {
	ID           string               `json:"id"`
	HostStaffID  string               `json:"hostStaffId"`
	Name         string               `json:"name"`
	Email        *string              `json:"email"`
	Phone        *string              `json:"phone"`
	Company      *string              `json:"company"`
	Purpose      string               `json:"purpose"`
	PhotoURL     *string              `json:"photoUrl"`
	Status       domain.VisitorStatus `json:"status"`
	RespondedAt  *time.Time           `json:"respondedAt"`
	CheckedInAt  time.Time            `json:"checkedInAt"`
	CheckedOutAt *time.Time           `json:"checkedOutAt"`
}

// Visitor converts a domain visitor.
func Visitor(v *domain.Visitor) VisitorResponse {
	return VisitorResponse{
		ID:           v.ID,
		HostStaffID:  v.HostStaffID,
		Name:         v.Name,
		Email:        v.Email,
		Phone:        v.Phone,
		Company:      v.Company,
		Purpose:      v.Purpose,
		PhotoURL:     v.PhotoURL,
		Status:       v.Status,
		RespondedAt:  v.RespondedAt,
		CheckedInAt:  v.CheckedInAt,
		CheckedOutAt: v.CheckedOutAt,
	}
}

// Visitors converts a slice, never returning nil.
func Visitors(items []domain.Visitor) []VisitorResponse {
	out := make([]VisitorResponse, 0, len(items))
	for i := range items {
		out = append(out, Visitor(&items[i]))
	}
	return out
}

// KioskVisitorResponse is what an anonymous kiosk learns about a check-in.
type KioskVisitorResponse struct {
	ID     string               `json:"id"`
	Name   string               `json:"name"`
	Status domain.VisitorStatus `json:"status"`
}

// KioskVisitor converts a domain visitor for the kiosk.
func KioskVisitor(v *domain.Visitor) KioskVisitorResponse {
	return KioskVisitorResponse{ID: v.ID, Name: v.Name, Status: v.Status}
}

// RespondResponse reports the outcome of a response.
type RespondResponse struct {
	Visitor          KioskVisitorResponse `json:"visitor"`
	Status           domain.VisitorStatus `json:"status"`
	AlreadyResponded bool                 `json:"alreadyResponded"`
}

// Respond converts a service result.
func Respond(r *service.RespondResult) RespondResponse {
	return RespondResponse{
		Visitor:          KioskVisitor(r.Visitor),
		Status:           r.Visitor.Status,
		AlreadyResponded: r.AlreadyResponded,
	}
}

// TokenInfoResponse describes the visit behind a token.
type TokenInfoResponse struct {
	VisitorName      string               `json:"visitorName"`
	Company          *string              `json:"company"`
	Purpose          string               `json:"purpose"`
	HostName         string               `json:"hostName"`
	Status           domain.VisitorStatus `json:"status"`
	Action           domain.VisitorAction `json:"action,omitempty"`
	ExpiresAt        time.Time            `json:"expiresAt"`
	AlreadyResponded bool                 `json:"alreadyResponded"`
}

// TokenInfo converts a service result.
func TokenInfo(info *service.TokenInfo) TokenInfoResponse {
	return TokenInfoResponse{
		VisitorName:      info.Visitor.Name,
		Company:          info.Visitor.Company,
		Purpose:          info.Visitor.Purpose,
		HostName:         info.HostName,
		Status:           info.Visitor.Status,
		Action:           info.Action,
		ExpiresAt:        info.ExpiresAt,
		AlreadyResponded: info.AlreadyResponded,
	}
}

// CheckInLogResponse is one entry of the front desk log.
type CheckInLogResponse struct {
	ID          string               `json:"id"`
	VisitorID   string               `json:"visitorId"`
	Action      domain.CheckInAction `json:"action"`
	PerformedBy *string              `json:"performedBy"`
	Note        *string              `json:"note"`
	CreatedAt   time.Time            `json:"createdAt"`
}

// CheckInLogs converts log entries.
func CheckInLogs(items []domain.CheckInLog) []CheckInLogResponse {
	out := make([]CheckInLogResponse, 0, len(items))
	for _, l := range items {
		out = append(out, CheckInLogResponse{
			ID:          l.ID,
			VisitorID:   l.VisitorID,
			Action:      l.Action,
			PerformedBy: l.PerformedBy,
			Note:        l.Note,
			CreatedAt:   l.CreatedAt,
		})
	}
	return out
}

// CountResponse wraps a single counter.
type CountResponse struct {
	Count int `json:"count"`
}
