package domain

import "time"

// ApprovalStatus is the state of a pending editor action.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// Approval is an agent action waiting for a human decision.
type Approval struct {
	ID          string         `json:"id"`
	Tool        string         `json:"tool"`
	Description string         `json:"description"`
	Status      ApprovalStatus `json:"status"`
	Metadata    string         `json:"metadata"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// ApprovalStore shares approvals between the MCP process and the HTTP
// process through the database.
type ApprovalStore interface {
	CreateApproval(a *Approval) error
	ApprovalStatus(id string) (ApprovalStatus, error)
	ResolveApproval(id string, approved bool) error
	ListPendingApprovals() ([]Approval, error)
	DeleteApproval(id string) error
}
