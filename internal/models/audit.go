package models

import "time"

// AuditAction constants represent actions to be logged.
const (
	AuditActionPeriodCreate  = "ENROLLMENT_PERIOD_CREATE"
	AuditActionPeriodUpdate  = "ENROLLMENT_PERIOD_UPDATE"
	AuditActionPeriodDelete  = "ENROLLMENT_PERIOD_DELETE"
	AuditActionApprove       = "ENROLLMENT_APPROVE"
	AuditActionReject        = "ENROLLMENT_REJECT"
	AuditActionVoid          = "ENROLLMENT_VOID"
	AuditActionSectionAdd    = "SECTION_STUDENT_ADD"
	AuditActionSectionRemove = "SECTION_STUDENT_REMOVE"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID          string    `db:"id" json:"id"`
	ActorID     *int64    `db:"actor_id" json:"actor_id,omitempty"`
	Action      string    `db:"action" json:"action"`
	Resource    string    `db:"resource" json:"resource"`
	ResourceID  *int64    `db:"resource_id" json:"resource_id,omitempty"`
	Description string    `db:"description" json:"description"`
	IPAddress   string    `db:"ip_address" json:"ip_address"`
	UserAgent   string    `db:"user_agent" json:"user_agent"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
