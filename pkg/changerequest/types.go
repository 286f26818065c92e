package changerequest

import "time"

// ApprovalStatus is the review state of a change request.
type ApprovalStatus string

const (
	ApprovalPending     ApprovalStatus = "PENDING_APPROVAL"
	ApprovalApproved    ApprovalStatus = "APPROVED"
	ApprovalRejected    ApprovalStatus = "REJECTED"
	ApprovalNeedsRework ApprovalStatus = "NEEDS_REWORK"
)

// Valid reports whether s is a known approval status.
func (s ApprovalStatus) Valid() bool {
	switch s {
	case ApprovalPending, ApprovalApproved, ApprovalRejected, ApprovalNeedsRework:
		return true
	}
	return false
}

// ExecutionStatus tracks rollout of an approved change request.
type ExecutionStatus string

const (
	ExecutionDraft      ExecutionStatus = "DRAFT"
	ExecutionInProgress ExecutionStatus = "IN_PROGRESS"
	ExecutionCompleted  ExecutionStatus = "COMPLETED"
	ExecutionCanceled   ExecutionStatus = "CANCELED"
)

// Valid reports whether s is a known execution status.
func (s ExecutionStatus) Valid() bool {
	switch s {
	case ExecutionDraft, ExecutionInProgress, ExecutionCompleted, ExecutionCanceled:
		return true
	}
	return false
}

// Terminal reports whether no further execution transition is allowed.
func (s ExecutionStatus) Terminal() bool {
	return s == ExecutionCompleted || s == ExecutionCanceled
}

// ReviewDecision is the verdict a super manager records.
type ReviewDecision string

const (
	DecisionApproved ReviewDecision = "APPROVED"
	DecisionRejected ReviewDecision = "REJECTED"
)

// Valid reports whether d is an accepted review decision.
func (d ReviewDecision) Valid() bool {
	return d == DecisionApproved || d == DecisionRejected
}

// User is an account known to the backend.
type User struct {
	ID              uint         `json:"user_id"`
	Username        string       `json:"username"`
	Email           string       `json:"email"`
	IsSuperManager  bool         `json:"is_super_manager"`
	IsGatewayEditor bool         `json:"is_gateway_editor"`
	TeamMemberships []Membership `json:"team_memberships,omitempty"`
}

// Team groups users that may raise change requests together.
type Team struct {
	ID      uint         `json:"team_id"`
	Name    string       `json:"name"`
	Members []Membership `json:"members,omitempty"`
}

// Membership links a user to a team.
type Membership struct {
	UserID uint  `json:"user_id"`
	TeamID uint  `json:"team_id"`
	User   *User `json:"user,omitempty"`
	Team   *Team `json:"team,omitempty"`
}

// Review is a recorded super-manager decision.
type Review struct {
	ID         uint           `json:"review_id"`
	CRID       uint           `json:"cr_id"`
	UserID     uint           `json:"sm_user_id"`
	Decision   ReviewDecision `json:"review_decision"`
	ReviewedAt time.Time      `json:"reviewed_at"`
	User       *User          `json:"super_manager,omitempty"`
}

// Comment is a free-text note attached to a change request.
type Comment struct {
	ID        uint      `json:"comment_id"`
	CRID      uint      `json:"cr_id"`
	UserID    uint      `json:"user_id"`
	Text      string    `json:"comment_text"`
	CreatedAt time.Time `json:"created_at"`
	User      *User     `json:"user,omitempty"`
}

// History is one status transition in the audit trail.
type History struct {
	ID          uint      `json:"history_id"`
	CRID        uint      `json:"cr_id"`
	ChangedByID uint      `json:"changed_by_user_id"`
	EventType   string    `json:"event_type"`
	OldStatus   *string   `json:"old_status,omitempty"`
	NewStatus   string    `json:"new_status"`
	Timestamp   time.Time `json:"timestamp"`
	ChangedBy   *User     `json:"changed_by,omitempty"`
}

// ChangeRequest carries a serialized configuration document through review
// and execution. Payload is the JSON text of the form document.
type ChangeRequest struct {
	ID              uint            `json:"cr_id"`
	RequesterID     uint            `json:"requester_user_id"`
	TeamID          uint            `json:"requester_team_id"`
	Title           string          `json:"title"`
	Payload         string          `json:"config_changes_payload"`
	CreatedAt       time.Time       `json:"created_at"`
	ApprovalStatus  ApprovalStatus  `json:"approval_status"`
	ExecutionStatus ExecutionStatus `json:"execution_status"`
	Requester       *User           `json:"requester_user,omitempty"`
	Team            *Team           `json:"requester_team,omitempty"`
	Reviews         []Review        `json:"reviews,omitempty"`
	Comments        []Comment       `json:"comments,omitempty"`
	History         []History       `json:"history,omitempty"`
}

// CreateRequest is the body of a create call.
type CreateRequest struct {
	Title   string `json:"title"`
	Payload string `json:"config_changes_payload"`
	TeamID  uint   `json:"requester_team_id"`
}

// UpdateRequest is the body of an update call.
type UpdateRequest struct {
	Title   string `json:"title"`
	Payload string `json:"config_changes_payload"`
}

// ListFilter narrows ListChangeRequests. Zero values are omitted.
type ListFilter struct {
	ApprovalStatus  ApprovalStatus
	ExecutionStatus ExecutionStatus
	TeamID          uint
	UserID          uint
	Page            int
	Limit           int
}

// AuthResponse is returned by login and register.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
