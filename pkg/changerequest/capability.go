package changerequest

// Identity is the caller as far as capability checks are concerned.
type Identity struct {
	UserID          uint
	IsSuperManager  bool
	IsGatewayEditor bool
}

// IdentityOf derives an Identity from a backend user.
func IdentityOf(u *User) Identity {
	if u == nil {
		return Identity{}
	}
	return Identity{UserID: u.ID, IsSuperManager: u.IsSuperManager, IsGatewayEditor: u.IsGatewayEditor}
}

// CanEdit reports whether id may change the payload of cr. Only the requester
// may edit, and never after approval. A nil cr is a new request and always
// editable.
func CanEdit(cr *ChangeRequest, id Identity) bool {
	if cr == nil {
		return true
	}
	if id.UserID == 0 || cr.RequesterID != id.UserID {
		return false
	}
	return cr.ApprovalStatus != ApprovalApproved
}

// CanReview reports whether id may approve or reject cr.
func CanReview(cr *ChangeRequest, id Identity) bool {
	return cr != nil && id.IsSuperManager && cr.ApprovalStatus == ApprovalPending
}

// CanExecute reports whether id may change the execution status of cr.
func CanExecute(cr *ChangeRequest, id Identity) bool {
	return cr != nil && id.IsGatewayEditor && cr.ApprovalStatus == ApprovalApproved
}

var executionTransitions = map[ExecutionStatus][]ExecutionStatus{
	ExecutionDraft:      {ExecutionInProgress, ExecutionCanceled},
	ExecutionInProgress: {ExecutionCompleted, ExecutionCanceled},
}

// ValidTransition reports whether execution may move from one status to
// another.
func ValidTransition(from, to ExecutionStatus) bool {
	for _, next := range executionTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
