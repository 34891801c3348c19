package models

import "fmt"

// ApprovalState is the conference outcome tri-state. Historical storage encodes
// it as a nullable boolean "awaiting_approval" (false = approved, true =
// awaiting, NULL = rejected); in memory it is an explicit enum so call sites
// never reason about pointer-to-bool semantics.
type ApprovalState int

const (
	ApprovalAwaiting ApprovalState = iota
	ApprovalApproved
	ApprovalRejected
)

func (a ApprovalState) String() string {
	switch a {
	case ApprovalApproved:
		return "approved"
	case ApprovalAwaiting:
		return "awaiting"
	case ApprovalRejected:
		return "rejected"
	default:
		return fmt.Sprintf("approval(%d)", int(a))
	}
}

// EncodeApproval converts the enum to the stored nullable-boolean form.
func EncodeApproval(a ApprovalState) *bool {
	switch a {
	case ApprovalApproved:
		v := false
		return &v
	case ApprovalAwaiting:
		v := true
		return &v
	default:
		return nil
	}
}

// DecodeApproval converts the stored nullable-boolean form to the enum.
func DecodeApproval(awaiting *bool) ApprovalState {
	switch {
	case awaiting == nil:
		return ApprovalRejected
	case *awaiting:
		return ApprovalAwaiting
	default:
		return ApprovalApproved
	}
}
