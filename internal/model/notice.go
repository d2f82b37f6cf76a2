package model

import "time"

// NoticeKind classifies a notice for display purposes.
type NoticeKind string

const (
	NoticeInfo    NoticeKind = "info"
	NoticeSuccess NoticeKind = "success"
	NoticeWarning NoticeKind = "warning"
	NoticeError   NoticeKind = "error"
)

// Notice is a per-account message created as a side effect of request
// submissions, operator decisions and account milestones. Notices are
// only ever mutated to flip the read flag; they are not auto-deleted,
// and removing a request does not cascade into its notices.
//
// Fields:
//  ID              – primary key identifier.
//  AccountID       – owner of the notice.
//  Title           – short headline.
//  Body            – message text.
//  Kind            – info, success, warning or error.
//  Read            – whether the account has opened the notice.
//  LinkedRequestID – request that triggered the notice, if any.
//  OperatorComment – comment attached by the operator, if any.
//  CreatedAt       – creation timestamp.
type Notice struct {
	ID              uint64     // notices.id
	AccountID       uint64     // notices.account_id
	Title           string     // notices.title
	Body            string     // notices.body
	Kind            NoticeKind // notices.kind
	Read            bool       // notices.is_read
	LinkedRequestID *uint64    // notices.linked_request_id (nullable)
	OperatorComment *string    // notices.operator_comment (nullable)
	CreatedAt       time.Time  // notices.created_at
}
