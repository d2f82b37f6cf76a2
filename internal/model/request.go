package model

import (
	"fmt"
	"time"
)

// Variant selects which of the two parallel request kinds a record
// belongs to. Each variant lives in its own table (`beta_requests`
// or `team_requests`); the enum keeps table selection a closed set
// instead of a free-form string.
type Variant string

const (
	VariantBeta Variant = "beta" // beta-access request
	VariantTeam Variant = "team" // team-join request
)

// ParseVariant converts a path or payload string into a Variant.
// Unknown values yield an error so handlers can reject the request
// before touching storage.
func ParseVariant(s string) (Variant, error) {
	switch Variant(s) {
	case VariantBeta:
		return VariantBeta, nil
	case VariantTeam:
		return VariantTeam, nil
	}
	return "", fmt.Errorf("unknown request variant %q", s)
}

// Status is the workflow state of an access request. A request is
// created pending; approved and rejected are terminal for the status
// field itself, though an operator may still attach a comment.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// ParseStatus validates an operator-supplied status value.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusApproved, StatusRejected:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// Terminal reports whether the status permits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// AccessRequest is a row in either `beta_requests` or `team_requests`,
// depending on Variant. Contact fields are snapshotted from the account
// at submission time so the operator view does not depend on later
// account edits.
//
// Fields common to both variants:
//  ID, AccountID, Variant, Email, FirstName, LastName, Status,
//  OperatorComment (nullable), CreatedAt, ProcessedAt (set on the
//  first operator action, re-stamped on each one).
// Beta-only:
//  Reason – free-text motivation for beta access.
// Team-only:
//  Role, YearsExperience, Skills, Motivation, Portfolio (optional URL).
type AccessRequest struct {
	ID              uint64     // <variant>_requests.id
	AccountID       uint64     // <variant>_requests.account_id
	Variant         Variant    // which table the row lives in
	Email           string     // <variant>_requests.email
	FirstName       string     // <variant>_requests.first_name
	LastName        string     // <variant>_requests.last_name
	Status          Status     // <variant>_requests.status
	OperatorComment *string    // <variant>_requests.operator_comment (nullable)
	CreatedAt       time.Time  // <variant>_requests.created_at
	ProcessedAt     *time.Time // <variant>_requests.processed_at (nullable)

	Reason string // beta_requests.reason

	Role            string // team_requests.role
	YearsExperience int    // team_requests.years_experience
	Skills          string // team_requests.skills
	Motivation      string // team_requests.motivation
	Portfolio       string // team_requests.portfolio
}
