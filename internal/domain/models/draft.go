package models

import "time"

// DraftStatus is the lifecycle state of a draft. Status is monotonic: once a
// draft leaves pending it never returns.
type DraftStatus string

const (
	DraftStatusPending  DraftStatus = "pending"
	DraftStatusApproved DraftStatus = "approved"
	DraftStatusRejected DraftStatus = "rejected"
)

// Valid reports whether s is one of the known statuses.
func (s DraftStatus) Valid() bool {
	switch s {
	case DraftStatusPending, DraftStatusApproved, DraftStatusRejected:
		return true
	}
	return false
}

// Terminal reports whether s is a terminal status.
func (s DraftStatus) Terminal() bool {
	return s == DraftStatusApproved || s == DraftStatusRejected
}

// Draft represents one proposed change to exactly one document path, backed
// by a dedicated branch on the hosting repository while pending.
type Draft struct {
	ID          string      `json:"id" db:"id"`
	DocPath     string      `json:"doc_path" db:"doc_path"`         // immutable after creation
	BranchName  string      `json:"branch_name" db:"branch_name"`   // immutable, unique across drafts
	Title       string      `json:"title" db:"title"`               // mutable only while pending
	AuthorID    *string     `json:"author_id" db:"author_id"`       // NULL = anonymous
	AuthorEmail *string     `json:"author_email" db:"author_email"` // NULL = anonymous
	Status      DraftStatus `json:"status" db:"status"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
}

// Comment is reviewer feedback on a draft. Immutable once created; allowed
// regardless of draft status so feedback on rejected drafts stays possible.
type Comment struct {
	ID          string    `json:"id" db:"id"`
	DraftID     string    `json:"draft_id" db:"draft_id"`
	AuthorID    *string   `json:"author_id" db:"author_id"`
	AuthorEmail *string   `json:"author_email" db:"author_email"`
	Content     string    `json:"content" db:"content"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
