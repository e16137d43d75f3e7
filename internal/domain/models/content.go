package models

import "time"

// TreeEntryType distinguishes files from directories in a repository tree.
type TreeEntryType string

const (
	TreeEntryFile TreeEntryType = "file"
	TreeEntryDir  TreeEntryType = "dir"
)

// TreeEntry is one path under the content root on the base branch. Paths are
// relative to the content root (the root prefix is stripped).
type TreeEntry struct {
	Path string        `json:"path"`
	Type TreeEntryType `json:"type"`
}

// FileContent is a decoded text file at a given ref, together with its
// fingerprint for optimistic-concurrency updates.
type FileContent struct {
	Path        string `json:"path"`
	Content     string `json:"content"`
	Fingerprint string `json:"fingerprint"` // blob SHA on the hosting API
	Ref         string `json:"ref"`
}

// FileRevision is one entry of a file's commit history, most recent first.
type FileRevision struct {
	RevisionID string    `json:"revision_id"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
	Author     string    `json:"author"`
}
