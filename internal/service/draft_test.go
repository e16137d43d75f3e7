package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"inkwell/internal/domain"
	"inkwell/internal/domain/models"
	"inkwell/internal/domain/repositories"
	"inkwell/internal/domain/services"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string { return &s }

// fakeDraftRepo is an in-memory DraftRepository.
type fakeDraftRepo struct {
	mu     sync.Mutex
	drafts map[string]models.Draft

	createErr error
	updateErr error
}

func newFakeDraftRepo() *fakeDraftRepo {
	return &fakeDraftRepo{drafts: map[string]models.Draft{}}
}

func (r *fakeDraftRepo) Create(ctx context.Context, draft *models.Draft) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.drafts[draft.ID] = *draft
	return nil
}

func (r *fakeDraftRepo) GetByID(ctx context.Context, id string) (*models.Draft, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.drafts[id]
	if !ok {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("draft %s not found", id)}
	}
	copied := d
	return &copied, nil
}

func (r *fakeDraftRepo) List(ctx context.Context) ([]models.Draft, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Draft{}
	for _, d := range r.drafts {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeDraftRepo) ListByStatus(ctx context.Context, status models.DraftStatus) ([]models.Draft, error) {
	all, _ := r.List(ctx)
	out := []models.Draft{}
	for _, d := range all {
		if d.Status == status {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *fakeDraftRepo) Update(ctx context.Context, draft *models.Draft) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.drafts[draft.ID]; !ok {
		return &domain.NotFoundError{Message: fmt.Sprintf("draft %s not found", draft.ID)}
	}
	r.drafts[draft.ID] = *draft
	return nil
}

func (r *fakeDraftRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.drafts[id]; !ok {
		return &domain.NotFoundError{Message: fmt.Sprintf("draft %s not found", id)}
	}
	delete(r.drafts, id)
	return nil
}

// fakeCommentRepo is an in-memory CommentRepository.
type fakeCommentRepo struct {
	mu       sync.Mutex
	comments []models.Comment
}

func (r *fakeCommentRepo) Create(ctx context.Context, comment *models.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.comments = append(r.comments, *comment)
	return nil
}

func (r *fakeCommentRepo) ListByDraft(ctx context.Context, draftID string) ([]models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Comment{}
	for _, c := range r.comments {
		if c.DraftID == draftID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeCommentRepo) DeleteByDraft(ctx context.Context, draftID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.comments[:0]
	for _, c := range r.comments {
		if c.DraftID != draftID {
			kept = append(kept, c)
		}
	}
	r.comments = kept
	return nil
}

type fileState struct {
	content string
	sha     string
}

// fakeHost is an in-memory GitHost: a map of branches to file trees, with
// monotonically increasing blob fingerprints and the same conflict and
// missing-ref semantics as the real adapter.
type fakeHost struct {
	mu       sync.Mutex
	base     string
	branches map[string]map[string]fileState
	seq      int

	prs    map[int]string // PR number -> head branch
	nextPR int

	deleteCalls []string

	createBranchErr error
	commitErr       error
	openPRErr       error
	mergeErr        error
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		base:     "main",
		branches: map[string]map[string]fileState{"main": {}},
		prs:      map[int]string{},
	}
}

func (h *fakeHost) nextSHA() string {
	h.seq++
	return fmt.Sprintf("fp-%d", h.seq)
}

// seedBase puts a file on the base branch and returns its fingerprint.
func (h *fakeHost) seedBase(path, content string) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	sha := h.nextSHA()
	h.branches[h.base][path] = fileState{content: content, sha: sha}
	return sha
}

func (h *fakeHost) branchFile(branch, path string) (fileState, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	tree, ok := h.branches[branch]
	if !ok {
		return fileState{}, false
	}
	fs, ok := tree[path]
	return fs, ok
}

func (h *fakeHost) hasBranch(name string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.branches[name]
	return ok
}

func (h *fakeHost) CreateBranch(ctx context.Context, name string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.createBranchErr != nil {
		return "", h.createBranchErr
	}
	if _, ok := h.branches[name]; ok {
		return "", &domain.RemoteClientError{Status: http.StatusUnprocessableEntity, Message: "Reference already exists"}
	}
	tree := map[string]fileState{}
	for p, fs := range h.branches[h.base] {
		tree[p] = fs
	}
	h.branches[name] = tree
	return "head-" + name, nil
}

func (h *fakeHost) CommitFile(ctx context.Context, branch, path, content, message, expectedFingerprint string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.commitErr != nil {
		return h.commitErr
	}
	tree, ok := h.branches[branch]
	if !ok {
		return &domain.RemoteClientError{Status: http.StatusNotFound, Message: "Not Found"}
	}
	current := tree[path].sha
	if expectedFingerprint != "" && expectedFingerprint != current {
		return &domain.ConflictError{
			Message:  fmt.Sprintf("'%s' was modified by another writer", path),
			Path:     path,
			Expected: expectedFingerprint,
			Current:  current,
		}
	}
	tree[path] = fileState{content: content, sha: h.nextSHA()}
	return nil
}

func (h *fakeHost) ReadFile(ctx context.Context, path, ref string) (*models.FileContent, error) {
	if ref == "" {
		ref = h.base
	}
	fs, ok := h.branchFile(ref, path)
	if !ok {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("document '%s' not found at '%s'", path, ref)}
	}
	return &models.FileContent{Path: path, Content: fs.content, Fingerprint: fs.sha, Ref: ref}, nil
}

func (h *fakeHost) OpenPullRequest(ctx context.Context, branch, title, body string) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.openPRErr != nil {
		return 0, h.openPRErr
	}
	h.nextPR++
	h.prs[h.nextPR] = branch
	return h.nextPR, nil
}

func (h *fakeHost) MergePullRequest(ctx context.Context, prNumber int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.mergeErr != nil {
		return h.mergeErr
	}
	branch, ok := h.prs[prNumber]
	if !ok {
		return &domain.RemoteClientError{Status: http.StatusNotFound, Message: "Not Found"}
	}
	for p, fs := range h.branches[branch] {
		h.branches[h.base][p] = fs
	}
	return nil
}

func (h *fakeHost) DeleteBranch(ctx context.Context, name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deleteCalls = append(h.deleteCalls, name)
	// Missing refs are success, matching the adapter contract
	delete(h.branches, name)
	return nil
}

func (h *fakeHost) ListTree(ctx context.Context) ([]models.TreeEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	entries := []models.TreeEntry{}
	for p := range h.branches[h.base] {
		entries = append(entries, models.TreeEntry{Path: p, Type: models.TreeEntryFile})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

func (h *fakeHost) ListFileHistory(ctx context.Context, path string) ([]models.FileRevision, error) {
	return []models.FileRevision{}, nil
}

func (h *fakeHost) UploadBinary(ctx context.Context, branch, path string, data []byte, message string) error {
	if branch == "" {
		branch = h.base
	}
	return h.CommitFile(ctx, branch, path, string(data), message, "")
}

func (h *fakeHost) ReadBinary(ctx context.Context, path, ref string) ([]byte, error) {
	fc, err := h.ReadFile(ctx, path, ref)
	if err != nil {
		return nil, err
	}
	return []byte(fc.Content), nil
}

// fakeTxManager runs the function directly; the in-memory repos have no
// transactions to coordinate.
type fakeTxManager struct{}

func (m *fakeTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}

type draftFixture struct {
	service  services.DraftService
	drafts   *fakeDraftRepo
	comments *fakeCommentRepo
	host     *fakeHost
}

func newDraftFixture(t *testing.T) *draftFixture {
	t.Helper()
	drafts := newFakeDraftRepo()
	comments := &fakeCommentRepo{}
	host := newFakeHost()
	return &draftFixture{
		service:  NewDraftService(drafts, comments, &fakeTxManager{}, host, testLogger()),
		drafts:   drafts,
		comments: comments,
		host:     host,
	}
}

func (f *draftFixture) mustCreate(t *testing.T, docPath, title string, content *string) *models.Draft {
	t.Helper()
	draft, err := f.service.CreateDraft(context.Background(), &services.CreateDraftRequest{
		DocPath:        docPath,
		Title:          title,
		InitialContent: content,
		Author:         &models.Principal{ID: strPtr("u1"), Email: strPtr("ada@example.com"), Role: models.RoleContributor},
	})
	if err != nil {
		t.Fatalf("CreateDraft() unexpected error: %v", err)
	}
	return draft
}

func TestCreateDraft(t *testing.T) {
	f := newDraftFixture(t)

	draft := f.mustCreate(t, "getting-started.md", "Rework the intro", strPtr("# Getting Started\n"))

	if draft.Status != models.DraftStatusPending {
		t.Errorf("Status = %q, want pending", draft.Status)
	}
	if !strings.HasPrefix(draft.BranchName, "draft/getting-started-md-") {
		t.Errorf("BranchName = %q, want slug-derived prefix", draft.BranchName)
	}
	if draft.AuthorEmail == nil || *draft.AuthorEmail != "ada@example.com" {
		t.Errorf("AuthorEmail = %v, want recorded author", draft.AuthorEmail)
	}

	if !f.host.hasBranch(draft.BranchName) {
		t.Error("backing branch was not created")
	}
	fs, ok := f.host.branchFile(draft.BranchName, "getting-started.md")
	if !ok || fs.content != "# Getting Started\n" {
		t.Errorf("initial content on branch = (%q, %v)", fs.content, ok)
	}
	// The base branch is untouched until approval
	if _, ok := f.host.branchFile("main", "getting-started.md"); ok {
		t.Error("draft content leaked to the base branch")
	}

	stored, err := f.drafts.GetByID(context.Background(), draft.ID)
	if err != nil {
		t.Fatalf("record not persisted: %v", err)
	}
	if stored.DocPath != "getting-started.md" {
		t.Errorf("stored DocPath = %q", stored.DocPath)
	}
}

func TestCreateDraftAnonymousAuthor(t *testing.T) {
	f := newDraftFixture(t)

	draft, err := f.service.CreateDraft(context.Background(), &services.CreateDraftRequest{
		DocPath: "guide.md",
		Title:   "Anonymous edit",
		Author:  &models.Principal{Role: models.RoleContributor},
	})
	if err != nil {
		t.Fatalf("CreateDraft() unexpected error: %v", err)
	}
	if draft.AuthorID != nil || draft.AuthorEmail != nil {
		t.Errorf("anonymous draft carries author identity: %v %v", draft.AuthorID, draft.AuthorEmail)
	}
}

func TestCreateDraftValidation(t *testing.T) {
	tests := []struct {
		name    string
		docPath string
		title   string
	}{
		{name: "empty path", docPath: "", title: "T"},
		{name: "absolute path", docPath: "/etc/passwd", title: "T"},
		{name: "traversal", docPath: "../secrets.md", title: "T"},
		{name: "nested traversal", docPath: "guides/../../x.md", title: "T"},
		{name: "empty title", docPath: "guide.md", title: ""},
		{name: "oversized title", docPath: "guide.md", title: strings.Repeat("t", maxTitleLength+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newDraftFixture(t)

			_, err := f.service.CreateDraft(context.Background(), &services.CreateDraftRequest{
				DocPath: tt.docPath,
				Title:   tt.title,
				Author:  &models.Principal{Role: models.RoleContributor},
			})
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("CreateDraft() error = %v, want validation error", err)
			}
			if len(f.host.branches) != 1 {
				t.Error("branch created despite invalid request")
			}
		})
	}
}

func TestCreateDraftBranchFailureLeavesNoRecord(t *testing.T) {
	f := newDraftFixture(t)
	f.host.createBranchErr = &domain.RemoteTransientError{Attempts: 3, Err: errors.New("unreachable")}

	_, err := f.service.CreateDraft(context.Background(), &services.CreateDraftRequest{
		DocPath: "guide.md",
		Title:   "Edit",
		Author:  &models.Principal{Role: models.RoleContributor},
	})
	if err == nil {
		t.Fatal("CreateDraft() expected error, got nil")
	}

	all, _ := f.drafts.List(context.Background())
	if len(all) != 0 {
		t.Errorf("%d records persisted after branch failure, want 0", len(all))
	}
}

func TestCreateDraftCommitFailureKeepsRecord(t *testing.T) {
	f := newDraftFixture(t)
	f.host.commitErr = &domain.RemoteTransientError{Attempts: 3, Err: errors.New("unreachable")}

	_, err := f.service.CreateDraft(context.Background(), &services.CreateDraftRequest{
		DocPath:        "guide.md",
		Title:          "Edit",
		InitialContent: strPtr("content"),
		Author:         &models.Principal{Role: models.RoleContributor},
	})
	if err == nil {
		t.Fatal("CreateDraft() expected error, got nil")
	}

	// The branch and record survive; content arrives later via UpdateDraft
	all, _ := f.drafts.List(context.Background())
	if len(all) != 1 {
		t.Fatalf("%d records persisted after commit failure, want 1", len(all))
	}
	if all[0].Status != models.DraftStatusPending {
		t.Errorf("Status = %q, want pending", all[0].Status)
	}
	if !f.host.hasBranch(all[0].BranchName) {
		t.Error("backing branch missing")
	}
}

func TestUpdateDraft(t *testing.T) {
	f := newDraftFixture(t)
	f.host.seedBase("guide.md", "original")
	draft := f.mustCreate(t, "guide.md", "Edit guide", nil)

	before := draft.UpdatedAt
	time.Sleep(time.Millisecond)

	updated, err := f.service.UpdateDraft(context.Background(), draft.ID, &services.UpdateDraftRequest{
		Content: "revised",
		Title:   strPtr("Edit guide, round two"),
	})
	if err != nil {
		t.Fatalf("UpdateDraft() unexpected error: %v", err)
	}

	if updated.Title != "Edit guide, round two" {
		t.Errorf("Title = %q", updated.Title)
	}
	if !updated.UpdatedAt.After(before) {
		t.Error("UpdatedAt not bumped")
	}
	fs, _ := f.host.branchFile(draft.BranchName, "guide.md")
	if fs.content != "revised" {
		t.Errorf("branch content = %q, want %q", fs.content, "revised")
	}
}

func TestUpdateDraftConflict(t *testing.T) {
	f := newDraftFixture(t)
	baseFP := f.host.seedBase("guide.md", "original")
	draft := f.mustCreate(t, "guide.md", "Edit guide", nil)

	// First writer succeeds against the fingerprint both writers read
	if _, err := f.service.UpdateDraft(context.Background(), draft.ID, &services.UpdateDraftRequest{
		Content:             "first writer",
		ExpectedFingerprint: baseFP,
	}); err != nil {
		t.Fatalf("first UpdateDraft() unexpected error: %v", err)
	}

	// Second writer holds the now-stale fingerprint
	_, err := f.service.UpdateDraft(context.Background(), draft.ID, &services.UpdateDraftRequest{
		Content:             "second writer",
		ExpectedFingerprint: baseFP,
	})

	var conflictErr *domain.ConflictError
	if !errors.As(err, &conflictErr) {
		t.Fatalf("UpdateDraft() error = %T, want *domain.ConflictError", err)
	}
	if conflictErr.Expected != baseFP {
		t.Errorf("Expected = %q, want stale fingerprint %q", conflictErr.Expected, baseFP)
	}

	// First writer's content survives
	fs, _ := f.host.branchFile(draft.BranchName, "guide.md")
	if fs.content != "first writer" {
		t.Errorf("branch content = %q, want first writer's", fs.content)
	}

	// Re-reading the current fingerprint lets the second writer proceed
	if _, err := f.service.UpdateDraft(context.Background(), draft.ID, &services.UpdateDraftRequest{
		Content:             "second writer, rebased",
		ExpectedFingerprint: conflictErr.Current,
	}); err != nil {
		t.Fatalf("retried UpdateDraft() unexpected error: %v", err)
	}
}

func TestUpdateDraftNonPending(t *testing.T) {
	f := newDraftFixture(t)
	draft := f.mustCreate(t, "guide.md", "Edit", strPtr("content"))

	if _, err := f.service.ApproveDraft(context.Background(), draft.ID); err != nil {
		t.Fatalf("ApproveDraft() unexpected error: %v", err)
	}

	_, err := f.service.UpdateDraft(context.Background(), draft.ID, &services.UpdateDraftRequest{Content: "late edit"})
	if !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("UpdateDraft() error = %v, want invalid-state", err)
	}
}

func TestApproveDraft(t *testing.T) {
	f := newDraftFixture(t)
	f.host.seedBase("guide.md", "original")
	draft := f.mustCreate(t, "guide.md", "Rework guide", strPtr("approved content"))

	approved, err := f.service.ApproveDraft(context.Background(), draft.ID)
	if err != nil {
		t.Fatalf("ApproveDraft() unexpected error: %v", err)
	}

	if approved.Status != models.DraftStatusApproved {
		t.Errorf("Status = %q, want approved", approved.Status)
	}
	// Content landed on the base branch through the merge
	fc, err := f.host.ReadFile(context.Background(), "guide.md", "")
	if err != nil {
		t.Fatalf("ReadFile(base) unexpected error: %v", err)
	}
	if fc.Content != "approved content" {
		t.Errorf("base content = %q, want merged draft content", fc.Content)
	}
	if f.host.hasBranch(draft.BranchName) {
		t.Error("draft branch survived approval")
	}

	stored, _ := f.drafts.GetByID(context.Background(), draft.ID)
	if stored.Status != models.DraftStatusApproved {
		t.Errorf("stored Status = %q, want approved", stored.Status)
	}
}

func TestApproveDraftMergeFailureLeavesPending(t *testing.T) {
	f := newDraftFixture(t)
	draft := f.mustCreate(t, "guide.md", "Edit", strPtr("content"))
	f.host.mergeErr = &domain.RemoteTransientError{Attempts: 3, Err: errors.New("unreachable")}

	if _, err := f.service.ApproveDraft(context.Background(), draft.ID); err == nil {
		t.Fatal("ApproveDraft() expected error, got nil")
	}

	stored, _ := f.drafts.GetByID(context.Background(), draft.ID)
	if stored.Status != models.DraftStatusPending {
		t.Errorf("Status = %q, want pending for retry", stored.Status)
	}
	if !f.host.hasBranch(draft.BranchName) {
		t.Error("branch deleted despite merge failure")
	}
}

func TestApproveDraftAlreadyMerged(t *testing.T) {
	f := newDraftFixture(t)
	draft := f.mustCreate(t, "guide.md", "Edit", strPtr("content"))
	// A previous partially-failed approve merged the PR before crashing
	f.host.mergeErr = &domain.RemoteClientError{Status: http.StatusMethodNotAllowed, Message: "Pull Request is already merged"}

	approved, err := f.service.ApproveDraft(context.Background(), draft.ID)
	if err != nil {
		t.Fatalf("ApproveDraft() unexpected error: %v", err)
	}
	if approved.Status != models.DraftStatusApproved {
		t.Errorf("Status = %q, want approved", approved.Status)
	}
	if f.host.hasBranch(draft.BranchName) {
		t.Error("branch survived the retried approval")
	}
}

func TestStatusMonotonic(t *testing.T) {
	f := newDraftFixture(t)
	draft := f.mustCreate(t, "guide.md", "Edit", strPtr("content"))

	if _, err := f.service.ApproveDraft(context.Background(), draft.ID); err != nil {
		t.Fatalf("ApproveDraft() unexpected error: %v", err)
	}

	if _, err := f.service.ApproveDraft(context.Background(), draft.ID); !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("second ApproveDraft() error = %v, want invalid-state", err)
	}
	if _, err := f.service.RejectDraft(context.Background(), draft.ID, nil); !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("RejectDraft() after approval error = %v, want invalid-state", err)
	}

	stored, _ := f.drafts.GetByID(context.Background(), draft.ID)
	if stored.Status != models.DraftStatusApproved {
		t.Errorf("Status = %q, terminal status must not change", stored.Status)
	}
}

func TestRejectDraft(t *testing.T) {
	f := newDraftFixture(t)
	draft := f.mustCreate(t, "guide.md", "Edit", strPtr("content"))

	rejected, err := f.service.RejectDraft(context.Background(), draft.ID, &services.RejectDraftRequest{
		Reason:   "Duplicates the FAQ",
		Reviewer: &models.Principal{ID: strPtr("admin1"), Email: strPtr("rev@example.com"), Role: models.RoleAdmin},
	})
	if err != nil {
		t.Fatalf("RejectDraft() unexpected error: %v", err)
	}

	if rejected.Status != models.DraftStatusRejected {
		t.Errorf("Status = %q, want rejected", rejected.Status)
	}
	if f.host.hasBranch(draft.BranchName) {
		t.Error("branch survived rejection")
	}

	comments, _ := f.comments.ListByDraft(context.Background(), draft.ID)
	if len(comments) != 1 {
		t.Fatalf("got %d comments, want 1", len(comments))
	}
	if comments[0].Content != "Rejected: Duplicates the FAQ" {
		t.Errorf("comment = %q", comments[0].Content)
	}
	if comments[0].AuthorEmail == nil || *comments[0].AuthorEmail != "rev@example.com" {
		t.Errorf("comment author = %v, want reviewer", comments[0].AuthorEmail)
	}
}

func TestRejectDraftWithoutReason(t *testing.T) {
	f := newDraftFixture(t)
	draft := f.mustCreate(t, "guide.md", "Edit", nil)

	if _, err := f.service.RejectDraft(context.Background(), draft.ID, nil); err != nil {
		t.Fatalf("RejectDraft() unexpected error: %v", err)
	}

	comments, _ := f.comments.ListByDraft(context.Background(), draft.ID)
	if len(comments) != 0 {
		t.Errorf("got %d comments, want none without a reason", len(comments))
	}
}

func TestRejectDraftBranchAlreadyGone(t *testing.T) {
	f := newDraftFixture(t)
	draft := f.mustCreate(t, "guide.md", "Edit", nil)

	// Simulate a prior partial failure that already removed the branch
	if err := f.host.DeleteBranch(context.Background(), draft.BranchName); err != nil {
		t.Fatalf("DeleteBranch() unexpected error: %v", err)
	}

	rejected, err := f.service.RejectDraft(context.Background(), draft.ID, nil)
	if err != nil {
		t.Fatalf("RejectDraft() unexpected error: %v", err)
	}
	if rejected.Status != models.DraftStatusRejected {
		t.Errorf("Status = %q, want rejected", rejected.Status)
	}
}

func TestDeleteDraft(t *testing.T) {
	f := newDraftFixture(t)
	draft := f.mustCreate(t, "guide.md", "Edit", strPtr("content"))

	if _, err := f.service.AddComment(context.Background(), draft.ID, &services.AddCommentRequest{
		Content: "looks good",
		Author:  &models.Principal{Role: models.RoleContributor},
	}); err != nil {
		t.Fatalf("AddComment() unexpected error: %v", err)
	}

	if err := f.service.DeleteDraft(context.Background(), draft.ID); err != nil {
		t.Fatalf("DeleteDraft() unexpected error: %v", err)
	}

	if _, err := f.drafts.GetByID(context.Background(), draft.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("record still present after delete: %v", err)
	}
	comments, _ := f.comments.ListByDraft(context.Background(), draft.ID)
	if len(comments) != 0 {
		t.Errorf("%d comments survived draft deletion", len(comments))
	}
	if f.host.hasBranch(draft.BranchName) {
		t.Error("branch survived draft deletion")
	}
}

func TestDeleteDraftAnyStatus(t *testing.T) {
	f := newDraftFixture(t)
	draft := f.mustCreate(t, "guide.md", "Edit", strPtr("content"))

	if _, err := f.service.ApproveDraft(context.Background(), draft.ID); err != nil {
		t.Fatalf("ApproveDraft() unexpected error: %v", err)
	}
	if err := f.service.DeleteDraft(context.Background(), draft.ID); err != nil {
		t.Errorf("DeleteDraft() of approved draft unexpected error: %v", err)
	}
}

func TestListDrafts(t *testing.T) {
	f := newDraftFixture(t)
	a := f.mustCreate(t, "a.md", "A", nil)
	f.mustCreate(t, "b.md", "B", nil)

	if _, err := f.service.ApproveDraft(context.Background(), a.ID); err != nil {
		t.Fatalf("ApproveDraft() unexpected error: %v", err)
	}

	all, err := f.service.ListDrafts(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListDrafts() unexpected error: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("got %d drafts, want 2", len(all))
	}

	pending := models.DraftStatusPending
	filtered, err := f.service.ListDrafts(context.Background(), &pending)
	if err != nil {
		t.Fatalf("ListDrafts(pending) unexpected error: %v", err)
	}
	if len(filtered) != 1 || filtered[0].DocPath != "b.md" {
		t.Errorf("pending drafts = %+v, want only b.md", filtered)
	}

	bogus := models.DraftStatus("merged")
	if _, err := f.service.ListDrafts(context.Background(), &bogus); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("ListDrafts(bogus) error = %v, want validation error", err)
	}
}

func TestAddComment(t *testing.T) {
	f := newDraftFixture(t)
	draft := f.mustCreate(t, "guide.md", "Edit", nil)

	// Comments stay open after rejection
	if _, err := f.service.RejectDraft(context.Background(), draft.ID, nil); err != nil {
		t.Fatalf("RejectDraft() unexpected error: %v", err)
	}
	stored, _ := f.drafts.GetByID(context.Background(), draft.ID)
	updatedAt := stored.UpdatedAt

	comment, err := f.service.AddComment(context.Background(), draft.ID, &services.AddCommentRequest{
		Content: "resubmit with examples",
		Author:  &models.Principal{ID: strPtr("u2"), Email: strPtr("bob@example.com"), Role: models.RoleContributor},
	})
	if err != nil {
		t.Fatalf("AddComment() unexpected error: %v", err)
	}
	if comment.DraftID != draft.ID || comment.Content != "resubmit with examples" {
		t.Errorf("comment = %+v", comment)
	}

	stored, _ = f.drafts.GetByID(context.Background(), draft.ID)
	if !stored.UpdatedAt.Equal(updatedAt) {
		t.Error("AddComment bumped the draft's UpdatedAt")
	}
}

func TestAddCommentValidation(t *testing.T) {
	f := newDraftFixture(t)
	draft := f.mustCreate(t, "guide.md", "Edit", nil)

	if _, err := f.service.AddComment(context.Background(), draft.ID, &services.AddCommentRequest{
		Content: "",
		Author:  &models.Principal{Role: models.RoleContributor},
	}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("AddComment(empty) error = %v, want validation error", err)
	}

	if _, err := f.service.AddComment(context.Background(), "nope", &services.AddCommentRequest{
		Content: "hello",
		Author:  &models.Principal{Role: models.RoleContributor},
	}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("AddComment(unknown draft) error = %v, want not-found", err)
	}
}

func TestListCommentsUnknownDraft(t *testing.T) {
	f := newDraftFixture(t)

	if _, err := f.service.ListComments(context.Background(), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("ListComments(unknown) error = %v, want not-found", err)
	}
}
