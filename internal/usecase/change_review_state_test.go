package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/quire/internal/domain"
)

func TestChangeReviewState_FullReview(t *testing.T) {
	// Setup
	e := newEnv(t)
	task := e.start(t, alice, "Rename about page")
	e.save(t, alice, task.Branch, SaveDocumentInput{Path: "about", Title: ptr("Company")})
	assert.Equal(t, domain.ReviewEdited, e.show(t, alice, task.Branch).Task.State)

	// Execute: alice asks for feedback
	out, err := e.review(alice, task.Branch, domain.ReviewFeedback)
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewFeedback, out.State)
	assert.Equal(t, domain.SubjectFeedbackRequested, e.origin.Subjects(t, task.Branch)[0])

	// Assert: only someone else may endorse
	forAlice := e.show(t, alice, task.Branch).Status
	assert.Equal(t, domain.ReviewStatus{State: domain.ReviewFeedback, Next: domain.ReviewEndorsed}, forAlice)
	forBob := e.show(t, bob, task.Branch).Status
	assert.True(t, forBob.Authorized)

	_, err = e.review(alice, task.Branch, domain.ReviewEndorsed)
	require.ErrorIs(t, err, domain.ErrNotAuthorized)

	out, err = e.review(bob, task.Branch, domain.ReviewEndorsed)
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewEndorsed, out.State)
	assert.Equal(t, domain.SubjectApproved, e.origin.Subjects(t, task.Branch)[0])

	// Execute: publish
	out, err = e.review(alice, task.Branch, domain.ReviewPublished)
	require.NoError(t, err)

	// Assert
	assert.Equal(t, domain.ReviewPublished, out.State)
	assert.Equal(t, task.Branch, out.Tag)
	assert.False(t, e.origin.HasBranch(t, task.Branch))
	assert.True(t, e.origin.HasTag(t, task.Branch))
	assert.Equal(t, out.Commit, e.origin.Tip(t, "master"))
	assert.NotContains(t, e.origin.Files(t, "master"), domain.TaskMetadataFile)
	content, ok := e.origin.ReadFile(t, "master", "about/index.md")
	require.True(t, ok)
	assert.Contains(t, content, "title: Company")
	assert.Equal(t, domain.MergedSubject("Rename about page"), e.origin.Subjects(t, "master")[0])

	shown := e.show(t, carol, task.Branch)
	assert.Equal(t, domain.ReviewPublished, shown.Task.State)
	assert.Equal(t, domain.ReviewStatus{State: domain.ReviewPublished}, shown.Status)
	assert.Equal(t, "Rename about page", shown.Task.Metadata.Description)
	assert.Equal(t, alice.Email, shown.Task.Metadata.AuthorEmail)
	assert.Equal(t, "1 article has been edited.", shown.Summary.Sentence)
}

func TestChangeReviewState_EditResetsReview(t *testing.T) {
	e := newEnv(t)
	task := e.start(t, alice, "Rename about page")
	e.save(t, alice, task.Branch, SaveDocumentInput{Path: "about", Title: ptr("Company")})
	_, err := e.review(alice, task.Branch, domain.ReviewFeedback)
	require.NoError(t, err)

	// Bob edits while asked for feedback: the request no longer covers the tip
	e.save(t, bob, task.Branch, SaveDocumentInput{Path: "about", Body: ptr("Reworded.\n")})

	assert.Equal(t, domain.ReviewEdited, e.show(t, bob, task.Branch).Task.State)
	_, err = e.review(carol, task.Branch, domain.ReviewEndorsed)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	// Bob asks again; alice neither asked nor made the last edit.
	_, err = e.review(bob, task.Branch, domain.ReviewFeedback)
	require.NoError(t, err)
	_, err = e.review(alice, task.Branch, domain.ReviewEndorsed)
	require.NoError(t, err)
}

func TestChangeReviewState_LastEditorCannotEndorse(t *testing.T) {
	e := newEnv(t)
	task := e.start(t, alice, "Rename about page")
	e.save(t, bob, task.Branch, SaveDocumentInput{Path: "about", Title: ptr("Company")})
	_, err := e.review(alice, task.Branch, domain.ReviewFeedback)
	require.NoError(t, err)

	_, err = e.review(bob, task.Branch, domain.ReviewEndorsed)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)
	_, err = e.review(carol, task.Branch, domain.ReviewEndorsed)
	assert.NoError(t, err)
}

func TestChangeReviewState_InvalidTransitions(t *testing.T) {
	e := newEnv(t)
	task := e.start(t, alice, "Nothing yet")

	tests := []struct {
		name   string
		target domain.ReviewState
	}{
		{name: "feedback on a fresh task", target: domain.ReviewFeedback},
		{name: "endorse without request", target: domain.ReviewEndorsed},
		{name: "publish without endorsement", target: domain.ReviewPublished},
		{name: "back to fresh", target: domain.ReviewFresh},
		{name: "unknown state", target: domain.ReviewState("archived")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.review(bob, task.Branch, tt.target)
			assert.ErrorIs(t, err, domain.ErrInvalidTransition)
		})
	}
	assert.Equal(t, task.Head, e.origin.Tip(t, task.Branch))
}

func TestAddComment_KeepsReviewState(t *testing.T) {
	e := newEnv(t)
	task := e.start(t, alice, "Rename about page")
	e.save(t, alice, task.Branch, SaveDocumentInput{Path: "about", Title: ptr("Company")})
	_, err := e.review(alice, task.Branch, domain.ReviewFeedback)
	require.NoError(t, err)

	uc := NewAddComment(e.writer)
	_, err = uc.Execute(context.Background(), AddCommentInput{Actor: bob, Branch: task.Branch, Message: "  Looks good, one typo.  "})
	require.NoError(t, err)
	_, err = uc.Execute(context.Background(), AddCommentInput{Actor: bob, Branch: task.Branch, Message: " "})
	assert.ErrorIs(t, err, domain.ErrEmptyMessage)

	history, err := NewShowHistory(e.opener).Execute(context.Background(), ShowHistoryInput{Actor: bob, Branch: task.Branch})
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewFeedback, history.Task.State)
	assert.Equal(t, domain.CategoryComment, history.History[0].Category)
	assert.Equal(t, "Looks good, one typo.", history.History[0].Text)
}
