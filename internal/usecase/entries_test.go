package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/quire/internal/domain"
)

func TestCreateEntry_Execute(t *testing.T) {
	e := newEnv(t)
	task := e.start(t, alice, "New section")
	uc := NewCreateEntry(e.writer)

	category, err := uc.Execute(context.Background(), CreateEntryInput{
		Actor: alice, Branch: task.Branch, Kind: domain.KindCategory, Title: "News & Events",
	})
	require.NoError(t, err)
	article, err := uc.Execute(context.Background(), CreateEntryInput{
		Actor: alice, Branch: task.Branch, Kind: domain.KindArticle, Parent: "news-events", Title: "Launch day",
	})
	require.NoError(t, err)

	assert.Equal(t, "news-events/index.md", category.Path)
	assert.Equal(t, "news-events/launch-day/index.md", article.Path)
	content, ok := e.origin.ReadFile(t, task.Branch, article.Path)
	require.True(t, ok)
	assert.Equal(t, "---\nlayout: article\ntitle: Launch day\n---\n\n", content)
	assert.Equal(t, `The "Launch day" article was created.`, e.origin.Subjects(t, task.Branch)[0])
}

func TestCreateEntry_Errors(t *testing.T) {
	e := newEnv(t)
	task := e.start(t, alice, "New section")
	uc := NewCreateEntry(e.writer)

	tests := []struct {
		wantErr error
		name    string
		input   CreateEntryInput
	}{
		{name: "existing entry", input: CreateEntryInput{Kind: domain.KindArticle, Title: "About"}, wantErr: domain.ErrEntryExists},
		{name: "unknown kind", input: CreateEntryInput{Kind: "page", Title: "Page"}, wantErr: domain.ErrInvalidKind},
		{name: "blank title", input: CreateEntryInput{Kind: domain.KindArticle, Title: " "}, wantErr: domain.ErrEmptyTitle},
		{name: "title without slug", input: CreateEntryInput{Kind: domain.KindArticle, Title: "!!!"}, wantErr: domain.ErrInvalidPath},
		{name: "parent outside tree", input: CreateEntryInput{Kind: domain.KindArticle, Parent: "../x", Title: "X"}, wantErr: domain.ErrInvalidPath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.input.Actor, tt.input.Branch = alice, task.Branch
			_, err := uc.Execute(context.Background(), tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Equal(t, task.Head, e.origin.Tip(t, task.Branch))
}

func TestDeleteEntry_Execute(t *testing.T) {
	e := newEnv(t)
	task := e.start(t, alice, "Cleanup")
	e.origin.Push(t, alice.Email, task.Branch, "Add logo", map[string]string{"about/logo.png": "png"})
	uc := NewDeleteEntry(e.writer)

	_, err := uc.Execute(context.Background(), DeleteEntryInput{Actor: alice, Branch: task.Branch, Path: "about"})
	require.NoError(t, err)

	files := e.origin.Files(t, task.Branch)
	assert.NotContains(t, files, "about/index.md")
	assert.NotContains(t, files, "about/logo.png")
	assert.Equal(t, `The "About" article was deleted (2 files changed)`, e.origin.Subjects(t, task.Branch)[0])

	_, err = uc.Execute(context.Background(), DeleteEntryInput{Actor: alice, Branch: task.Branch, Path: "about"})
	assert.ErrorIs(t, err, domain.ErrFileNotFound)
	_, err = uc.Execute(context.Background(), DeleteEntryInput{Actor: alice, Branch: task.Branch, Path: "/"})
	assert.ErrorIs(t, err, domain.ErrInvalidPath)
}

func TestMoveEntry_Execute(t *testing.T) {
	e := newEnv(t)
	task := e.start(t, alice, "Restructure")
	uc := NewMoveEntry(e.writer)

	_, err := uc.Execute(context.Background(), MoveEntryInput{Actor: alice, Branch: task.Branch, From: "about", To: "company"})
	require.NoError(t, err)

	files := e.origin.Files(t, task.Branch)
	assert.Contains(t, files, "company/index.md")
	assert.NotContains(t, files, "about/index.md")

	history, err := NewShowHistory(e.opener).Execute(context.Background(), ShowHistoryInput{Actor: alice, Branch: task.Branch})
	require.NoError(t, err)
	changes := history.History[0].Changes
	require.Len(t, changes, 2)
	assert.Equal(t, domain.ChangeEntry{Action: domain.ActionCreated, Path: "company/index.md", DisplayType: "article", Title: "About"}, changes[0])
	assert.Equal(t, domain.ChangeEntry{Action: domain.ActionDeleted, Path: "about/index.md", DisplayType: "article", Title: "About"}, changes[1])
}

func TestMoveEntry_Errors(t *testing.T) {
	e := newEnv(t)
	task := e.start(t, alice, "Restructure")
	uc := NewMoveEntry(e.writer)

	tests := []struct {
		wantErr error
		name    string
		from    string
		to      string
	}{
		{name: "root", from: "", to: "elsewhere", wantErr: domain.ErrInvalidPath},
		{name: "into itself", from: "about", to: "about/deeper", wantErr: domain.ErrInvalidPath},
		{name: "missing source", from: "nowhere", to: "somewhere", wantErr: domain.ErrFileNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Execute(context.Background(), MoveEntryInput{Actor: alice, Branch: task.Branch, From: tt.from, To: tt.to})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestUpdateTaskMetadata_Execute(t *testing.T) {
	e := newEnv(t)
	task := e.start(t, alice, "Spring update")
	uc := NewUpdateTaskMetadata(e.writer)

	_, err := uc.Execute(context.Background(), UpdateTaskMetadataInput{
		Actor:  bob,
		Branch: task.Branch,
		Fields: map[string]string{domain.MetaDescription: "Spring refresh", "zone": "east"},
	})
	require.NoError(t, err)

	meta := e.metadata(t, task.Branch)
	assert.Equal(t, "Spring refresh", meta.Description)
	assert.Equal(t, alice.Email, meta.AuthorEmail)
	assert.Equal(t, "east", meta.Extra["zone"])
	assert.Equal(t, domain.SubjectMetadataUpdated, e.origin.Subjects(t, task.Branch)[0])
	assert.Equal(t, domain.ReviewFresh, e.show(t, alice, task.Branch).Task.State)

	_, err = uc.Execute(context.Background(), UpdateTaskMetadataInput{Actor: bob, Branch: task.Branch})
	assert.ErrorIs(t, err, domain.ErrNoFieldsToUpdate)
	_, err = uc.Execute(context.Background(), UpdateTaskMetadataInput{
		Actor: bob, Branch: task.Branch, Fields: map[string]string{domain.MetaDescription: " "},
	})
	assert.ErrorIs(t, err, domain.ErrEmptyDescription)
}
