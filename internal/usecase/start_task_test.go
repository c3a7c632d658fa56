package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/quire/internal/domain"
)

func TestStartTask_Execute(t *testing.T) {
	// Setup
	e := newEnv(t)
	uc := NewStartTask(e.opener, e.clock, e.logger, e.opts)

	// Execute
	out, err := uc.Execute(context.Background(), StartTaskInput{
		Actor:       alice,
		Description: "  Spring update  ",
		Extra:       map[string]string{"zone": "east"},
	})

	// Assert
	require.NoError(t, err)
	assert.True(t, out.Created)
	assert.Equal(t, domain.TaskBranchName(e.clock.NowTime, time.Minute, "Spring update", alice.Email), out.Branch)
	assert.True(t, e.origin.HasBranch(t, out.Branch))
	assert.Equal(t, out.Head, e.origin.Tip(t, out.Branch))
	assert.Equal(t, domain.SubjectTaskStarted, e.origin.Subjects(t, out.Branch)[0])

	meta := e.metadata(t, out.Branch)
	assert.Equal(t, alice.Email, meta.AuthorEmail)
	assert.Equal(t, "Spring update", meta.Description)
	assert.True(t, meta.Created.Equal(e.clock.NowTime))
	assert.Equal(t, "east", meta.Extra["zone"])
}

func TestStartTask_Idempotent(t *testing.T) {
	// Setup
	e := newEnv(t)
	first := e.start(t, alice, "Spring update")

	// Execute: same request a few seconds later, within the naming window
	e.clock.NowTime = e.clock.NowTime.Add(5 * time.Second)
	second := e.start(t, alice, "Spring update")

	// Assert
	assert.False(t, second.Created)
	assert.Equal(t, first.Branch, second.Branch)
	assert.Equal(t, first.Head, second.Head)
	assert.Len(t, e.origin.Subjects(t, first.Branch), 2, "seed commit and one start commit")
}

func TestStartTask_AlreadyPublished(t *testing.T) {
	// Setup: the task is published within its naming window
	e := newEnv(t)
	first := e.start(t, alice, "Spring update")
	e.save(t, alice, first.Branch, SaveDocumentInput{Path: "about", Title: ptr("Spring")})
	_, err := e.complete(alice, first.Branch, domain.StrategyMerge)
	require.NoError(t, err)

	// Execute: the same request is submitted again
	uc := NewStartTask(e.opener, e.clock, e.logger, e.opts)
	_, err = uc.Execute(context.Background(), StartTaskInput{Actor: alice, Description: "Spring update"})

	// Assert
	require.ErrorIs(t, err, domain.ErrBranchCreation)
	assert.False(t, e.origin.HasBranch(t, first.Branch))
	assert.True(t, e.origin.HasTag(t, first.Branch))
}

func TestStartTask_DistinctTasks(t *testing.T) {
	e := newEnv(t)

	a := e.start(t, alice, "Spring update")
	b := e.start(t, bob, "Spring update")
	c := e.start(t, alice, "Summer update")

	assert.NotEqual(t, a.Branch, b.Branch)
	assert.NotEqual(t, a.Branch, c.Branch)
	assert.True(t, b.Created)
	assert.True(t, c.Created)
}

func TestStartTask_Validation(t *testing.T) {
	tests := []struct {
		wantErr error
		name    string
		input   StartTaskInput
	}{
		{
			name:    "empty description",
			input:   StartTaskInput{Actor: alice, Description: "   "},
			wantErr: domain.ErrEmptyDescription,
		},
		{
			name:    "missing actor",
			input:   StartTaskInput{Description: "Spring update"},
			wantErr: domain.ErrNoActor,
		},
	}

	e := newEnv(t)
	uc := NewStartTask(e.opener, e.clock, e.logger, e.opts)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Execute(context.Background(), tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
