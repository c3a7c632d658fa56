package domain

import (
	"net/url"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskBranchName(t *testing.T) {
	created := time.Date(2024, 3, 1, 10, 15, 20, 0, time.UTC)

	name := TaskBranchName(created, time.Minute, "Fix typos", "a@example.com")
	assert.Len(t, name, TaskBranchNameLength)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{7}$`), name)

	t.Run("same window is idempotent", func(t *testing.T) {
		again := TaskBranchName(created.Add(30*time.Second), time.Minute, "Fix typos", "a@example.com")
		assert.Equal(t, name, again)
	})

	t.Run("email case does not matter", func(t *testing.T) {
		assert.Equal(t, name, TaskBranchName(created, time.Minute, "Fix typos", "A@Example.com"))
	})

	t.Run("next window differs", func(t *testing.T) {
		assert.NotEqual(t, name, TaskBranchName(created.Add(time.Minute), time.Minute, "Fix typos", "a@example.com"))
	})

	t.Run("description and actor are part of identity", func(t *testing.T) {
		assert.NotEqual(t, name, TaskBranchName(created, time.Minute, "Fix more typos", "a@example.com"))
		assert.NotEqual(t, name, TaskBranchName(created, time.Minute, "Fix typos", "b@example.com"))
	})

	t.Run("generated names are valid", func(t *testing.T) {
		assert.NoError(t, ValidateBranchName(name))
	})
}

func TestValidateBranchName(t *testing.T) {
	tests := []struct {
		name    string
		branch  string
		wantErr bool
	}{
		{"hex name", "a1b2c3d", false},
		{"words", "title", false},
		{"dots and dashes", "release-1.2_x", false},
		{"empty", "", true},
		{"slash", "feature/x", true},
		{"leading dash", "-x", true},
		{"leading dot", ".hidden", true},
		{"double dot", "a..b", true},
		{"lock suffix", "task.lock", true},
		{"space", "a b", true},
		{"percent", "a%2Fb", true},
		{"unicode", "café", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBranchName(tt.branch)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidBranchName)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBranchSegment_DoubleEscape(t *testing.T) {
	raw := "odd/name with space"

	segment := EscapeBranchSegment(raw)
	assert.Equal(t, "odd%252Fname%2520with%2520space", segment)

	// The router decodes one level before the handler sees the segment.
	routed, err := url.PathUnescape(segment)
	require.NoError(t, err)

	got, err := UnescapeBranchSegment(routed)
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestUnescapeBranchSegment_Invalid(t *testing.T) {
	_, err := UnescapeBranchSegment("%zz")
	assert.Error(t, err)
}

func TestPaths(t *testing.T) {
	assert.Equal(t, "/cfg/quire", GlobalConfigDir("/cfg"))
	assert.Equal(t, "/data/quire", DataDir("/data"))
	assert.Equal(t, "/data/quire/logs/quire.log", GlobalLogPath("/data/quire"))
	assert.Equal(t, "/data/quire/logs/task-abc1234.log", TaskLogPath("/data/quire", "abc1234"))
	assert.Equal(t, "/data/quire/clones", ClonesDir("/data/quire"))
	assert.Equal(t, "origin/master", RemoteRef("master"))
}
