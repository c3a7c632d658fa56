package domain

// ReviewState is the derived review status of a task.
// It is never stored; DeriveReviewState recomputes it from commit history.
type ReviewState string

const (
	ReviewFresh     ReviewState = "fresh"     // Nothing edited yet
	ReviewEdited    ReviewState = "edited"    // Unreviewed edits
	ReviewFeedback  ReviewState = "feedback"  // Feedback requested on the latest edits
	ReviewEndorsed  ReviewState = "endorsed"  // Edits endorsed by a reviewer
	ReviewPublished ReviewState = "published" // Merged into the default branch
)

// AllReviewStates returns all review states in workflow order.
func AllReviewStates() []ReviewState {
	return []ReviewState{ReviewFresh, ReviewEdited, ReviewFeedback, ReviewEndorsed, ReviewPublished}
}

// reviewTransitions defines the explicit review steps.
// Flow: fresh → edited → feedback → endorsed → published
//
//	↑          ↓          ↓
//	└─ (edit) ─┴──────────┘
//
// Edits are not listed: any edit moves a non-published task back to edited.
var reviewTransitions = map[ReviewState][]ReviewState{
	ReviewFresh:     {},
	ReviewEdited:    {ReviewFeedback},
	ReviewFeedback:  {ReviewEndorsed},
	ReviewEndorsed:  {ReviewPublished},
	ReviewPublished: {},
}

// CanTransitionTo returns true if an explicit review step leads from s to target.
func (s ReviewState) CanTransitionTo(target ReviewState) bool {
	for _, t := range reviewTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// Next returns the next explicit review step, or "" if there is none.
func (s ReviewState) Next() ReviewState {
	if next := reviewTransitions[s]; len(next) > 0 {
		return next[0]
	}
	return ""
}

// IsTerminal returns true if the state is terminal.
func (s ReviewState) IsTerminal() bool {
	return s == ReviewPublished
}

// IsValid reports whether s is a known state.
func (s ReviewState) IsValid() bool {
	_, ok := reviewTransitions[s]
	return ok
}

// Display returns a human-readable representation of the state.
func (s ReviewState) Display() string {
	switch s {
	case ReviewFresh:
		return "Fresh"
	case ReviewEdited:
		return "Unreviewed edits"
	case ReviewFeedback:
		return "Feedback requested"
	case ReviewEndorsed:
		return "Edits endorsed"
	case ReviewPublished:
		return "Changes published"
	default:
		return string(s)
	}
}

// CommitsSinceAncestor bounds a newest-first commit list to the task's own
// history. It stops before ancestor and, for branches with no common ancestor
// (ancestor == ""), right after the commit that started the task.
// Commits past either boundary are never inspected.
func CommitsSinceAncestor(commits []Commit, ancestor string) []Commit {
	for i, c := range commits {
		if ancestor != "" && c.SHA == ancestor {
			return commits[:i]
		}
		if c.Subject == SubjectTaskStarted {
			return commits[:i+1]
		}
	}
	return commits
}

// DeriveReviewState computes the review state from a task's bounded history
// (newest first). Comments, metadata updates and sync merges do not count.
// An endorsement that does not follow a feedback request is ignored.
func DeriveReviewState(commits []Commit) ReviewState {
	endorsed := false
	for _, c := range commits {
		a := ParseCommit(c)
		if !a.IsStateChange() {
			continue
		}
		switch {
		case a.Category == CategoryEdit:
			return ReviewEdited
		case a.Type == TypeFeedback:
			if endorsed {
				return ReviewEndorsed
			}
			return ReviewFeedback
		case a.Type == TypeEndorsement:
			if endorsed {
				continue
			}
			endorsed = true
		}
	}
	return ReviewFresh
}

// ReviewReaction identifies the commits a review step reacts to.
type ReviewReaction struct {
	Request    *Commit // Latest feedback request, if any
	LastEdit   *Commit // Latest edit commit before the request
	LastChange *Commit // Latest state-changing commit
}

// FindReviewReaction walks the bounded history from the tip back to the
// ancestor and records the commits the next review step reacts to.
func FindReviewReaction(commits []Commit) ReviewReaction {
	var r ReviewReaction
	for i := range commits {
		c := &commits[i]
		a := ParseCommit(*c)
		if !a.IsStateChange() {
			continue
		}
		if r.LastChange == nil {
			r.LastChange = c
		}
		if a.Category == CategoryEdit {
			r.LastEdit = c
			return r
		}
		if a.Type == TypeFeedback && r.Request == nil {
			r.Request = c
		}
	}
	return r
}

// ReviewEligible reports whether actor may endorse the pending feedback request.
// The actor must differ from whoever requested feedback and from whoever made
// the last edit, so nobody can approve their own work.
func ReviewEligible(commits []Commit, actor Actor) bool {
	r := FindReviewReaction(commits)
	if r.Request == nil {
		return false
	}
	if r.Request.Author.Is(actor) {
		return false
	}
	if r.LastEdit != nil && r.LastEdit.Author.Is(actor) {
		return false
	}
	return true
}

// Authorize reports whether actor may move the task to target.
// It is the single authorization rule used by every read and write path.
func Authorize(commits []Commit, actor Actor, target ReviewState) bool {
	if actor.Validate() != nil {
		return false
	}
	state := DeriveReviewState(commits)
	if !state.CanTransitionTo(target) {
		return false
	}
	switch target {
	case ReviewEndorsed:
		return ReviewEligible(commits, actor)
	case ReviewFeedback, ReviewPublished:
		return true
	}
	return false
}

// ReviewStatus is the review state of a task as seen by one actor.
type ReviewStatus struct {
	State      ReviewState
	Next       ReviewState // Next explicit step ("" if none)
	Authorized bool        // Whether the actor may take the next step
}

// NewReviewStatus derives the status of a bounded history for actor.
func NewReviewStatus(commits []Commit, actor Actor) ReviewStatus {
	state := DeriveReviewState(commits)
	next := state.Next()
	return ReviewStatus{
		State:      state,
		Next:       next,
		Authorized: next != "" && Authorize(commits, actor, next),
	}
}
