package domain

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Category groups activity events for display.
type Category string

// Activity categories.
const (
	CategoryEdit    Category = "edit"
	CategoryComment Category = "comment"
	CategoryReview  Category = "review"
	CategoryInfo    Category = "info"
)

// Activity types and actions that are not content edits.
const (
	TypeTask        = "task"
	TypeComment     = "comment"
	TypeFeedback    = "feedback"
	TypeEndorsement = "endorsement"
	TypeSync        = "sync"
	TypeCommit      = "commit"

	ActionStarted   = "started"
	ActionUpdated   = "updated"
	ActionCommented = "commented"
	ActionRequested = "requested"
	ActionApproved  = "approved"
	ActionMerged    = "merged"
	ActionCommitted = "committed"
)

// Activity is one classified commit of a task branch.
type Activity struct {
	Commit   Commit
	Category Category
	Type     string
	Action   string
	Text     string        // Comment text for comment events
	Changes  []ChangeEntry // Content changes for edit events
}

// IsStateChange reports whether the event moves the review state.
func (a Activity) IsStateChange() bool {
	return a.Category == CategoryEdit || a.Category == CategoryReview
}

// ParseCommit classifies a commit by its message conventions.
func ParseCommit(c Commit) Activity {
	a := Activity{Commit: c, Category: CategoryInfo, Type: TypeCommit, Action: ActionCommitted}

	switch {
	case c.Subject == SubjectTaskStarted:
		a.Type, a.Action = TypeTask, ActionStarted
	case c.Subject == SubjectMetadataUpdated:
		a.Type, a.Action = TypeTask, ActionUpdated
	case c.Subject == SubjectFeedbackProvided:
		a.Category, a.Type, a.Action = CategoryComment, TypeComment, ActionCommented
		a.Text = c.Body
	case c.Subject == SubjectFeedbackRequested:
		a.Category, a.Type, a.Action = CategoryReview, TypeFeedback, ActionRequested
	case c.Subject == SubjectApproved:
		a.Category, a.Type, a.Action = CategoryReview, TypeEndorsement, ActionApproved
	case strings.HasPrefix(c.Subject, SubjectMergedPrefix):
		a.Type, a.Action = TypeSync, ActionMerged
	default:
		if changes := parseChanges(c.Body); len(changes) > 0 {
			a.Category = CategoryEdit
			a.Type = changes[0].DisplayType
			a.Action = string(changes[0].Action)
			a.Changes = changes
		}
	}
	return a
}

// ActivityHistory classifies commits. Input and output are newest first.
func ActivityHistory(commits []Commit) []Activity {
	history := make([]Activity, 0, len(commits))
	for _, c := range commits {
		history = append(history, ParseCommit(c))
	}
	return history
}

// FileSummary is the folded history of one content file.
type FileSummary struct {
	Path        string
	Title       string
	DisplayType string
	Link        string       // Empty when the file was finally deleted
	Final       EditAction   // Most recent action
	Actions     []EditAction // Distinct actions in display order
}

// Summary condenses a task history for display.
type Summary struct {
	Sentence string
	Files    []FileSummary
}

type fileFold struct {
	summary FileSummary
	seen    map[EditAction]bool
	final   EditAction
}

// Summarize folds edit events by path and composes a one-sentence summary.
// history is newest first, as returned by ActivityHistory.
func Summarize(history []Activity) Summary {
	folds := make(map[string]*fileFold)

	for i := len(history) - 1; i >= 0; i-- {
		event := history[i]
		if event.Category != CategoryEdit {
			continue
		}
		for _, change := range event.Changes {
			f, ok := folds[change.Path]
			if !ok {
				f = &fileFold{summary: FileSummary{Path: change.Path}, seen: make(map[EditAction]bool)}
				folds[change.Path] = f
			}
			if change.Title != "" {
				f.summary.Title = change.Title
			}
			if change.DisplayType != "" {
				f.summary.DisplayType = change.DisplayType
			}
			f.seen[change.Action] = true
			f.final = change.Action
		}
	}

	paths := make([]string, 0, len(folds))
	for p := range folds {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	summary := Summary{Files: make([]FileSummary, 0, len(paths))}
	allActions := make(map[EditAction]bool)
	typeCounts := make(map[string]int)
	for _, p := range paths {
		f := folds[p]
		for _, action := range editActionOrder {
			if f.seen[action] {
				f.summary.Actions = append(f.summary.Actions, action)
				allActions[action] = true
			}
		}
		var unknown []EditAction
		for action := range f.seen {
			if !slices.Contains(editActionOrder, action) {
				unknown = append(unknown, action)
			}
		}
		slices.Sort(unknown)
		for _, action := range unknown {
			f.summary.Actions = append(f.summary.Actions, action)
			allActions[action] = true
		}
		f.summary.Final = f.final
		if f.final != ActionDeleted {
			f.summary.Link = f.summary.Path
		}
		typeCounts[displayTypeOrFile(f.summary.DisplayType)]++
		summary.Files = append(summary.Files, f.summary)
	}

	summary.Sentence = summarySentence(typeCounts, allActions)
	return summary
}

func displayTypeOrFile(t string) string {
	if t == "" {
		return "file"
	}
	return t
}

// summarySentence composes e.g. "2 articles and 1 category have been created and edited."
func summarySentence(typeCounts map[string]int, actions map[EditAction]bool) string {
	if len(typeCounts) == 0 {
		return "No changes have been made yet."
	}

	types := make([]string, 0, len(typeCounts))
	for t := range typeCounts {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool {
		ri, rj := typeRank(types[i]), typeRank(types[j])
		if ri != rj {
			return ri < rj
		}
		return types[i] < types[j]
	})

	total := 0
	counts := make([]string, 0, len(types))
	for _, t := range types {
		n := typeCounts[t]
		total += n
		counts = append(counts, fmt.Sprintf("%d %s", n, pluralize(t, n)))
	}

	verbs := make([]string, 0, len(actions))
	for _, a := range editActionOrder {
		if actions[a] {
			verbs = append(verbs, string(a))
		}
	}
	var extra []string
	for a := range actions {
		if !slices.Contains(editActionOrder, a) {
			extra = append(extra, string(a))
		}
	}
	sort.Strings(extra)
	verbs = append(verbs, extra...)

	have := "have"
	if total == 1 {
		have = "has"
	}
	return fmt.Sprintf("%s %s been %s.", joinList(counts), have, joinList(verbs))
}

func typeRank(t string) int {
	switch t {
	case string(KindArticle):
		return 0
	case string(KindCategory):
		return 1
	}
	return 2
}

func pluralize(word string, n int) string {
	if n == 1 {
		return word
	}
	if strings.HasSuffix(word, "y") && !strings.HasSuffix(word, "ey") {
		return strings.TrimSuffix(word, "y") + "ies"
	}
	return word + "s"
}

// joinList joins items as "a", "a and b" or "a, b, and c".
func joinList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	}
	return strings.Join(items[:len(items)-1], ", ") + ", and " + items[len(items)-1]
}
