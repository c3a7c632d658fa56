package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Commit is a commit as seen by the workflow engine.
type Commit struct {
	When    time.Time
	Author  Actor
	SHA     string
	Subject string
	Body    string
	Parents []string
}

// ShortSHA returns the first 7 characters of the SHA.
func (c Commit) ShortSHA() string {
	if len(c.SHA) > 7 {
		return c.SHA[:7]
	}
	return c.SHA
}

// IsMerge reports whether the commit has more than one parent.
func (c Commit) IsMerge() bool {
	return len(c.Parents) > 1
}

// SplitMessage splits a raw commit message into subject and body.
func SplitMessage(message string) (subject, body string) {
	message = strings.TrimRight(message, "\n")
	subject, body, _ = strings.Cut(message, "\n")
	return strings.TrimSpace(subject), strings.Trim(body, "\n")
}

// JoinMessage builds a commit message from a subject and an optional body.
func JoinMessage(subject, body string) string {
	if body == "" {
		return subject
	}
	return subject + "\n\n" + body
}

// Commit subjects written by the engine.
// They are parsed back by ParseCommit, so changing one changes history display.
const (
	SubjectTaskStarted       = "Task started."
	SubjectMetadataUpdated   = "Task metadata updated."
	SubjectFeedbackProvided  = "Provided feedback."
	SubjectFeedbackRequested = "Requested feedback."
	SubjectApproved          = "Approved changes."
	SubjectMergedPrefix      = "Merged work from "
	SubjectAbandonedPrefix   = "Abandoned task "
)

// MergedSubject returns the subject of the commit that publishes a task.
func MergedSubject(description string) string {
	return fmt.Sprintf("%s%q", SubjectMergedPrefix, description)
}

// SyncSubject returns the subject of a synchronization merge of ref.
func SyncSubject(ref string) string {
	return SubjectMergedPrefix + ref
}

// AbandonedSubject returns the subject of the audit commit for an abandoned task.
func AbandonedSubject(description string) string {
	return fmt.Sprintf("%s%q.", SubjectAbandonedPrefix, description)
}

// EditAction is what happened to a content file in an edit commit.
type EditAction string

// Edit actions in display order.
const (
	ActionCreated EditAction = "created"
	ActionEdited  EditAction = "edited"
	ActionDeleted EditAction = "deleted"
)

// editActionOrder fixes the order actions are listed in summaries.
var editActionOrder = []EditAction{ActionCreated, ActionEdited, ActionDeleted}

// ChangeEntry describes one content file touched by an edit commit.
// Edit commits carry a JSON list of entries as their body.
type ChangeEntry struct {
	Action      EditAction `json:"action"`
	Path        string     `json:"file_path"`
	DisplayType string     `json:"display_type"`
	Title       string     `json:"title"`
}

// EditMessage builds the commit message for a list of content changes.
func EditMessage(changes []ChangeEntry) (string, error) {
	if len(changes) == 0 {
		return "", ErrNoFieldsToUpdate
	}
	body, err := json.Marshal(changes)
	if err != nil {
		return "", fmt.Errorf("encode changes: %w", err)
	}
	first := changes[0]
	subject := fmt.Sprintf("The %q %s was %s.", first.Title, first.DisplayType, first.Action)
	if len(changes) > 1 {
		subject = fmt.Sprintf("%s (%d files changed)", strings.TrimSuffix(subject, "."), len(changes))
	}
	return JoinMessage(subject, string(body)), nil
}

// parseChanges decodes an edit commit body. It returns nil for anything else.
func parseChanges(body string) []ChangeEntry {
	body = strings.TrimSpace(body)
	if !strings.HasPrefix(body, "[") {
		return nil
	}
	var changes []ChangeEntry
	if err := json.Unmarshal([]byte(body), &changes); err != nil {
		return nil
	}
	valid := changes[:0]
	for _, c := range changes {
		if c.Path != "" && c.Action != "" {
			valid = append(valid, c)
		}
	}
	return valid
}
