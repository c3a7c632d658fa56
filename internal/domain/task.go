// Package domain contains core business entities and interfaces.
package domain

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// TaskMetadataFile is the task metadata record committed at the root of every
// task branch. It never reaches the default branch.
const TaskMetadataFile = "_task.yml"

// Metadata keys with a fixed meaning.
const (
	MetaAuthorEmail = "author_email"
	MetaDescription = "task_description"
	MetaCreated     = "created"
)

// TaskMetadata is the task metadata record.
// Keys other than the known ones are kept in Extra so updates never drop them.
type TaskMetadata struct {
	Created     time.Time      `yaml:"created,omitempty"`
	Extra       map[string]any `yaml:",inline"`
	AuthorEmail string         `yaml:"author_email"`
	Description string         `yaml:"task_description"`
}

// ParseTaskMetadata decodes a task metadata record.
func ParseTaskMetadata(data []byte) (*TaskMetadata, error) {
	var m TaskMetadata
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode task metadata: %w", err)
	}
	return &m, nil
}

// Marshal encodes the record as YAML.
func (m *TaskMetadata) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode task metadata: %w", err)
	}
	return data, nil
}

// Set updates a single key. Known keys go to their fields, the rest to Extra.
func (m *TaskMetadata) Set(key, value string) error {
	switch key {
	case MetaAuthorEmail:
		m.AuthorEmail = value
	case MetaDescription:
		if strings.TrimSpace(value) == "" {
			return ErrEmptyDescription
		}
		m.Description = value
	case MetaCreated:
		t, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return fmt.Errorf("parse %s: %w", MetaCreated, err)
		}
		m.Created = t
	default:
		if m.Extra == nil {
			m.Extra = make(map[string]any)
		}
		m.Extra[key] = value
	}
	return nil
}

// Task is an open (or published) unit of editorial work backed by one branch.
type Task struct {
	Metadata TaskMetadata
	Branch   string      // Branch name, also the task identity
	Head     string      // Current tip; the optimistic-lock token for writes
	State    ReviewState // Derived review state
}

// CompletionStrategy is how a task branch is finished.
type CompletionStrategy string

// Completion strategies.
const (
	StrategyMerge   CompletionStrategy = "merge"   // Merge into default, tag, delete branch
	StrategyClobber CompletionStrategy = "clobber" // Task content overwrites default
	StrategyAbandon CompletionStrategy = "abandon" // Discard task content
)

// IsValid reports whether the strategy is known.
func (s CompletionStrategy) IsValid() bool {
	switch s {
	case StrategyMerge, StrategyClobber, StrategyAbandon:
		return true
	}
	return false
}
