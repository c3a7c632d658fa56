package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	glamourstyles "github.com/charmbracelet/glamour/styles"
	"github.com/runoshun/quire/internal/domain"
	"github.com/runoshun/quire/internal/usecase"
)

// RenderMarkdown renders markdown for a terminal of the given width.
// Code blocks are highlighted with the catppuccin palette.
func RenderMarkdown(source string, width int) (string, error) {
	if width < 20 {
		width = 20
	}
	style := glamourstyles.DarkStyleConfig
	style.CodeBlock.Chroma = nil
	style.CodeBlock.Theme = codeTheme

	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("create markdown renderer: %w", err)
	}
	out, err := r.Render(source)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return out, nil
}

// historyMarkdown describes a task and its activity as markdown.
func historyMarkdown(item usecase.TaskListItem, out *usecase.ShowHistoryOutput) string {
	task := out.Task
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", task.Metadata.Description)
	fmt.Fprintf(&b, "- **Branch:** `%s`\n", task.Branch)
	fmt.Fprintf(&b, "- **State:** %s\n", task.State.Display())
	if item.Status.Next != "" {
		who := "someone else"
		if item.Status.Authorized {
			who = "you"
		}
		fmt.Fprintf(&b, "- **Next step:** %s (%s)\n", item.Status.Next, who)
	}
	if task.Metadata.AuthorEmail != "" {
		fmt.Fprintf(&b, "- **Started by:** %s\n", task.Metadata.AuthorEmail)
	}
	if !task.Metadata.Created.IsZero() {
		fmt.Fprintf(&b, "- **Created:** %s\n", task.Metadata.Created.Format("2006-01-02 15:04"))
	}

	if out.Summary.Sentence != "" {
		fmt.Fprintf(&b, "\n## Summary\n\n%s\n\n", out.Summary.Sentence)
		for _, f := range out.Summary.Files {
			name := f.Title
			if name == "" {
				name = f.Path
			}
			if f.Link != "" {
				fmt.Fprintf(&b, "- %s `%s` (%s)\n", name, f.Link, f.Final)
			} else {
				fmt.Fprintf(&b, "- %s (%s)\n", name, f.Final)
			}
		}
	}

	if len(out.History) > 0 {
		b.WriteString("\n## History\n\n")
		for _, a := range out.History {
			b.WriteString(activityLine(a))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// activityLine renders one history event as a list item.
func activityLine(a domain.Activity) string {
	when := a.Commit.When.Format("2006-01-02 15:04")
	who := a.Commit.Author.DisplayName()
	switch a.Category {
	case domain.CategoryComment:
		return fmt.Sprintf("- %s **%s** commented: %s", when, who, escapeNewlines(a.Text))
	case domain.CategoryEdit:
		paths := make([]string, 0, len(a.Changes))
		for _, c := range a.Changes {
			paths = append(paths, "`"+c.Path+"`")
		}
		return fmt.Sprintf("- %s **%s** %s %s", when, who, a.Action, strings.Join(paths, ", "))
	case domain.CategoryReview, domain.CategoryInfo:
		if a.Type != domain.TypeCommit {
			return fmt.Sprintf("- %s **%s** %s %s", when, who, a.Type, a.Action)
		}
	}
	return fmt.Sprintf("- %s **%s** %s", when, who, a.Commit.Subject)
}
