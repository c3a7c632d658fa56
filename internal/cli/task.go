package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/runoshun/quire/internal/app"
	"github.com/runoshun/quire/internal/domain"
	"github.com/runoshun/quire/internal/tui"
	"github.com/runoshun/quire/internal/usecase"
	"github.com/spf13/cobra"
)

// newStartCommand creates the start command for opening a new task.
func newStartCommand(c *app.Container, flags *globalFlags) *cobra.Command {
	var fields map[string]string

	cmd := &cobra.Command{
		Use:   "start <description>",
		Short: "Start a new task",
		Long: `Start a new task branch for a piece of editorial work.

The branch name is derived from the description, the actor and the time
window, so repeating the same request within the window returns the same
task instead of creating a second one.

Examples:
  # Start a task
  quire start "Refresh the about page"

  # Start a task with free-form metadata
  quire start "Spring campaign" --field campaign=spring --field priority=high`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := resolveActor(c, flags.actor)
			if err != nil {
				return err
			}

			uc := c.StartTaskUseCase()
			out, err := uc.Execute(cmd.Context(), usecase.StartTaskInput{
				Actor:       actor,
				Description: strings.Join(args, " "),
				Extra:       fields,
			})
			if err != nil {
				return err
			}

			if out.Created {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Started task %s\n", out.Branch)
			} else {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Task %s already exists\n", out.Branch)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Head: %s\n", out.Head)
			return nil
		},
	}

	cmd.Flags().StringToStringVar(&fields, "field", nil, "Free-form metadata field (key=value, repeatable)")

	return cmd
}

// newLocateCommand creates the locate command.
func newLocateCommand(c *app.Container, flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "locate <branch>",
		Short: "Fetch a task into your clone",
		Long: `Make a task branch available in your clone, tracking origin.

Use this to pick up a task someone else started.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := resolveActor(c, flags.actor)
			if err != nil {
				return err
			}

			out, err := c.LocateTaskUseCase().Execute(cmd.Context(), usecase.LocateTaskInput{
				Actor:  actor,
				Branch: args[0],
			})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if out.Tracked {
				_, _ = fmt.Fprintf(w, "Tracking %s from origin\n", out.Branch)
			} else {
				_, _ = fmt.Fprintf(w, "Task %s is up to date\n", out.Branch)
			}
			_, _ = fmt.Fprintf(w, "Head: %s\n", out.Head)
			return nil
		},
	}
	return cmd
}

// newShowCommand creates the show command.
func newShowCommand(c *app.Container, flags *globalFlags) *cobra.Command {
	var opts struct {
		File string
		Raw  bool
	}

	cmd := &cobra.Command{
		Use:   "show [branch]",
		Short: "Show a task or a document",
		Long: `Show the review status and summary of a task.

With --file, show a document instead. Without a branch the document is
read from the published content.

Examples:
  # Show a task
  quire show abc1234

  # Show a document on a task branch
  quire show abc1234 --file about

  # Show the published version, undecorated
  quire show --file about/index.md --raw`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := resolveActor(c, flags.actor)
			if err != nil {
				return err
			}
			var branch string
			if len(args) == 1 {
				branch = args[0]
			}

			if opts.File != "" {
				return showDocument(cmd, c, actor, branch, opts.File, opts.Raw)
			}
			if branch == "" {
				return fmt.Errorf("%w: a branch or --file is required", domain.ErrInvalidBranchName)
			}

			out, err := c.ShowTaskUseCase().Execute(cmd.Context(), usecase.ShowTaskInput{
				Actor:  actor,
				Branch: branch,
			})
			if err != nil {
				return err
			}
			printTaskDetails(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "Document file or entry directory to show")
	cmd.Flags().BoolVar(&opts.Raw, "raw", false, "Print the document file as stored")

	return cmd
}

// showDocument prints a document, rendered for the terminal unless raw is set.
func showDocument(cmd *cobra.Command, c *app.Container, actor domain.Actor, branch, path string, raw bool) error {
	out, err := c.ReadDocumentUseCase().Execute(cmd.Context(), usecase.ReadDocumentInput{
		Actor:  actor,
		Branch: branch,
		Path:   path,
	})
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if raw {
		data, err := out.Document.Bytes()
		if err != nil {
			return err
		}
		_, _ = w.Write(data)
		return nil
	}

	_, _ = fmt.Fprintf(w, "Path:  %s\n", out.Path)
	_, _ = fmt.Fprintf(w, "Title: %s\n", out.Document.Title())
	_, _ = fmt.Fprintf(w, "Head:  %s\n", out.Head)
	for _, key := range sortedKeys(out.Document.FrontMatter) {
		if key == domain.TitleKey {
			continue
		}
		_, _ = fmt.Fprintf(w, "  %s: %v\n", key, out.Document.FrontMatter[key])
	}
	_, _ = fmt.Fprintln(w)

	rendered, err := tui.RenderMarkdown(out.Document.Body, 80)
	if err != nil {
		// Fall back to the source.
		rendered = out.Document.Body
	}
	_, _ = fmt.Fprint(w, rendered)
	return nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// printTaskDetails prints a task with its review status and summary.
func printTaskDetails(w io.Writer, out *usecase.ShowTaskOutput) {
	task := out.Task
	_, _ = fmt.Fprintf(w, "Task:        %s\n", task.Branch)
	_, _ = fmt.Fprintf(w, "Description: %s\n", task.Metadata.Description)
	_, _ = fmt.Fprintf(w, "State:       %s\n", task.State.Display())
	if out.Status.Next != "" {
		allowed := "no"
		if out.Status.Authorized {
			allowed = "yes"
		}
		_, _ = fmt.Fprintf(w, "Next step:   %s (you may: %s)\n", out.Status.Next, allowed)
	}
	if task.Metadata.AuthorEmail != "" {
		_, _ = fmt.Fprintf(w, "Started by:  %s\n", task.Metadata.AuthorEmail)
	}
	if !task.Metadata.Created.IsZero() {
		_, _ = fmt.Fprintf(w, "Created:     %s\n", task.Metadata.Created.Format("2006-01-02 15:04"))
	}
	if task.Head != "" {
		_, _ = fmt.Fprintf(w, "Head:        %s\n", task.Head)
	}
	for _, key := range sortedKeys(task.Metadata.Extra) {
		_, _ = fmt.Fprintf(w, "  %s: %v\n", key, task.Metadata.Extra[key])
	}

	if out.Summary.Sentence != "" {
		_, _ = fmt.Fprintf(w, "\n%s\n", out.Summary.Sentence)
		printFileSummaries(w, out.Summary.Files)
	}
}

// printFileSummaries prints the folded per-file changes of a task.
func printFileSummaries(w io.Writer, files []domain.FileSummary) {
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	defer func() { _ = tw.Flush() }()

	for _, f := range files {
		actions := make([]string, len(f.Actions))
		for i, a := range f.Actions {
			actions[i] = string(a)
		}
		link := f.Link
		if link == "" {
			link = "-"
		}
		_, _ = fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", f.Path, f.DisplayType, strings.Join(actions, ","), link)
	}
}

// newListCommand creates the list command.
func newListCommand(c *app.Container, flags *globalFlags) *cobra.Command {
	var states []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List open tasks",
		Long: `List open tasks, newest first.

Output format is tab-separated with columns:
  BRANCH, STATE, NEXT, CREATED, AUTHOR, DESCRIPTION

NEXT is marked with * when you may take the step.

Examples:
  # List all open tasks
  quire list

  # List tasks waiting for an endorsement
  quire list --state feedback`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			actor, err := resolveActor(c, flags.actor)
			if err != nil {
				return err
			}

			input := usecase.ListTasksInput{Actor: actor}
			for _, s := range states {
				state := domain.ReviewState(s)
				if !state.IsValid() {
					return fmt.Errorf("unknown state %q", s)
				}
				input.States = append(input.States, state)
			}

			out, err := c.ListTasksUseCase().Execute(cmd.Context(), input)
			if err != nil {
				return err
			}
			printTaskList(cmd.OutOrStdout(), out.Tasks)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&states, "state", nil, "Only show tasks in this state (fresh, edited, feedback, endorsed)")

	return cmd
}

// printTaskList prints tasks in TSV format.
func printTaskList(w io.Writer, tasks []usecase.TaskListItem) {
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	defer func() { _ = tw.Flush() }()

	_, _ = fmt.Fprintln(tw, "BRANCH\tSTATE\tNEXT\tCREATED\tAUTHOR\tDESCRIPTION")
	for _, item := range tasks {
		task := item.Task
		next := "-"
		if item.Status.Next != "" {
			next = string(item.Status.Next)
			if item.Status.Authorized {
				next += "*"
			}
		}
		created := "-"
		if !task.Metadata.Created.IsZero() {
			created = task.Metadata.Created.Format("2006-01-02 15:04")
		}
		author := task.Metadata.AuthorEmail
		if author == "" {
			author = "-"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			task.Branch, task.State, next, created, author, singleLine(task.Metadata.Description))
	}
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// newHistoryCommand creates the history command.
func newHistoryCommand(c *app.Container, flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <branch>",
		Short: "Show the activity history of a task",
		Long: `Show every event of a task, newest first, followed by a summary of
the content it changed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := resolveActor(c, flags.actor)
			if err != nil {
				return err
			}

			out, err := c.ShowHistoryUseCase().Execute(cmd.Context(), usecase.ShowHistoryInput{
				Actor:  actor,
				Branch: args[0],
			})
			if err != nil {
				return err
			}
			printHistory(cmd.OutOrStdout(), out)
			return nil
		},
	}
	return cmd
}

// printHistory prints history events in TSV format, then the summary.
func printHistory(w io.Writer, out *usecase.ShowHistoryOutput) {
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(tw, "COMMIT\tWHEN\tAUTHOR\tCATEGORY\tEVENT")
	for _, a := range out.History {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			a.Commit.ShortSHA(),
			a.Commit.When.Format("2006-01-02 15:04"),
			a.Commit.Author.DisplayName(),
			a.Category,
			describeActivity(a),
		)
	}
	_ = tw.Flush()

	if out.Summary.Sentence != "" {
		_, _ = fmt.Fprintf(w, "\n%s\n", out.Summary.Sentence)
		printFileSummaries(w, out.Summary.Files)
	}
}

// describeActivity returns a one-line description of a history event.
func describeActivity(a domain.Activity) string {
	switch a.Category {
	case domain.CategoryComment:
		return "comment: " + singleLine(a.Text)
	case domain.CategoryEdit:
		parts := make([]string, 0, len(a.Changes))
		for _, ch := range a.Changes {
			parts = append(parts, fmt.Sprintf("%s %s", ch.Action, ch.Path))
		}
		return strings.Join(parts, "; ")
	case domain.CategoryReview, domain.CategoryInfo:
		if a.Type != domain.TypeCommit {
			return a.Type + " " + a.Action
		}
	}
	return a.Commit.Subject
}

// newMetadataCommand creates the metadata command.
func newMetadataCommand(c *app.Container, flags *globalFlags) *cobra.Command {
	var opts struct {
		Set    map[string]string
		Expect string
	}

	cmd := &cobra.Command{
		Use:   "metadata <branch>",
		Short: "Update task metadata",
		Long: `Update fields of the task metadata record.

Known fields are task_description, author_email and created; any other key
is kept as a free-form field.

Examples:
  quire metadata abc1234 --set task_description="Refresh the about page"
  quire metadata abc1234 --set priority=high`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := resolveActor(c, flags.actor)
			if err != nil {
				return err
			}

			out, err := c.UpdateTaskMetadataUseCase().Execute(cmd.Context(), usecase.UpdateTaskMetadataInput{
				Actor:       actor,
				Branch:      args[0],
				ExpectedSHA: opts.Expect,
				Fields:      opts.Set,
			})
			if err != nil {
				return err
			}
			printWrite(cmd.OutOrStdout(), "Updated metadata of "+args[0], out)
			return nil
		},
	}

	cmd.Flags().StringToStringVar(&opts.Set, "set", nil, "Field to set (key=value, repeatable)")
	cmd.Flags().StringVar(&opts.Expect, "expect", "", "Fail unless the task is still at this commit")

	return cmd
}

// printWrite prints the result of a write to a task branch.
func printWrite(w io.Writer, what string, out *usecase.WriteOutput) {
	_, _ = fmt.Fprintln(w, what)
	_, _ = fmt.Fprintf(w, "Head: %s\n", out.Head)
}
