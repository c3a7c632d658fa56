package cli

import (
	"fmt"
	"strings"

	"github.com/runoshun/quire/internal/app"
	"github.com/runoshun/quire/internal/domain"
	"github.com/runoshun/quire/internal/usecase"
	"github.com/spf13/cobra"
)

// newCommentCommand creates the comment command.
func newCommentCommand(c *app.Container, flags *globalFlags) *cobra.Command {
	var expect string

	cmd := &cobra.Command{
		Use:   "comment <branch> [message]",
		Short: "Comment on a task",
		Long: `Add a comment to a task. Comments never change the review state.

The message may also be piped in on stdin.

Examples:
  quire comment abc1234 "The second paragraph needs a source"
  echo "Looks good" | quire comment abc1234`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := resolveActor(c, flags.actor)
			if err != nil {
				return err
			}

			message := strings.Join(args[1:], " ")
			if message == "" {
				stdinMessage, readErr := readStdinIfNotTerminal(cmd.InOrStdin())
				if readErr != nil {
					return fmt.Errorf("read stdin: %w", readErr)
				}
				message = stdinMessage
			}

			out, err := c.AddCommentUseCase().Execute(cmd.Context(), usecase.AddCommentInput{
				Actor:       actor,
				Branch:      args[0],
				ExpectedSHA: expect,
				Message:     message,
			})
			if err != nil {
				return err
			}
			printWrite(cmd.OutOrStdout(), "Commented on "+args[0], out)
			return nil
		},
	}

	cmd.Flags().StringVar(&expect, "expect", "", "Fail unless the task is still at this commit")

	return cmd
}

// reviewSteps describes the command for each explicit review step.
var reviewSteps = map[domain.ReviewState]struct {
	use, short, long, done string
}{
	domain.ReviewFeedback: {
		use:   "feedback",
		short: "Request feedback on the latest edits",
		long: `Ask another editor to review the latest edits of a task.

Any editor may request feedback once the task has unreviewed edits.`,
		done: "Requested feedback on",
	},
	domain.ReviewEndorsed: {
		use:   "endorse",
		short: "Endorse the edits of a task",
		long: `Endorse the edits feedback was requested on.

You can not endorse a task if you requested the feedback or made the
latest edit. Any later edit withdraws the endorsement.`,
		done: "Endorsed",
	},
	domain.ReviewPublished: {
		use:   "publish",
		short: "Publish an endorsed task",
		long: `Merge an endorsed task into the default branch, tag it and delete the
task branch.

If the published content changed in a way that conflicts with the task,
nothing is published; use "quire clobber" or "quire abandon" to finish it.`,
		done: "Published",
	},
}

// newReviewStepCommand creates the command taking a task to target.
func newReviewStepCommand(c *app.Container, flags *globalFlags, target domain.ReviewState) *cobra.Command {
	step := reviewSteps[target]
	var expect string

	cmd := &cobra.Command{
		Use:   step.use + " <branch>",
		Short: step.short,
		Long:  step.long,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := resolveActor(c, flags.actor)
			if err != nil {
				return err
			}

			out, err := c.ChangeReviewStateUseCase().Execute(cmd.Context(), usecase.ChangeReviewStateInput{
				Actor:       actor,
				Branch:      args[0],
				ExpectedSHA: expect,
				Target:      target,
			})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "%s %s\n", step.done, args[0])
			_, _ = fmt.Fprintf(w, "State: %s\n", out.State.Display())
			if out.Tag != "" {
				_, _ = fmt.Fprintf(w, "Tag:   %s\n", out.Tag)
			}
			if out.Head != "" {
				_, _ = fmt.Fprintf(w, "Head:  %s\n", out.Head)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&expect, "expect", "", "Fail unless the task is still at this commit")

	return cmd
}

// newCompleteCommand creates the clobber or abandon command.
func newCompleteCommand(c *app.Container, flags *globalFlags, strategy domain.CompletionStrategy) *cobra.Command {
	var expect string

	cmd := &cobra.Command{
		Use:  string(strategy) + " <branch>",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := resolveActor(c, flags.actor)
			if err != nil {
				return err
			}

			out, err := c.CompleteTaskUseCase().Execute(cmd.Context(), usecase.CompleteTaskInput{
				Actor:       actor,
				Branch:      args[0],
				Strategy:    strategy,
				ExpectedSHA: expect,
			})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if strategy == domain.StrategyAbandon {
				_, _ = fmt.Fprintf(w, "Abandoned %s\n", args[0])
				return nil
			}
			_, _ = fmt.Fprintf(w, "Published %s over the current content\n", args[0])
			_, _ = fmt.Fprintf(w, "Tag:    %s\n", out.Tag)
			_, _ = fmt.Fprintf(w, "Commit: %s\n", out.Commit)
			return nil
		},
	}

	switch strategy {
	case domain.StrategyClobber:
		cmd.Short = "Publish a task, overwriting conflicting content"
		cmd.Long = `Publish a task whose changes conflict with the published content.

The task's content replaces the published content wherever they differ.
No review is required.`
	case domain.StrategyAbandon:
		cmd.Short = "Discard a task"
		cmd.Long = `Discard a task and delete its branch. The published content is not changed.`
	case domain.StrategyMerge:
		cmd.Short = "Publish a task"
	}

	cmd.Flags().StringVar(&expect, "expect", "", "Fail unless the task is still at this commit")

	return cmd
}
