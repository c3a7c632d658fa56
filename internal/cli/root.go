// Package cli provides the command-line interface for quire.
package cli

import (
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/runoshun/quire/internal/app"
	"github.com/runoshun/quire/internal/domain"
	"github.com/runoshun/quire/internal/tui"
	"github.com/spf13/cobra"
)

// Command group IDs.
const (
	groupSetup   = "setup"
	groupTask    = "task"
	groupContent = "content"
	groupReview  = "review"
)

// launchTUIFunc is a function variable for launching the TUI, allowing it to be mocked in tests.
var launchTUIFunc = launchTUI

// globalFlags holds the persistent flags shared by every command.
type globalFlags struct {
	actor   string
	verbose bool
}

// NewRootCommand creates the root command for quire.
// It receives the container for dependency injection and version for display.
func NewRootCommand(c *app.Container, version string) *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:   "quire",
		Short: "Collaborative content editing on git",
		Long: `quire edits a git-backed content repository on behalf of many editors.

Every change happens on a task branch. Editors save documents, comment,
request feedback and endorse each other's edits; an endorsed task is
published by merging it into the default branch.

Run without arguments to open the task browser.`,
		Version: version,
		// SilenceUsage prevents usage from being printed on errors
		SilenceUsage: true,
		// SilenceErrors prevents Cobra from printing errors (we handle it in main)
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip if container is nil (e.g. in tests)
			if c == nil {
				return nil
			}
			if flags.verbose && c.Verbosity != nil {
				c.Verbosity.Set(slog.LevelDebug)
			}
			if c.Diagnostics != nil {
				c.Diagnostics.Debug("request", "id", c.RequestID(), "command", cmd.CommandPath())
			}
			for _, w := range c.AppConfig.Warnings {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", w)
			}
			return nil
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			actor, err := resolveActor(c, flags.actor)
			if err != nil {
				return err
			}
			return launchTUIFunc(c, actor)
		},
	}

	root.PersistentFlags().StringVar(&flags.actor, "actor", "", `Editor to act as, e.g. "Jane Doe <jane@example.com>" (default: [actor] in config)`)
	root.PersistentFlags().BoolVar(&flags.verbose, "verbose", false, "Print debug diagnostics to stderr")

	root.AddGroup(
		&cobra.Group{ID: groupSetup, Title: "Setup Commands:"},
		&cobra.Group{ID: groupTask, Title: "Task Management:"},
		&cobra.Group{ID: groupContent, Title: "Content Editing:"},
		&cobra.Group{ID: groupReview, Title: "Review and Publishing:"},
	)

	commands := []struct {
		cmd   *cobra.Command
		group string
	}{
		{newConfigCommand(c), groupSetup},

		{newStartCommand(c, &flags), groupTask},
		{newLocateCommand(c, &flags), groupTask},
		{newShowCommand(c, &flags), groupTask},
		{newListCommand(c, &flags), groupTask},
		{newHistoryCommand(c, &flags), groupTask},
		{newMetadataCommand(c, &flags), groupTask},
		{newTUICommand(c, &flags), groupTask},

		{newSaveCommand(c, &flags), groupContent},
		{newNewArticleCommand(c, &flags), groupContent},
		{newNewCategoryCommand(c, &flags), groupContent},
		{newDeleteCommand(c, &flags), groupContent},
		{newMoveCommand(c, &flags), groupContent},

		{newCommentCommand(c, &flags), groupReview},
		{newReviewStepCommand(c, &flags, domain.ReviewFeedback), groupReview},
		{newReviewStepCommand(c, &flags, domain.ReviewEndorsed), groupReview},
		{newReviewStepCommand(c, &flags, domain.ReviewPublished), groupReview},
		{newCompleteCommand(c, &flags, domain.StrategyClobber), groupReview},
		{newCompleteCommand(c, &flags, domain.StrategyAbandon), groupReview},
	}
	for _, sub := range commands {
		sub.cmd.GroupID = sub.group
		if sub.group != groupSetup {
			explainTaskErrors(sub.cmd)
		}
		root.AddCommand(sub.cmd)
	}

	return root
}

// resolveActor returns the actor a request acts on behalf of: the --actor
// flag when given, otherwise the [actor] section of the config.
func resolveActor(c *app.Container, flag string) (domain.Actor, error) {
	var actor domain.Actor
	if strings.TrimSpace(flag) != "" {
		addr, err := mail.ParseAddress(flag)
		if err != nil {
			return domain.Actor{}, fmt.Errorf("%w: parse --actor %q: %v", domain.ErrNoActor, flag, err)
		}
		actor = domain.Actor{Name: addr.Name, Email: addr.Address}
	} else if c != nil && c.AppConfig != nil {
		actor = c.AppConfig.Actor
	}
	if err := actor.Validate(); err != nil {
		return domain.Actor{}, fmt.Errorf("%w (pass --actor or set [actor] in config.toml)", err)
	}
	return actor, nil
}

// launchTUI runs the task browser until the user quits.
func launchTUI(c *app.Container, actor domain.Actor) error {
	return tui.Run(c, actor)
}
