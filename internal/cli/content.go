package cli

import (
	"errors"
	"fmt"

	"github.com/runoshun/quire/internal/app"
	"github.com/runoshun/quire/internal/domain"
	"github.com/runoshun/quire/internal/usecase"
	"github.com/spf13/cobra"
)

// newSaveCommand creates the save command for editing a document.
func newSaveCommand(c *app.Container, flags *globalFlags) *cobra.Command {
	var opts struct {
		Title    string
		BodyFile string
		Set      map[string]string
		Expect   string
		Edit     bool
	}

	cmd := &cobra.Command{
		Use:   "save <branch> <path>",
		Short: "Save changes to a document",
		Long: `Save a document on a task branch.

Only the parts given are changed: the title, the body and individual front
matter fields. The path may name the document file or its entry directory.

Use --expect with the head printed by "quire show" so that a save never
overwrites edits you have not seen.

Examples:
  # Change the title
  quire save abc1234 about --title "About us"

  # Replace the body from a file, or from stdin
  quire save abc1234 about --body-file about.md
  cat about.md | quire save abc1234 about --body-file -

  # Edit the body in $EDITOR
  quire save abc1234 about --edit`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := resolveActor(c, flags.actor)
			if err != nil {
				return err
			}
			branch, path := args[0], args[1]

			input := usecase.SaveDocumentInput{
				Actor:       actor,
				Branch:      branch,
				Path:        path,
				ExpectedSHA: opts.Expect,
				Fields:      opts.Set,
			}
			if cmd.Flags().Changed("title") {
				input.Title = &opts.Title
			}

			switch {
			case opts.Edit && opts.BodyFile != "":
				return errors.New("--edit and --body-file cannot be used together")
			case opts.BodyFile != "":
				body, err := readInput(opts.BodyFile, cmd.InOrStdin())
				if err != nil {
					return err
				}
				input.Body = &body
			case opts.Edit:
				current, err := c.ReadDocumentUseCase().Execute(cmd.Context(), usecase.ReadDocumentInput{
					Actor:  actor,
					Branch: branch,
					Path:   path,
				})
				if err != nil {
					return err
				}
				body, err := editText(current.Document.Body, "quire-*.md")
				if err != nil {
					return err
				}
				if body == current.Document.Body && input.Title == nil && len(input.Fields) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No changes made")
					return nil
				}
				input.Body = &body
				if input.ExpectedSHA == "" {
					input.ExpectedSHA = current.Head
				}
			}

			out, err := c.SaveDocumentUseCase().Execute(cmd.Context(), input)
			if err != nil {
				return err
			}
			printWrite(cmd.OutOrStdout(), "Saved "+path, out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Title, "title", "t", "", "New title")
	cmd.Flags().StringVarP(&opts.BodyFile, "body-file", "b", "", "Read the new body from a file (- for stdin)")
	cmd.Flags().StringToStringVar(&opts.Set, "set", nil, "Front matter field to set (key=value, repeatable)")
	cmd.Flags().StringVar(&opts.Expect, "expect", "", "Fail unless the task is still at this commit")
	cmd.Flags().BoolVarP(&opts.Edit, "edit", "e", false, "Edit the body in $EDITOR")

	return cmd
}

// newNewArticleCommand creates the new-article command.
func newNewArticleCommand(c *app.Container, flags *globalFlags) *cobra.Command {
	return newEntryCommand(c, flags, domain.KindArticle)
}

// newNewCategoryCommand creates the new-category command.
func newNewCategoryCommand(c *app.Container, flags *globalFlags) *cobra.Command {
	return newEntryCommand(c, flags, domain.KindCategory)
}

func newEntryCommand(c *app.Container, flags *globalFlags, kind domain.EntryKind) *cobra.Command {
	var opts struct {
		Parent string
		Expect string
	}

	cmd := &cobra.Command{
		Use:   fmt.Sprintf("new-%s <branch> <title>", kind),
		Short: fmt.Sprintf("Create a new %s", kind),
		Long: fmt.Sprintf(`Create a new %[1]s entry on a task branch.

The entry directory is named after the title and holds an index.md file.

Examples:
  quire new-%[1]s abc1234 "Opening hours"
  quire new-%[1]s abc1234 "Opening hours" --parent about`, kind),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := resolveActor(c, flags.actor)
			if err != nil {
				return err
			}

			out, err := c.CreateEntryUseCase().Execute(cmd.Context(), usecase.CreateEntryInput{
				Actor:       actor,
				Kind:        kind,
				Branch:      args[0],
				ExpectedSHA: opts.Expect,
				Parent:      opts.Parent,
				Title:       args[1],
			})
			if err != nil {
				return err
			}
			printWrite(cmd.OutOrStdout(), "Created "+out.Path, &out.WriteOutput)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Parent, "parent", "p", "", "Category directory to create the entry in (default: root)")
	cmd.Flags().StringVar(&opts.Expect, "expect", "", "Fail unless the task is still at this commit")

	return cmd
}

// newDeleteCommand creates the delete command.
func newDeleteCommand(c *app.Container, flags *globalFlags) *cobra.Command {
	var expect string

	cmd := &cobra.Command{
		Use:   "delete <branch> <path>",
		Short: "Delete a document or entry",
		Long: `Delete a document file, or an entry directory with everything in it.

Examples:
  quire delete abc1234 about/team
  quire delete abc1234 about/team/photo-credits.md`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := resolveActor(c, flags.actor)
			if err != nil {
				return err
			}

			out, err := c.DeleteEntryUseCase().Execute(cmd.Context(), usecase.DeleteEntryInput{
				Actor:       actor,
				Branch:      args[0],
				ExpectedSHA: expect,
				Path:        args[1],
			})
			if err != nil {
				return err
			}
			printWrite(cmd.OutOrStdout(), "Deleted "+args[1], out)
			return nil
		},
	}

	cmd.Flags().StringVar(&expect, "expect", "", "Fail unless the task is still at this commit")

	return cmd
}

// newMoveCommand creates the move command.
func newMoveCommand(c *app.Container, flags *globalFlags) *cobra.Command {
	var expect string

	cmd := &cobra.Command{
		Use:   "move <branch> <from> <to>",
		Short: "Move or rename a document or entry",
		Long: `Move a document file or an entry directory. The destination must not exist.

Examples:
  quire move abc1234 about/team people/team`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := resolveActor(c, flags.actor)
			if err != nil {
				return err
			}

			out, err := c.MoveEntryUseCase().Execute(cmd.Context(), usecase.MoveEntryInput{
				Actor:       actor,
				Branch:      args[0],
				ExpectedSHA: expect,
				From:        args[1],
				To:          args[2],
			})
			if err != nil {
				return err
			}
			printWrite(cmd.OutOrStdout(), fmt.Sprintf("Moved %s to %s", args[1], args[2]), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&expect, "expect", "", "Fail unless the task is still at this commit")

	return cmd
}
