package cli

import (
	"context"
	"errors"

	"github.com/runoshun/quire/internal/domain"
	"github.com/runoshun/quire/internal/usecase/shared"
	"github.com/spf13/cobra"
)

// conflictError replaces a merge conflict with a report for the editor.
type conflictError struct {
	conflict *domain.MergeConflict
	report   string
}

func (e *conflictError) Error() string { return e.report }

func (e *conflictError) Unwrap() error { return e.conflict }

// explainError turns a merge conflict on branch into a readable report.
// Other errors are returned unchanged.
func explainError(ctx context.Context, err error, branch string) error {
	var conflict *domain.MergeConflict
	if err == nil || !errors.As(err, &conflict) {
		return err
	}
	report, reportErr := shared.ConflictReport(ctx, conflict, branch)
	if reportErr != nil {
		return errors.Join(err, reportErr)
	}
	return &conflictError{conflict: conflict, report: report}
}

// explainTaskErrors wraps the command so that its errors go through explainError.
// The first argument of every task command is the branch.
func explainTaskErrors(cmd *cobra.Command) {
	run := cmd.RunE
	if run == nil {
		return
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		var branch string
		if len(args) > 0 {
			branch = args[0]
		}
		return explainError(cmd.Context(), run(cmd, args), branch)
	}
}
