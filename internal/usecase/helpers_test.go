package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/runoshun/quire/internal/domain"
	"github.com/runoshun/quire/internal/infra/clonepool"
	"github.com/runoshun/quire/internal/testutil"
	"github.com/runoshun/quire/internal/usecase/shared"
)

var (
	alice = domain.Actor{Name: "Alice", Email: "alice@example.com"}
	bob   = domain.Actor{Name: "Bob", Email: "bob@example.com"}
	carol = domain.Actor{Name: "Carol", Email: "carol@example.com"}
)

// env wires the use cases against a bare origin and a real clone pool.
type env struct {
	origin    *testutil.Origin
	clock     *testutil.MockClock
	logger    *testutil.MockLogger
	opener    *shared.TaskOpener
	syncer    *shared.Syncer
	completer *shared.Completer
	writer    TaskWriter
	opts      shared.Options
}

func newEnv(t *testing.T) *env {
	t.Helper()

	origin := testutil.NewOrigin(t)
	logger := &testutil.MockLogger{}
	pool, err := clonepool.New(origin.Path, t.TempDir(), 8, logger)
	require.NoError(t, err)

	opts := shared.Options{
		DefaultBranch: "master",
		Retries:       3,
		NameWindow:    time.Minute,
	}
	opener := shared.NewTaskOpener(pool, logger, opts)
	syncer := shared.NewSyncer(logger, opts)
	return &env{
		origin:    origin,
		clock:     &testutil.MockClock{NowTime: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)},
		logger:    logger,
		opener:    opener,
		syncer:    syncer,
		completer: shared.NewCompleter(pool, logger, opts),
		writer:    NewTaskWriter(opener, syncer),
		opts:      opts,
	}
}

func (e *env) start(t *testing.T, actor domain.Actor, description string) *StartTaskOutput {
	t.Helper()
	uc := NewStartTask(e.opener, e.clock, e.logger, e.opts)
	out, err := uc.Execute(context.Background(), StartTaskInput{Actor: actor, Description: description})
	require.NoError(t, err)
	return out
}

func (e *env) save(t *testing.T, actor domain.Actor, branch string, in SaveDocumentInput) *WriteOutput {
	t.Helper()
	in.Actor, in.Branch = actor, branch
	out, err := NewSaveDocument(e.writer).Execute(context.Background(), in)
	require.NoError(t, err)
	return out
}

func (e *env) review(actor domain.Actor, branch string, target domain.ReviewState) (*ChangeReviewStateOutput, error) {
	uc := NewChangeReviewState(e.opener, e.syncer, e.completer, e.logger)
	return uc.Execute(context.Background(), ChangeReviewStateInput{Actor: actor, Branch: branch, Target: target})
}

func (e *env) complete(actor domain.Actor, branch string, strategy domain.CompletionStrategy) (*CompleteTaskOutput, error) {
	uc := NewCompleteTask(e.opener, e.completer)
	return uc.Execute(context.Background(), CompleteTaskInput{Actor: actor, Branch: branch, Strategy: strategy})
}

func (e *env) show(t *testing.T, actor domain.Actor, branch string) *ShowTaskOutput {
	t.Helper()
	out, err := NewShowTask(e.opener).Execute(context.Background(), ShowTaskInput{Actor: actor, Branch: branch})
	require.NoError(t, err)
	return out
}

func (e *env) metadata(t *testing.T, branch string) *domain.TaskMetadata {
	t.Helper()
	data, ok := e.origin.ReadFile(t, branch, domain.TaskMetadataFile)
	require.True(t, ok, "%s has no task metadata at origin", branch)
	meta, err := domain.ParseTaskMetadata([]byte(data))
	require.NoError(t, err)
	return meta
}

func ptr(s string) *string {
	return &s
}
