// Package app provides the dependency injection container for the application.
package app

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/runoshun/quire/internal/domain"
	"github.com/runoshun/quire/internal/infra/clonepool"
	"github.com/runoshun/quire/internal/infra/config"
	"github.com/runoshun/quire/internal/infra/logging"
	"github.com/runoshun/quire/internal/usecase"
	"github.com/runoshun/quire/internal/usecase/shared"
)

// Config holds the application paths.
type Config struct {
	DataDir   string // quire data directory (local config, logs)
	ClonesDir string // Root of the clone registry
}

// Container provides dependency injection for the application.
// It holds all port implementations and provides factory methods for use cases.
type Container struct {
	// Ports (interfaces bound to implementations)
	Clock         domain.Clock
	Clones        domain.ClonePool
	Logger        domain.Logger
	ConfigLoader  domain.ConfigLoader
	ConfigManager domain.ConfigManager

	// Pointer fields
	AppConfig   *domain.Config
	Diagnostics *slog.Logger   // CLI diagnostics on stderr
	Verbosity   *slog.LevelVar // Level of Diagnostics; --verbose lowers it to debug
	opener      *shared.TaskOpener
	syncer      *shared.Syncer
	completer   *shared.Completer

	// Configuration
	Options shared.Options
	Config  Config
}

// New creates a new Container for the data directory.
// An unreadable config falls back to the defaults with a warning, so that
// "quire config" still works.
func New(dataDir string) (*Container, error) {
	configLoader := config.NewLoader(dataDir)
	appConfig, err := configLoader.Load()
	if err != nil {
		appConfig = domain.NewDefaultConfig()
		appConfig.Warnings = append(appConfig.Warnings, fmt.Sprintf("config ignored: %v", err))
	}

	cfg := Config{
		DataDir:   dataDir,
		ClonesDir: appConfig.Clones.Dir,
	}
	if cfg.ClonesDir == "" {
		cfg.ClonesDir = domain.ClonesDir(dataDir)
	}

	logger := logging.New(dataDir, logging.ParseLevel(appConfig.Log.Level)).WithRequest("")
	verbosity := new(slog.LevelVar)
	verbosity.Set(slog.LevelWarn)
	diagnostics := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: verbosity,
	}))

	pool, err := clonepool.New(appConfig.Repo.Origin, cfg.ClonesDir, appConfig.Clones.Max, logger)
	if err != nil {
		return nil, fmt.Errorf("open clone registry: %w", err)
	}

	c := NewWithDeps(cfg, appConfig, pool, logger, domain.RealClock{}, configLoader, config.NewManager(dataDir), diagnostics)
	c.Verbosity = verbosity
	return c, nil
}

// NewWithDeps creates a new Container with custom dependencies for testing.
func NewWithDeps(
	cfg Config,
	appConfig *domain.Config,
	clones domain.ClonePool,
	logger domain.Logger,
	clock domain.Clock,
	loader domain.ConfigLoader,
	manager domain.ConfigManager,
	diagnostics *slog.Logger,
) *Container {
	opts := shared.NewOptions(appConfig)
	return &Container{
		Clock:         clock,
		Clones:        clones,
		Logger:        logger,
		ConfigLoader:  loader,
		ConfigManager: manager,
		AppConfig:     appConfig,
		Diagnostics:   diagnostics,
		Options:       opts,
		Config:        cfg,
		opener:        shared.NewTaskOpener(clones, logger, opts),
		syncer:        shared.NewSyncer(logger, opts),
		completer:     shared.NewCompleter(clones, logger, opts),
	}
}

// RequestID returns the id the logs of this process are tagged with.
func (c *Container) RequestID() string {
	if l, ok := c.Logger.(*logging.Logger); ok {
		return l.RequestID()
	}
	return ""
}

// Close flushes and closes the log files.
func (c *Container) Close() error {
	if l, ok := c.Logger.(*logging.Logger); ok {
		return l.Close()
	}
	return nil
}

func (c *Container) writer() usecase.TaskWriter {
	return usecase.NewTaskWriter(c.opener, c.syncer)
}

// UseCase factory methods

// StartTaskUseCase returns a new StartTask use case.
func (c *Container) StartTaskUseCase() *usecase.StartTask {
	return usecase.NewStartTask(c.opener, c.Clock, c.Logger, c.Options)
}

// LocateTaskUseCase returns a new LocateTask use case.
func (c *Container) LocateTaskUseCase() *usecase.LocateTask {
	return usecase.NewLocateTask(c.opener)
}

// ShowTaskUseCase returns a new ShowTask use case.
func (c *Container) ShowTaskUseCase() *usecase.ShowTask {
	return usecase.NewShowTask(c.opener)
}

// ShowHistoryUseCase returns a new ShowHistory use case.
func (c *Container) ShowHistoryUseCase() *usecase.ShowHistory {
	return usecase.NewShowHistory(c.opener)
}

// ListTasksUseCase returns a new ListTasks use case.
func (c *Container) ListTasksUseCase() *usecase.ListTasks {
	return usecase.NewListTasks(c.opener, c.Logger)
}

// ReadDocumentUseCase returns a new ReadDocument use case.
func (c *Container) ReadDocumentUseCase() *usecase.ReadDocument {
	return usecase.NewReadDocument(c.opener)
}

// SaveDocumentUseCase returns a new SaveDocument use case.
func (c *Container) SaveDocumentUseCase() *usecase.SaveDocument {
	return usecase.NewSaveDocument(c.writer())
}

// CreateEntryUseCase returns a new CreateEntry use case.
func (c *Container) CreateEntryUseCase() *usecase.CreateEntry {
	return usecase.NewCreateEntry(c.writer())
}

// DeleteEntryUseCase returns a new DeleteEntry use case.
func (c *Container) DeleteEntryUseCase() *usecase.DeleteEntry {
	return usecase.NewDeleteEntry(c.writer())
}

// MoveEntryUseCase returns a new MoveEntry use case.
func (c *Container) MoveEntryUseCase() *usecase.MoveEntry {
	return usecase.NewMoveEntry(c.writer())
}

// AddCommentUseCase returns a new AddComment use case.
func (c *Container) AddCommentUseCase() *usecase.AddComment {
	return usecase.NewAddComment(c.writer())
}

// UpdateTaskMetadataUseCase returns a new UpdateTaskMetadata use case.
func (c *Container) UpdateTaskMetadataUseCase() *usecase.UpdateTaskMetadata {
	return usecase.NewUpdateTaskMetadata(c.writer())
}

// ChangeReviewStateUseCase returns a new ChangeReviewState use case.
func (c *Container) ChangeReviewStateUseCase() *usecase.ChangeReviewState {
	return usecase.NewChangeReviewState(c.opener, c.syncer, c.completer, c.Logger)
}

// CompleteTaskUseCase returns a new CompleteTask use case.
func (c *Container) CompleteTaskUseCase() *usecase.CompleteTask {
	return usecase.NewCompleteTask(c.opener, c.completer)
}

// ShowConfigUseCase returns a new ShowConfig use case.
func (c *Container) ShowConfigUseCase() *usecase.ShowConfig {
	return usecase.NewShowConfig(c.ConfigManager, c.ConfigLoader)
}

// ShowConfigTemplateUseCase returns a new ShowConfigTemplate use case.
func (c *Container) ShowConfigTemplateUseCase() *usecase.ShowConfigTemplate {
	return usecase.NewShowConfigTemplate()
}

// InitConfigUseCase returns a new InitConfig use case.
func (c *Container) InitConfigUseCase() *usecase.InitConfig {
	return usecase.NewInitConfig(c.ConfigManager)
}
