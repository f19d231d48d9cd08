// Package cli implements the interactive billkeeper console: a small REPL
// over the backup engine's boundary operations.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"billkeeper/internal/backup"
	"billkeeper/internal/backup/filestore"
	"billkeeper/internal/config"
	"billkeeper/internal/logging"
	"billkeeper/internal/store"
)

type App struct {
	config  *config.Config
	manager *backup.Manager
	store   *store.Store
	log     logging.Logger
	reader  *bufio.Reader
}

func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	st, err := store.Open(ctx, c.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	files := filestore.NewManager(c.BackupDir)
	settings := store.NewSettingsRepository(st.DB())
	manager := backup.NewManager(st, settings, files, log, c.AppVersion)
	manager.SetProgress(func(p backup.Phase) {
		fmt.Printf("  ... %s\n", p)
	})

	return &App{
		config:  c,
		manager: manager,
		store:   st,
		log:     log,
		reader:  bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) Run(ctx context.Context) {
	defer a.Close()
	a.Root(ctx)
}

func (a *App) Close() {
	if err := a.store.Close(); err != nil {
		a.log.Warn(context.Background(), "error closing database", "error", err)
	}
}
