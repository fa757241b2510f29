// -----------------------------------------------------------------------
// Last Modified: Wednesday, 14th October 2026 10:05:00 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mailticket/internal/common"
	"github.com/ternarybob/mailticket/internal/handlers"
	"github.com/ternarybob/mailticket/internal/interfaces"
	"github.com/ternarybob/mailticket/internal/services/browser"
	"github.com/ternarybob/mailticket/internal/services/extractor"
	"github.com/ternarybob/mailticket/internal/services/fields"
	"github.com/ternarybob/mailticket/internal/services/imap"
	"github.com/ternarybob/mailticket/internal/services/jira"
	"github.com/ternarybob/mailticket/internal/services/status"
	"github.com/ternarybob/mailticket/internal/services/ticket"
	"github.com/ternarybob/mailticket/internal/storage"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	// Services
	JiraClient       *jira.Client
	ExtractorService *extractor.Service
	FieldService     *fields.Service
	TicketService    *ticket.Service
	StatusService    *status.Service
	IMAPService      *imap.Service
	BrowserService   *browser.Service

	// HTTP handlers
	ExtractHandler    *handlers.ExtractHandler
	TicketHandler     *handlers.TicketHandler
	FieldHandler      *handlers.FieldHandler
	ConnectionHandler *handlers.ConnectionHandler
	StatusHandler     *handlers.StatusHandler
	SettingsHandler   *handlers.SettingsHandler
}

// New initializes the application: storage, services, then handlers
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := app.initServices(); err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.initHandlers()

	logger.Info().
		Str("jira", cfg.Jira.BaseURL).
		Str("default_project", cfg.Jira.DefaultProject).
		Bool("imap_configured", app.IMAPService.IsConfigured()).
		Msg("Application initialization complete")

	return app, nil
}

// initDatabase initializes the storage layer (Badger) and seeds configured fields
func (a *App) initDatabase() error {
	storageManager, err := storage.NewStorageManager(a.Logger, a.Config)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}
	a.StorageManager = storageManager

	if seed := a.Config.Fields.SeedFile; seed != "" {
		// Log warning but don't fail startup
		if err := a.StorageManager.LoadFieldsFromFile(context.Background(), seed); err != nil {
			a.Logger.Warn().Err(err).Str("file", seed).Msg("Failed to load fields from file")
		}
	}

	return nil
}

// initServices initializes all business services in dependency order
func (a *App) initServices() error {
	a.JiraClient = jira.NewClientFromConfig(a.Config.Jira, a.Logger)

	extractorOpts := []extractor.Option{
		extractor.WithBodyFormat(extractor.BodyFormat(a.Config.Ticket.BodyFormat)),
	}
	if path := a.Config.Extraction.SelectorsFile; path != "" {
		set, err := extractor.LoadSelectorOverrides(extractor.DefaultSelectors(), path)
		if err != nil {
			return fmt.Errorf("failed to load selector overrides: %w", err)
		}
		extractorOpts = append(extractorOpts, extractor.WithSelectors(set))
		a.Logger.Info().Str("file", path).Msg("Selector overrides loaded")
	}
	a.ExtractorService = extractor.NewService(a.Logger, extractorOpts...)

	a.FieldService = fields.NewService(
		a.JiraClient,
		a.StorageManager.FieldStorage(),
		a.StorageManager.FieldCacheStorage(),
		a.Config.Jira.Email,
		a.Config.Jira.DefaultProject,
		a.Config.Fields.CacheTTL.Duration,
		a.Logger,
	)

	a.TicketService = ticket.NewService(
		a.JiraClient,
		a.StorageManager.FieldStorage(),
		a.StorageManager.KeyValueStorage(),
		ticket.Settings{
			DefaultProject:      a.Config.Jira.DefaultProject,
			DefaultIssueType:    a.Config.Jira.DefaultIssueType,
			DescriptionTemplate: a.Config.Ticket.DescriptionTemplate,
		},
		a.Logger,
	)

	a.StatusService = status.NewService(a.Logger)
	a.IMAPService = imap.NewService(a.Config.IMAP, a.Logger)
	a.BrowserService = browser.NewService(a.Config.Browser, a.Logger)

	return nil
}

// initHandlers wires the HTTP handlers onto the services
func (a *App) initHandlers() {
	var capturer handlers.PageCapturer
	if a.Config.Browser.DebugURL != "" {
		capturer = a.BrowserService
	}

	a.ExtractHandler = handlers.NewExtractHandler(a.ExtractorService, a.TicketService, capturer, a.StatusService, a.Logger)
	a.TicketHandler = handlers.NewTicketHandler(a.TicketService, a.Logger)
	a.FieldHandler = handlers.NewFieldHandler(a.FieldService, a.Logger)
	a.ConnectionHandler = handlers.NewConnectionHandler(a.JiraClient, a.Logger)
	a.StatusHandler = handlers.NewStatusHandler(a.StatusService, a.Logger)
	a.SettingsHandler = handlers.NewSettingsHandler(a.StorageManager.KeyValueStorage(), a.Logger)
}

// Close releases the storage
func (a *App) Close() error {
	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("Storage closed")
	}
	return nil
}
