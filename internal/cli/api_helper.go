package cli

import (
	"context"
	"fmt"
	nethttp "net/http"
	"time"

	"github.com/filedash/filedash/internal/api"
	"github.com/filedash/filedash/internal/auth"
	"github.com/filedash/filedash/internal/cloud"
	"github.com/filedash/filedash/internal/config"
	"github.com/filedash/filedash/internal/events"
	"github.com/filedash/filedash/internal/http"
	"github.com/filedash/filedash/internal/logging"
	"github.com/filedash/filedash/internal/progress"
	"github.com/filedash/filedash/internal/services"
	"github.com/filedash/filedash/internal/state"
	"github.com/filedash/filedash/internal/transform"
)

// app is everything a command needs, wired from config and global flags.
type app struct {
	cfg        *config.Config
	session    auth.Session
	tokenFrom  string
	client     *api.Client
	httpClient *nethttp.Client
	source     cloud.Source
	urls       *transform.Builder
	eventBus   *events.EventBus
	listing    *state.Listing
	uploads    *services.UploadService
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if apiBaseURL != "" {
		cfg.APIBaseURL = apiBaseURL
	}
	if userID != "" {
		cfg.UserID = userID
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// resolveSession finds the token and derives the user from it.
func resolveSession(cfg *config.Config) (auth.Session, string, error) {
	tok, from := config.ResolveTokenSource(token, tokenFile, cfg)
	session, err := auth.NewSession(tok, cfg.UserID)
	if err != nil {
		return auth.Session{}, "", fmt.Errorf("%w (use --token, --token-file, 'filedash config init' or %s)", err, config.TokenEnvVar)
	}
	if session.Expired(time.Now()) {
		GetLogger().Warn().Time("expires", session.ExpiresAt).Msg("bearer token has expired; requests will likely be rejected")
	}
	return session, from, nil
}

// appOptions tunes newApp for the command at hand.
type appOptions struct {
	// Logger defaults to the CLI logger on stderr.
	Logger *logging.Logger
	// UploadProgress picks the reporter for each upload; nil means none.
	UploadProgress func(name string) progress.Reporter
	// RefreshOnChange reloads the listing after uploads and folder creation.
	RefreshOnChange bool
}

// newApp builds the API client, content source and controllers.
func newApp(opts appOptions) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	session, from, err := resolveSession(cfg)
	if err != nil {
		return nil, err
	}

	httpClient, err := http.ConfigureHTTPClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to configure HTTP client: %w", err)
	}
	client, err := api.NewClient(cfg, session.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}

	log := opts.Logger
	if log == nil {
		log = GetLogger()
	}
	client.SetLogger(log)
	source := cloud.NewRouter(cfg, httpClient)
	source.SetLogger(log)

	a := &app{
		cfg:        cfg,
		session:    session,
		tokenFrom:  from,
		client:     client,
		httpClient: httpClient,
		source:     source,
		urls:       transform.NewBuilder(cfg.TransformURL),
		eventBus:   events.NewEventBus(0),
	}
	a.listing = state.NewListing(state.ListingOptions{
		Gateway:   client,
		Source:    a.source,
		Transform: a.urls,
		EventBus:  a.eventBus,
		Logger:    log,
		Session:   session,
	})

	var onComplete func(ctx context.Context) error
	if opts.RefreshOnChange {
		onComplete = a.listing.BumpRefresh
	}
	a.uploads = services.NewUploadService(services.UploadServiceOptions{
		Client:     client,
		EventBus:   a.eventBus,
		Logger:     log,
		Session:    session,
		Progress:   opts.UploadProgress,
		OnComplete: onComplete,
	})
	return a, nil
}

// openFolder loads root and descends through folderPath, naming each level
// after the entry found in its parent.
func (a *app) openFolder(ctx context.Context, folderPath []string) error {
	if err := a.listing.Load(ctx); err != nil {
		return err
	}
	for _, id := range folderPath {
		name := id
		if e, ok := a.listing.Entry(id); ok {
			if !e.IsFolder {
				return fmt.Errorf("%s (%s) is not a folder", e.Name, id)
			}
			name = e.Name
		}
		if err := a.listing.NavigateInto(ctx, id, name); err != nil {
			return err
		}
	}
	return nil
}
