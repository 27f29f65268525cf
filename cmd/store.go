package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/crestline-group/recon-cli/internal/fetch"
	"github.com/crestline-group/recon-cli/internal/source"
	"github.com/crestline-group/recon-cli/internal/store"
)

// initStore opens the configured run-record backend. A nil store with a nil
// error means run recording is disabled.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "", "none":
		return nil, nil
	case "sqlite":
		return store.NewSQLite(cfg.Store.Path)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initLoader builds the source loader from the fetch configuration.
func initLoader() *source.Loader {
	opener := fetch.NewOpener(
		fetch.HTTPOptions{
			UserAgent:  cfg.Fetch.UserAgent,
			Timeout:    time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
			MaxRetries: cfg.Fetch.MaxRetries,
			RatePerSec: cfg.Fetch.RatePerSec,
		},
		fetch.FTPOptions{
			Timeout:  time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
			User:     cfg.Fetch.FTPUser,
			Password: cfg.Fetch.FTPPassword,
		},
	)
	return source.NewLoader(opener, source.Options{
		LoadTimeout: time.Duration(cfg.Run.LoadTimeoutSecs) * time.Second,
	})
}
