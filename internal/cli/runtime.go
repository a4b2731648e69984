package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/volunteer-board/internal/catalog"
	"github.com/nhle/volunteer-board/internal/credential"
	"github.com/nhle/volunteer-board/internal/lifecycle"
	"github.com/nhle/volunteer-board/internal/logging"
	"github.com/nhle/volunteer-board/internal/model"
	"github.com/nhle/volunteer-board/internal/notify"
	"github.com/nhle/volunteer-board/internal/reward"
	"github.com/nhle/volunteer-board/internal/source"
	"github.com/nhle/volunteer-board/internal/store"
	"github.com/nhle/volunteer-board/internal/theme"
)

// openVault opens the credential store. Tests replace it with an in-memory
// keyring.
var openVault = credential.Open

// runtime is the engine assembled from the config file for one command.
type runtime struct {
	cfg     *model.AppConfig
	logger  *slog.Logger
	loc     *time.Location
	now     func() time.Time
	catalog *catalog.Catalog
	svc     *lifecycle.Service

	closers []io.Closer
}

// Close releases resources in reverse order of acquisition.
func (r *runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// reconcile runs one lifecycle pass before a view is shown, so statuses
// and reminders are current. A failed pass is logged and the view is shown
// from what is stored.
func (r *runtime) reconcile(ctx context.Context) {
	report, err := r.svc.RunReconciliation(ctx, r.now())
	if err != nil {
		r.logger.Warn("reconciliation before view failed", "error", err)
		return
	}
	r.logger.Debug("reconciled before view",
		"transitions", len(report.Transitions), "fired", len(report.Fired), "failures", report.Failures)
}

// openRuntime loads the config and wires the store, catalog, inbox, point
// ledger and lifecycle service. logOut receives logs when no log file is
// configured.
func (o *rootOptions) openRuntime(cmd *cobra.Command, logOut io.Writer) (_ *runtime, err error) {
	cfg, err := model.LoadConfig(o.configPath)
	if err != nil {
		return nil, err
	}

	rt := &runtime{cfg: cfg}
	defer func() {
		if err != nil {
			_ = rt.Close()
		}
	}()

	logger, logCloser, err := logging.Open(cfg.Log, logOut)
	if err != nil {
		return nil, err
	}
	rt.logger = logger
	rt.closers = append(rt.closers, logCloser)

	if rt.loc, err = cfg.Lifecycle.Location(); err != nil {
		return nil, err
	}
	if rt.now, err = o.clock(rt.loc); err != nil {
		return nil, err
	}

	if cfg.Store.Path != ":memory:" {
		dir := filepath.Dir(cfg.Store.Path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory %s: %w", dir, err)
		}
	}
	s, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	rt.closers = append(rt.closers, s)

	src, err := newSource(cfg.Catalog)
	if err != nil {
		return nil, err
	}
	rt.catalog = catalog.New(src, rt.loc, logger)
	if err := rt.catalog.Refresh(cmd.Context()); err != nil {
		logger.Warn("catalog unavailable, continuing with an empty catalog", "source", src.Kind(), "error", err)
	}

	inbox, err := notify.NewService(cmd.Context(), s, logger)
	if err != nil {
		return nil, err
	}
	rt.closers = append(rt.closers, inbox)

	rt.svc = lifecycle.NewService(lifecycle.Deps{
		UserID:  cfg.User.ID,
		Store:   s,
		Catalog: rt.catalog,
		Inbox:   inbox,
		Points:  reward.NewPointLedger(s, logger),
	}, lifecycle.Options{
		Location:        rt.loc,
		EnforceCapacity: cfg.Lifecycle.EnforceCapacity,
		Logger:          logger,
	})

	theme.Apply(cfg.Display.Theme)
	return rt, nil
}

// newSource builds the configured catalog source, reading the feed token
// from the credential vault. A missing token yields an unauthenticated
// client.
func newSource(cfg model.CatalogConfig) (source.Source, error) {
	var token string
	if cfg.Source == model.CatalogSourceFeed {
		vault, err := openVault()
		if err != nil {
			return nil, err
		}
		token, err = vault.Get(credential.FeedTokenKey)
		if err != nil && !credential.IsNotFound(err) {
			return nil, err
		}
	}
	return catalog.NewSource(cfg, token)
}
