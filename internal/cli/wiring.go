package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/goliatone/go-formcollect/internal/config"
	"github.com/goliatone/go-formcollect/pkg/formdef"
	"github.com/goliatone/go-formcollect/pkg/logger"
	"github.com/goliatone/go-formcollect/pkg/render"
	"github.com/goliatone/go-formcollect/pkg/sink"
)

// loadDefinition resolves the form from an OpenAPI operation, a definition
// document or the embedded signup form, in that order, then applies the
// configured overlay.
func loadDefinition(ctx context.Context, cfg config.FormConfig) (formdef.Definition, error) {
	def, err := resolveDefinition(ctx, cfg)
	if err != nil {
		return formdef.Definition{}, err
	}

	path := strings.TrimSpace(cfg.OverlayFile)
	if path == "" {
		return def, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return formdef.Definition{}, fmt.Errorf("cli: read overlay %s: %w", path, err)
	}
	overlays, err := formdef.LoadOverlays(raw, path)
	if err != nil {
		return formdef.Definition{}, err
	}
	overlay, ok := overlays.For(def.ID)
	if !ok {
		return def, nil
	}
	return overlay.Apply(def)
}

func resolveDefinition(ctx context.Context, cfg config.FormConfig) (formdef.Definition, error) {
	if path := strings.TrimSpace(cfg.OpenAPIFile); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return formdef.Definition{}, fmt.Errorf("cli: read openapi %s: %w", path, err)
		}
		return formdef.FromOpenAPI(ctx, raw, cfg.OperationID)
	}

	store, err := formdef.DefaultStore()
	if path := strings.TrimSpace(cfg.DefinitionFile); path != "" {
		raw, readErr := os.ReadFile(path)
		if readErr != nil {
			return formdef.Definition{}, fmt.Errorf("cli: read definition %s: %w", path, readErr)
		}
		store, err = formdef.Load(raw, path)
	}
	if err != nil {
		return formdef.Definition{}, err
	}

	id := strings.TrimSpace(cfg.FormID)
	if id == "" {
		ids := store.IDs()
		if len(ids) != 1 {
			return formdef.Definition{}, fmt.Errorf("cli: form.form_id is required, choose one of %s", strings.Join(ids, ", "))
		}
		id = ids[0]
	}
	def, ok := store.Form(id)
	if !ok {
		return formdef.Definition{}, fmt.Errorf("cli: form %q not found, available: %s", id, strings.Join(store.IDs(), ", "))
	}
	return def, nil
}

// buildSink opens every configured sink. The returned close func releases
// database handles and is safe to call when building failed.
func buildSink(ctx context.Context, cfg *config.Config, def formdef.Definition, lggr logger.Logger) (sink.Sink, func() error, error) {
	var (
		sinks   []sink.Sink
		closers []func() error
	)
	closeAll := func() error {
		var errs []error
		for _, fn := range closers {
			errs = append(errs, fn())
		}
		return errors.Join(errs...)
	}

	for _, kind := range cfg.Sink.Kinds {
		switch kind {
		case config.SinkLog:
			sinks = append(sinks, sink.NewLog(lggr, def.Secrets()))
		case config.SinkHTTP:
			httpCfg := cfg.Sink.HTTP
			target, err := sink.NewHTTP(httpCfg.URL,
				sink.WithHTTPClient(&http.Client{Timeout: httpCfg.Timeout}),
				sink.WithAttempts(httpCfg.Attempts),
				sink.WithDelay(httpCfg.Delay),
				sink.WithHTTPLogger(lggr),
			)
			if err != nil {
				return nil, closeAll, err
			}
			sinks = append(sinks, target)
		case config.SinkSQL:
			sqlCfg := cfg.Sink.SQL
			db, err := sql.Open(sqlCfg.Driver, sqlCfg.DSN)
			if err != nil {
				return nil, closeAll, fmt.Errorf("cli: open %s database: %w", sqlCfg.Driver, err)
			}
			closers = append(closers, db.Close)
			target, err := sink.NewSQL(db, sqlCfg.Table, def.Secrets())
			if err != nil {
				return nil, closeAll, err
			}
			if err := target.Migrate(ctx); err != nil {
				return nil, closeAll, err
			}
			sinks = append(sinks, target)
		default:
			return nil, closeAll, fmt.Errorf("cli: unknown sink kind %q", kind)
		}
	}

	if len(sinks) == 1 {
		return sinks[0], closeAll, nil
	}
	return sink.Multi(sinks...), closeAll, nil
}

func themeSelector() (*render.StaticSelector, error) {
	return render.NewStaticSelector("default", "light", render.DefaultManifest())
}
