package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	signupcomponent "github.com/goliatone/go-formcollect/components/signup"
	"github.com/goliatone/go-formcollect/pkg/render"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the signup form over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Override the configured listen address")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	srv, cleanup, err := a.newServer(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := cleanup(); err != nil {
			a.lggr.Warnw("closing sinks failed", "err", err)
		}
	}()

	errChan := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()
	a.lggr.Infow("listening", "addr", srv.Addr, "form", a.cfg.Form.FormID, "sinks", a.cfg.Sink.Kinds)

	select {
	case err := <-errChan:
		return fmt.Errorf("cli: listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownGrace)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("cli: shutdown: %w", err)
	}
	a.lggr.Infow("server stopped")
	return nil
}

// newServer assembles the HTTP server without starting it.
func (a *app) newServer(ctx context.Context) (*http.Server, func() error, error) {
	noop := func() error { return nil }

	def, err := loadDefinition(ctx, a.cfg.Form)
	if err != nil {
		return nil, noop, err
	}

	target, cleanup := a.deps.Sink, noop
	if target == nil {
		target, cleanup, err = buildSink(ctx, a.cfg, def, a.lggr)
		if err != nil {
			return nil, noop, errors.Join(err, cleanup())
		}
	}

	selector, err := themeSelector()
	if err != nil {
		return nil, noop, errors.Join(err, cleanup())
	}
	renderer, err := render.NewDefaultPageRenderer()
	if err != nil {
		return nil, noop, errors.Join(err, cleanup())
	}

	component := signupcomponent.New(
		signupcomponent.WithDefinition(def),
		signupcomponent.WithSink(target),
		signupcomponent.WithEnforceConstraints(a.cfg.Form.EnforceConstraints),
		signupcomponent.WithLogger(a.lggr),
		signupcomponent.WithRenderer(renderer),
		signupcomponent.WithTheme(selector, a.cfg.Theme.Name, a.cfg.Theme.Variant),
		signupcomponent.WithRoutePath("/"),
	)

	mux := http.NewServeMux()
	if _, err := component.RegisterRoutes(mux, a.cfg.Server.BasePath); err != nil {
		return nil, noop, errors.Join(err, cleanup())
	}
	mux.Handle(render.AssetsPrefix+"/", http.StripPrefix(render.AssetsPrefix+"/", http.FileServerFS(render.AssetsFS())))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	readHeaderTimeout := a.cfg.Server.ReadHeaderTimeout
	if readHeaderTimeout <= 0 {
		readHeaderTimeout = 5 * time.Second
	}
	srv := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return srv, cleanup, nil
}
