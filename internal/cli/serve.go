package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/objstore/pkg/backend"
	"github.com/arthur-debert/objstore/pkg/errors"
	"github.com/arthur-debert/objstore/pkg/paths"
)

const shutdownGrace = 5 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:     "serve <dir>",
		Short:   MsgServeShort,
		Long:    MsgServeLong,
		Example: MsgServeExample,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := paths.ExpandHome(args[0])
			info, err := os.Stat(root)
			if err != nil {
				return errors.Wrapf(err, errors.ErrInvalidInput, MsgErrServeRoot, root)
			}
			if !info.IsDir() {
				return errors.Newf(errors.ErrInvalidInput, MsgErrServeRoot+": not a directory", root)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := &http.Server{
				Addr:              addr,
				Handler:           newStoresHandler(root),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()
			a.renderer.Success(MsgServing, root, addr)
			log.Info().Str("root", root).Str("addr", addr).Msg("Serving stores")

			select {
			case err := <-errCh:
				return errors.Wrapf(err, errors.ErrBackendFailure, MsgErrServeRoot, root)
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
			defer cancel()
			log.Info().Msg("Shutting down")
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8420", MsgFlagAddr)
	return cmd
}

// newStoresHandler serves every store directory under root. The first
// path segment selects the store, the rest is the blob name.
func newStoresHandler(root string) http.Handler {
	var (
		mu       sync.Mutex
		handlers = map[string]http.Handler{}
	)

	handlerFor := func(name string) http.Handler {
		mu.Lock()
		defer mu.Unlock()
		h, ok := handlers[name]
		if !ok {
			h = http.StripPrefix("/"+name, backend.NewHandler(backend.NewOSLocal(filepath.Join(root, name))))
			handlers[name] = h
		}
		return h
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name, _, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")
		if name == "" || name == "." || name == ".." || strings.ContainsRune(name, '\\') {
			http.Error(w, "store name required", http.StatusBadRequest)
			return
		}
		handlerFor(name).ServeHTTP(w, r)
	})
}
