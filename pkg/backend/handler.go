package backend

import (
	"io"
	"net/http"
	"strings"

	"github.com/arthur-debert/objstore/pkg/errors"
	"github.com/arthur-debert/objstore/pkg/logging"
)

// maxBlobSize bounds request bodies accepted by the handler.
const maxBlobSize = 256 << 20

// NewHandler serves b with the protocol Remote speaks. Mount it with
// http.StripPrefix when the store does not live at the server root.
func NewHandler(b Backend) http.Handler {
	logger := logging.GetLogger("backend.http")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/")
		ctx := r.Context()

		if name == "" {
			if r.Method != http.MethodDelete {
				http.Error(w, "blob name required", http.StatusBadRequest)
				return
			}
			if err := b.Clear(ctx); err != nil {
				writeError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}

		if err := ValidateName(name); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		logger.Trace().Str("method", r.Method).Str("blob", name).Msg("Serving blob request")

		switch r.Method {
		case http.MethodGet:
			data, err := b.Retrieve(ctx, name)
			if err != nil {
				writeError(w, err)
				return
			}
			w.Header().Set("Content-Type", "application/octet-stream")
			_, _ = w.Write(data)

		case http.MethodHead:
			ok, err := b.Exists(ctx, name)
			if err != nil {
				writeError(w, err)
				return
			}
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.WriteHeader(http.StatusOK)

		case http.MethodPut:
			data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBlobSize))
			if err != nil {
				http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
				return
			}
			if err := b.Persist(ctx, name, data); err != nil {
				writeError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)

		case http.MethodDelete:
			if err := b.Remove(ctx, name); err != nil {
				writeError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)

		default:
			w.Header().Set("Allow", "GET, HEAD, PUT, DELETE")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
}

func writeError(w http.ResponseWriter, err error) {
	switch errors.GetErrorCode(err) {
	case errors.ErrNotFound:
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.ErrInvalidInput:
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
