package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/JaimeStill/enricher/pkg/handlers"
	"github.com/JaimeStill/enricher/pkg/routes"
	"github.com/JaimeStill/enricher/pkg/storage"
)

const archivePrefix = "runs/"

type blobReader interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// storageHandler serves archived payloads and result documents by key.
type storageHandler struct {
	store  blobReader
	logger *slog.Logger
}

func newStorageHandler(store blobReader, logger *slog.Logger) *storageHandler {
	return &storageHandler{
		store:  store,
		logger: logger.With("handler", "storage"),
	}
}

func (h *storageHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/storage",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/download/{key...}", Handler: h.download},
		},
	}
}

func (h *storageHandler) download(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if !strings.HasPrefix(key, archivePrefix) {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: %s", storage.ErrInvalidKey, key))
		return
	}

	data, err := h.store.Get(r.Context(), key)
	if err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}

	contentType := http.DetectContentType(data)
	if path.Ext(key) == ".json" {
		contentType = "application/json"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", path.Base(key)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
