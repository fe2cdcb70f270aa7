package api

import (
	"net/http"

	"github.com/JaimeStill/enricher/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	runtime *Runtime,
	domain *Domain,
	guards []func(http.Handler) http.Handler,
) {
	runsGroup := domain.Runs.Handler(runtime.MaxUploadSize).Routes()
	runsGroup.Middleware = guards

	storageGroup := newStorageHandler(runtime.Storage, runtime.Logger).routes()
	storageGroup.Middleware = guards

	routes.Register(mux, runsGroup, storageGroup)
}
