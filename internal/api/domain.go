package api

import (
	"github.com/JaimeStill/enricher/internal/runs"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Runs runs.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	return &Domain{
		Runs: runs.New(
			runtime.Database.Pool(),
			runtime.Storage,
			runtime.Queue,
			runtime.Logger,
			runtime.Pagination,
		),
	}
}
