package main

import (
	"io"
	"log"

	"github.com/golang/aetherresolve/repository"
	"github.com/golang/aetherresolve/syncctx"
)

// env is the composition root each subcommand's Run receives, mirroring the
// shape of the teacher's *dep.Ctx: output loggers plus the paths/flags every
// command needs, built once by main after global flag parsing.
//
// SyncBackend is process-lifetime, not per-resolution: every subcommand that
// builds a resolver.Session wires this same backend in, so that two
// resolutions run from one resolvectl invocation still serialize their
// writes into the shared local repository through one set of held locks,
// rather than each getting its own backend that can't see the other's
// in-flight install.
type env struct {
	Out     *log.Logger
	Err     *log.Logger
	Verbose bool

	LocalRepo   *repository.LocalRepositoryManager
	SyncBackend syncctx.Backend
}

func newEnv(stdout, stderr io.Writer, verbose bool, localRepo *repository.LocalRepositoryManager) *env {
	return &env{
		Out:         log.New(stdout, "", 0),
		Err:         log.New(stderr, "", 0),
		Verbose:     verbose,
		LocalRepo:   localRepo,
		SyncBackend: syncctx.NewInProcessBackend(),
	}
}
