package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"
	"go.uber.org/zap"
)

// Run parses args, builds the service, reindexes the schema and serves until
// interrupted. A failed startup reindex is logged but does not prevent the
// server from starting; retrieval serves stale or empty results until the
// next successful reindex.
func Run(args []string) error {
	options := &Options{}
	if _, err := flags.ParseArgs(options, args); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	service, err := New(ctx, options)
	if err != nil {
		return err
	}
	defer func() {
		_ = service.logger.Sync()
	}()

	if err := service.Reindex(ctx); err != nil {
		service.logger.Warn("startup reindex failed, retrieval serves stale results", zap.Error(err))
	}
	return service.ListenAndServe(ctx)
}
