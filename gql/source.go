package gql

import (
	"context"
	"fmt"

	"github.com/viant/afs"
)

// Source yields the authoritative schema text. Implementations are pure
// functions of their configuration; they hold no state between calls.
type Source func(ctx context.Context) (string, error)

// FileSource reads SDL from a local file or any afs-supported URL.
func FileSource(location string) Source {
	fs := afs.New()
	return func(ctx context.Context) (string, error) {
		data, err := fs.DownloadWithURL(ctx, location)
		if err != nil {
			return "", fmt.Errorf("read schema %v: %w", location, err)
		}
		return string(data), nil
	}
}

// IntrospectionSource fetches the schema from the endpoint via protocol
// introspection and renders it as SDL.
func IntrospectionSource(executor *Executor) Source {
	return func(ctx context.Context) (string, error) {
		return executor.Introspect(ctx)
	}
}
