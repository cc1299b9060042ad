package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iska-scrum/iska/internal/app"
	iskaerrors "github.com/iska-scrum/iska/internal/errors"
)

// withApp opens the app for the duration of fn.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := app.Open(ctx, cfgFile)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	return fn(ctx, a)
}

// get calls a store getter and turns its (nil, nil) not-found result into
// a NOT_FOUND error.
func get[T any](ctx context.Context, kind string, id int64, getter func(context.Context, int64) (*T, error)) (*T, error) {
	v, err := getter(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get %s %d: %w", kind, id, err)
	}
	if v == nil {
		return nil, iskaerrors.ErrNotFound(kind, id)
	}
	return v, nil
}

// idArg parses positional argument i as an id.
func idArg(args []string, i int, what string) (int64, error) {
	return parseID(args[i], what)
}
