// Package notation expands short notations ("pls", "tmrw") into their long
// forms using a persisted lookup table.
package notation

import (
	"context"
	"log/slog"
	"strings"
)

// Store looks up a long form by its lowercased short form. A missing entry
// is reported with ok == false and a nil error.
type Store interface {
	Lookup(ctx context.Context, shortForm string) (longForm string, ok bool, err error)
	Ping(ctx context.Context) error
}

type Resolver struct {
	store Store
}

func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns the long form for token, or token itself when there is no
// entry or the store fails. It never returns an error.
func (r *Resolver) Resolve(ctx context.Context, token string) string {
	if r == nil || r.store == nil || token == "" {
		return token
	}

	longForm, ok, err := r.store.Lookup(ctx, strings.ToLower(token))
	if err != nil {
		slog.Warn("[NotationLookup] Lookup failed, keeping original token",
			slog.String("token", token),
			slog.String("error", err.Error()))
		return token
	}
	if !ok {
		return token
	}
	return longForm
}
