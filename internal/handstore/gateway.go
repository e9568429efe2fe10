package handstore

import (
	"context"
	"errors"
	"fmt"

	"AutoHoldem/internal/game/autoplay"
	"AutoHoldem/internal/game/table"
)

// TableGateway 把一张桌子的 Store 适配成 autoplay.Gateway
type TableGateway struct {
	store   Store
	tableID string
}

func NewTableGateway(store Store, tableID string) *TableGateway {
	return &TableGateway{store: store, tableID: tableID}
}

func (g *TableGateway) Persist(ctx context.Context, fromVersion int64, state *table.HandState, events []table.Event) (autoplay.Persisted, error) {
	rec, err := g.store.CompareAndSwap(ctx, g.tableID, fromVersion, state, events)
	switch {
	case err == nil:
		return autoplay.Persisted{Version: rec.Version, State: rec.State}, nil
	case errors.Is(err, ErrVersionConflict):
		return autoplay.Persisted{}, fmt.Errorf("%w: %w", autoplay.ErrConflict, err)
	case errors.Is(err, ErrUnavailable):
		return autoplay.Persisted{}, fmt.Errorf("%w: %w", autoplay.ErrUnavailable, err)
	default:
		return autoplay.Persisted{}, err
	}
}
