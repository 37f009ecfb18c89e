// internal/snapshot/store.go
package snapshot

import (
	"context"
	"errors"

	"github.com/ecterceocgan/deck-divide-dollar/service/internal/training"
)

// Store persists training snapshots.
type Store interface {
	Save(ctx context.Context, snap training.Snapshot) error
	Close() error
}

type multi []Store

// Multi fans each snapshot out to every store in order. Every store is
// attempted; failures are joined.
func Multi(stores ...Store) Store {
	return multi(stores)
}

func (m multi) Save(ctx context.Context, snap training.Snapshot) error {
	var errs []error
	for _, s := range m {
		if err := s.Save(ctx, snap); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
