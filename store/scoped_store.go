package store

import (
	"errors"
	"sync"

	"code.cloudfoundry.org/lager/v3"
)

var ErrStoreReleased = errors.New("store connection already released")

// ScopedStore hands its Store to exactly one operation and closes it
// afterwards, whatever the operation did.
type ScopedStore struct {
	store  Store
	logger lager.Logger

	used bool
	lock *sync.Mutex
}

func NewScopedStore(store Store, logger lager.Logger) *ScopedStore {
	return &ScopedStore{
		store:  store,
		logger: logger,
		lock:   &sync.Mutex{},
	}
}

func (scoped *ScopedStore) Do(op func(Store) error) error {
	scoped.lock.Lock()
	if scoped.used {
		scoped.lock.Unlock()
		return ErrStoreReleased
	}
	scoped.used = true
	scoped.lock.Unlock()

	defer scoped.release()
	return op(scoped.store)
}

func (scoped *ScopedStore) release() {
	err := scoped.store.Close()
	if err != nil {
		scoped.logger.Error("release-failed", err)
	}
}

// WithStore opens a connection, runs op against it and releases it.
func WithStore(factory Factory, logger lager.Logger, op func(Store) error) error {
	store, err := factory.Open()
	if err != nil {
		return err
	}
	return NewScopedStore(store, logger).Do(op)
}
