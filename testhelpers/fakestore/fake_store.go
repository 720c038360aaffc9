package fakestore

import (
	"sort"
	"sync"

	"github.com/pnerg/restful-zookeeper-properties/models"
	"github.com/pnerg/restful-zookeeper-properties/store"
)

type propertySets struct {
	sets map[string]models.PropertySet
	lock *sync.Mutex
}

// FakeStore keeps property sets in memory. Stores opened by the same
// FakeFactory share their property sets.
type FakeStore struct {
	PropertySetNamesError  error
	GetPropertySetError    error
	SavePropertySetError   error
	DeletePropertySetError error
	CloseError             error

	closeCount int
	data       *propertySets
	lock       *sync.Mutex
}

func NewFakeStore() *FakeStore {
	return newFakeStore(&propertySets{
		sets: map[string]models.PropertySet{},
		lock: &sync.Mutex{},
	})
}

func newFakeStore(data *propertySets) *FakeStore {
	return &FakeStore{
		data: data,
		lock: &sync.Mutex{},
	}
}

func (fake *FakeStore) CloseCount() int {
	fake.lock.Lock()
	defer fake.lock.Unlock()
	return fake.closeCount
}

func (fake *FakeStore) PropertySetNames() ([]string, error) {
	if fake.PropertySetNamesError != nil {
		return nil, fake.PropertySetNamesError
	}

	fake.data.lock.Lock()
	defer fake.data.lock.Unlock()

	names := []string{}
	for name := range fake.data.sets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (fake *FakeStore) GetPropertySet(name string) (models.PropertySet, bool, error) {
	if fake.GetPropertySetError != nil {
		return models.PropertySet{}, false, fake.GetPropertySetError
	}

	fake.data.lock.Lock()
	defer fake.data.lock.Unlock()

	set, found := fake.data.sets[name]
	if !found {
		return models.PropertySet{}, false, nil
	}
	return models.NewPropertySetWithProperties(name, set.AsMap()), true, nil
}

func (fake *FakeStore) SavePropertySet(set models.PropertySet) error {
	if fake.SavePropertySetError != nil {
		return fake.SavePropertySetError
	}

	fake.data.lock.Lock()
	defer fake.data.lock.Unlock()

	fake.data.sets[set.Name()] = models.NewPropertySetWithProperties(set.Name(), set.AsMap())
	return nil
}

func (fake *FakeStore) DeletePropertySet(name string) error {
	if fake.DeletePropertySetError != nil {
		return fake.DeletePropertySetError
	}

	fake.data.lock.Lock()
	defer fake.data.lock.Unlock()

	delete(fake.data.sets, name)
	return nil
}

func (fake *FakeStore) Close() error {
	fake.lock.Lock()
	defer fake.lock.Unlock()

	fake.closeCount++
	return fake.CloseError
}

// FakeFactory records every store it opens. PrepareStore, when set, sees
// each store before it is handed out.
type FakeFactory struct {
	OpenError    error
	PrepareStore func(*FakeStore)

	opened []*FakeStore
	data   *propertySets
	lock   *sync.Mutex
}

var _ store.Factory = &FakeFactory{}

func NewFakeFactory() *FakeFactory {
	return &FakeFactory{
		data: &propertySets{
			sets: map[string]models.PropertySet{},
			lock: &sync.Mutex{},
		},
		lock: &sync.Mutex{},
	}
}

func (factory *FakeFactory) Open() (store.Store, error) {
	factory.lock.Lock()
	defer factory.lock.Unlock()

	if factory.OpenError != nil {
		return nil, factory.OpenError
	}

	fake := newFakeStore(factory.data)
	if factory.PrepareStore != nil {
		factory.PrepareStore(fake)
	}
	factory.opened = append(factory.opened, fake)
	return fake, nil
}

func (factory *FakeFactory) OpenedStores() []*FakeStore {
	factory.lock.Lock()
	defer factory.lock.Unlock()
	return append([]*FakeStore{}, factory.opened...)
}

// Seed writes a set directly, without opening a store.
func (factory *FakeFactory) Seed(set models.PropertySet) {
	newFakeStore(factory.data).SavePropertySet(set)
}
