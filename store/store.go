package store

import (
	"path"
	"sort"

	"code.cloudfoundry.org/lager/v3"
	"github.com/pnerg/restful-zookeeper-properties/models"
	"github.com/pnerg/restful-zookeeper-properties/storeadapter"
)

// Store is one open connection to the property store. Property sets live
// at <root>/<name>, one leaf per property at <root>/<name>/<key>.
type Store interface {
	PropertySetNames() ([]string, error)
	GetPropertySet(name string) (models.PropertySet, bool, error)
	SavePropertySet(set models.PropertySet) error
	DeletePropertySet(name string) error
	Close() error
}

type RealStore struct {
	rootPath string
	adapter  storeadapter.StoreAdapter
	logger   lager.Logger
}

func NewStore(rootPath string, adapter storeadapter.StoreAdapter, logger lager.Logger) *RealStore {
	return &RealStore{
		rootPath: path.Clean(rootPath),
		adapter:  adapter,
		logger:   logger,
	}
}

func (store *RealStore) propertySetKey(name string) string {
	return path.Join(store.rootPath, name)
}

func (store *RealStore) PropertySetNames() ([]string, error) {
	names, err := store.adapter.List(store.rootPath)
	if storeadapter.IsKeyNotFoundError(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	return names, nil
}

func (store *RealStore) GetPropertySet(name string) (models.PropertySet, bool, error) {
	node, err := store.adapter.ListRecursively(store.propertySetKey(name))
	if storeadapter.IsKeyNotFoundError(err) {
		return models.PropertySet{}, false, nil
	}
	if err != nil {
		return models.PropertySet{}, false, err
	}

	set := models.NewPropertySet(name)
	for _, child := range node.ChildNodes {
		if child.Dir {
			store.logger.Debug("skipping-nested-node", lager.Data{"key": child.Key})
			continue
		}
		set.Set(child.Name(), string(child.Value))
	}

	return set, true, nil
}

// SavePropertySet replaces whatever is stored under the set's name.
func (store *RealStore) SavePropertySet(set models.PropertySet) error {
	dirKey := store.propertySetKey(set.Name())

	keys := set.Keys()
	sort.Strings(keys)

	dir := storeadapter.StoreNode{
		Key:        dirKey,
		Dir:        true,
		Value:      []byte{},
		ChildNodes: make([]storeadapter.StoreNode, 0, len(keys)),
	}
	for _, key := range keys {
		value, _ := set.Get(key)
		dir.ChildNodes = append(dir.ChildNodes, storeadapter.StoreNode{
			Key:   path.Join(dirKey, key),
			Value: []byte(value),
		})
	}

	return store.adapter.SetDirectory(dir)
}

func (store *RealStore) DeletePropertySet(name string) error {
	err := store.adapter.Delete(store.propertySetKey(name))
	if storeadapter.IsKeyNotFoundError(err) {
		return nil
	}
	return err
}

func (store *RealStore) Close() error {
	return store.adapter.Disconnect()
}
