package fakestoreadapter

import (
	"path"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/pnerg/restful-zookeeper-properties/storeadapter"
)

type FakeStoreAdapterErrorInjector struct {
	KeyRegexp *regexp.Regexp
	Error     error
}

func NewFakeStoreAdapterErrorInjector(keyRegexp string, err error) *FakeStoreAdapterErrorInjector {
	return &FakeStoreAdapterErrorInjector{
		KeyRegexp: regexp.MustCompile(keyRegexp),
		Error:     err,
	}
}

func (injector *FakeStoreAdapterErrorInjector) errorFor(key string) error {
	if injector != nil && injector.KeyRegexp.MatchString(key) {
		return injector.Error
	}
	return nil
}

type fakeNode struct {
	value []byte
	dir   bool
}

// FakeStoreAdapter is an in-memory hierarchy that behaves like the
// ZooKeeper backend. It is safe for concurrent use.
type FakeStoreAdapter struct {
	ConnectErr                 error
	DisconnectErr              error
	ListErrInjector            *FakeStoreAdapterErrorInjector
	ListRecursivelyErrInjector *FakeStoreAdapterErrorInjector
	SetDirectoryErrInjector    *FakeStoreAdapterErrorInjector
	DeleteErrInjector          *FakeStoreAdapterErrorInjector

	// OnSetDirectory, when set, runs before a SetDirectory is applied.
	OnSetDirectory func(dir storeadapter.StoreNode)

	connectCount    int
	disconnectCount int
	nodes           map[string]*fakeNode
	lock            *sync.Mutex
}

func New() *FakeStoreAdapter {
	adapter := &FakeStoreAdapter{lock: &sync.Mutex{}}
	adapter.Reset()
	return adapter
}

func (adapter *FakeStoreAdapter) Reset() {
	adapter.lock.Lock()
	defer adapter.lock.Unlock()

	adapter.ConnectErr = nil
	adapter.DisconnectErr = nil
	adapter.ListErrInjector = nil
	adapter.ListRecursivelyErrInjector = nil
	adapter.SetDirectoryErrInjector = nil
	adapter.DeleteErrInjector = nil
	adapter.OnSetDirectory = nil

	adapter.connectCount = 0
	adapter.disconnectCount = 0
	adapter.nodes = map[string]*fakeNode{}
}

func (adapter *FakeStoreAdapter) ConnectCount() int {
	adapter.lock.Lock()
	defer adapter.lock.Unlock()
	return adapter.connectCount
}

func (adapter *FakeStoreAdapter) DisconnectCount() int {
	adapter.lock.Lock()
	defer adapter.lock.Unlock()
	return adapter.disconnectCount
}

func (adapter *FakeStoreAdapter) Connect() error {
	adapter.lock.Lock()
	defer adapter.lock.Unlock()

	adapter.connectCount++
	return adapter.ConnectErr
}

func (adapter *FakeStoreAdapter) Disconnect() error {
	adapter.lock.Lock()
	defer adapter.lock.Unlock()

	adapter.disconnectCount++
	return adapter.DisconnectErr
}

func (adapter *FakeStoreAdapter) List(key string) ([]string, error) {
	adapter.lock.Lock()
	defer adapter.lock.Unlock()

	if err := adapter.ListErrInjector.errorFor(key); err != nil {
		return nil, err
	}

	if _, present := adapter.nodes[key]; !present {
		return nil, storeadapter.ErrorKeyNotFound
	}

	names := []string{}
	for _, childKey := range adapter.childKeys(key) {
		names = append(names, path.Base(childKey))
	}
	return names, nil
}

func (adapter *FakeStoreAdapter) ListRecursively(key string) (storeadapter.StoreNode, error) {
	adapter.lock.Lock()
	defer adapter.lock.Unlock()

	if err := adapter.ListRecursivelyErrInjector.errorFor(key); err != nil {
		return storeadapter.StoreNode{}, err
	}

	if _, present := adapter.nodes[key]; !present {
		return storeadapter.StoreNode{}, storeadapter.ErrorKeyNotFound
	}

	return adapter.subtree(key, true), nil
}

func (adapter *FakeStoreAdapter) SetDirectory(dir storeadapter.StoreNode) error {
	adapter.lock.Lock()
	onSet := adapter.OnSetDirectory
	adapter.lock.Unlock()

	if onSet != nil {
		onSet(dir)
	}

	adapter.lock.Lock()
	defer adapter.lock.Unlock()

	if err := adapter.SetDirectoryErrInjector.errorFor(dir.Key); err != nil {
		return err
	}

	if !path.IsAbs(dir.Key) || path.Clean(dir.Key) != dir.Key || dir.Key == "/" {
		return storeadapter.ErrorInvalidNodeName
	}
	for _, child := range dir.ChildNodes {
		if child.Dir || len(child.ChildNodes) > 0 {
			return storeadapter.ErrorNodeIsDirectory
		}
		if path.Dir(child.Key) != dir.Key || path.Base(child.Key) == "" {
			return storeadapter.ErrorInvalidNodeName
		}
	}

	adapter.deleteSubtree(dir.Key)

	for parent := path.Dir(dir.Key); parent != "/"; parent = path.Dir(parent) {
		if _, present := adapter.nodes[parent]; !present {
			adapter.nodes[parent] = &fakeNode{value: []byte{}, dir: true}
		}
		adapter.nodes[parent].dir = true
	}

	adapter.nodes[dir.Key] = &fakeNode{value: copyBytes(dir.Value), dir: true}
	for _, child := range dir.ChildNodes {
		adapter.nodes[child.Key] = &fakeNode{value: copyBytes(child.Value)}
	}

	return nil
}

func (adapter *FakeStoreAdapter) Delete(keys ...string) error {
	adapter.lock.Lock()
	defer adapter.lock.Unlock()

	for _, key := range keys {
		if err := adapter.DeleteErrInjector.errorFor(key); err != nil {
			return err
		}

		if _, present := adapter.nodes[key]; !present {
			return storeadapter.ErrorKeyNotFound
		}
		adapter.deleteSubtree(key)
	}

	return nil
}

func (adapter *FakeStoreAdapter) childKeys(key string) []string {
	keys := []string{}
	for nodeKey := range adapter.nodes {
		if nodeKey != key && path.Dir(nodeKey) == key {
			keys = append(keys, nodeKey)
		}
	}
	sort.Strings(keys)
	return keys
}

func (adapter *FakeStoreAdapter) subtree(key string, top bool) storeadapter.StoreNode {
	node := adapter.nodes[key]
	children := adapter.childKeys(key)

	if !top && !node.dir && len(children) == 0 {
		return storeadapter.StoreNode{Key: key, Value: copyBytes(node.value)}
	}

	dir := storeadapter.StoreNode{Key: key, Dir: true, Value: []byte{}, ChildNodes: []storeadapter.StoreNode{}}
	for _, childKey := range children {
		dir.ChildNodes = append(dir.ChildNodes, adapter.subtree(childKey, false))
	}
	return dir
}

func (adapter *FakeStoreAdapter) deleteSubtree(key string) {
	for nodeKey := range adapter.nodes {
		if nodeKey == key || strings.HasPrefix(nodeKey, key+"/") {
			delete(adapter.nodes, nodeKey)
		}
	}
}

func copyBytes(value []byte) []byte {
	return append([]byte{}, value...)
}
