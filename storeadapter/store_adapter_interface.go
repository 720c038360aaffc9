package storeadapter

// StoreAdapter is one session against a hierarchical store. Keys are
// absolute slash separated paths. An adapter is connected once, used, and
// disconnected; it is not safe to reuse after Disconnect.
type StoreAdapter interface {
	Connect() error
	Disconnect() error

	// List returns the names of the immediate children of key, in the
	// order the store reports them.
	List(key string) ([]string, error)

	// ListRecursively returns key as a directory node with its subtree.
	ListRecursively(key string) (StoreNode, error)

	// SetDirectory makes dir.ChildNodes the complete set of children of
	// dir.Key, creating missing parents and removing stale children, in a
	// single store operation. Child nodes must be leaves.
	SetDirectory(dir StoreNode) error

	// Delete removes each key together with its subtree.
	Delete(keys ...string) error
}

type StoreNode struct {
	Key        string
	Value      []byte
	Dir        bool
	ChildNodes []StoreNode
}

func (node StoreNode) Lookup(childName string) (StoreNode, bool) {
	for _, child := range node.ChildNodes {
		if child.Name() == childName {
			return child, true
		}
	}
	return StoreNode{}, false
}

func (node StoreNode) Name() string {
	for i := len(node.Key) - 1; i >= 0; i-- {
		if node.Key[i] == '/' {
			return node.Key[i+1:]
		}
	}
	return node.Key
}
