package storeadapter

import (
	"path"
	"strings"
)

func validateDirectory(dir StoreNode) error {
	if !isAbsoluteKey(dir.Key) || dir.Key == "/" {
		return ErrorInvalidNodeName
	}

	for _, child := range dir.ChildNodes {
		if child.Dir || len(child.ChildNodes) > 0 {
			return ErrorNodeIsDirectory
		}
		if path.Dir(child.Key) != dir.Key || child.Name() == "" {
			return ErrorInvalidNodeName
		}
	}

	return nil
}

func isAbsoluteKey(key string) bool {
	return strings.HasPrefix(key, "/") && path.Clean(key) == key
}

func splitKey(key string) []string {
	trimmed := strings.Trim(key, "/")
	if trimmed == "" {
		return []string{}
	}
	return strings.Split(trimmed, "/")
}

// treeBuilder assembles a StoreNode tree out of flat key/value pairs, for
// stores that have no native notion of directories.
type treeBuilder struct {
	node     StoreNode
	children map[string]*treeBuilder
	order    []string
}

func newTreeBuilder(key string) *treeBuilder {
	return &treeBuilder{
		node:     StoreNode{Key: key, Value: []byte{}},
		children: map[string]*treeBuilder{},
	}
}

func (builder *treeBuilder) add(relativeKey string, value []byte) {
	segments := splitKey(relativeKey)
	if len(segments) == 0 {
		return
	}

	current := builder
	for _, segment := range segments {
		current.node.Dir = true
		current = current.child(segment)
	}
	current.node.Value = value
}

func (builder *treeBuilder) child(name string) *treeBuilder {
	child, ok := builder.children[name]
	if !ok {
		child = newTreeBuilder(path.Join(builder.node.Key, name))
		builder.children[name] = child
		builder.order = append(builder.order, name)
	}
	return child
}

func (builder *treeBuilder) build() StoreNode {
	node := builder.node
	if !node.Dir {
		return node
	}

	node.Value = []byte{}
	node.ChildNodes = make([]StoreNode, 0, len(builder.order))
	for _, name := range builder.order {
		node.ChildNodes = append(node.ChildNodes, builder.children[name].build())
	}
	return node
}

func (builder *treeBuilder) buildDirectory() StoreNode {
	builder.node.Dir = true
	return builder.build()
}
