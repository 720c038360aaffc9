package propertiesd

import (
	"fmt"
	"io"
	"sort"

	"code.cloudfoundry.org/clock"
	"code.cloudfoundry.org/lager/v3"
	"github.com/pnerg/restful-zookeeper-properties/config"
	"github.com/pnerg/restful-zookeeper-properties/store"
	"github.com/pnerg/restful-zookeeper-properties/storeadapter"
)

// Dump prints every leaf under the root path, one "key: value" per line,
// without going through the property set model.
func Dump(logger lager.Logger, conf config.Config, out io.Writer) error {
	adapter, err := store.NewAdapter(conf, clock.NewClock(), logger)
	if err != nil {
		return err
	}

	return connectAndDump(logger.Session("dump"), adapter, conf.RootPath(), out)
}

func connectAndDump(logger lager.Logger, adapter storeadapter.StoreAdapter, root string, out io.Writer) error {
	err := adapter.Connect()
	if err != nil {
		logger.Error("connect-failed", err)
		release(logger, adapter)
		return store.ConnectivityError{Err: err}
	}
	defer release(logger, adapter)

	return dump(adapter, root, out)
}

func release(logger lager.Logger, adapter storeadapter.StoreAdapter) {
	err := adapter.Disconnect()
	if err != nil {
		logger.Error("release-failed", err)
	}
}

func dump(adapter storeadapter.StoreAdapter, root string, out io.Writer) error {
	entries := sort.StringSlice{}
	err := Walk(adapter, root, func(node storeadapter.StoreNode) {
		entries = append(entries, fmt.Sprintf("%s: %s", node.Key, node.Value))
	})
	if err != nil {
		return err
	}

	sort.Sort(entries)
	for _, entry := range entries {
		fmt.Fprintln(out, entry)
	}
	return nil
}

// Walk calls callback for every leaf below dirKey. A missing dirKey has
// no leaves.
func Walk(adapter storeadapter.StoreAdapter, dirKey string, callback func(storeadapter.StoreNode)) error {
	node, err := adapter.ListRecursively(dirKey)
	if storeadapter.IsKeyNotFoundError(err) {
		return nil
	}
	if err != nil {
		return err
	}

	walk(node, callback)
	return nil
}

func walk(node storeadapter.StoreNode, callback func(storeadapter.StoreNode)) {
	for _, child := range node.ChildNodes {
		if child.Dir {
			walk(child, callback)
		} else {
			callback(child)
		}
	}
}
