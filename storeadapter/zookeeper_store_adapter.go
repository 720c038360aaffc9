package storeadapter

import (
	"fmt"
	"path"
	"time"

	"code.cloudfoundry.org/clock"
	"code.cloudfoundry.org/lager/v3"
	"code.cloudfoundry.org/workpool"
	"github.com/samuel/go-zookeeper/zk"
)

type ZookeeperStoreAdapter struct {
	urls              []string
	client            *zk.Conn
	workPool          *workpool.WorkPool
	clock             clock.Clock
	connectionTimeout time.Duration
	logger            lager.Logger
}

func NewZookeeperStoreAdapter(urls []string, workPool *workpool.WorkPool, clock clock.Clock, connectionTimeout time.Duration, logger lager.Logger) *ZookeeperStoreAdapter {
	return &ZookeeperStoreAdapter{
		urls:              urls,
		workPool:          workPool,
		clock:             clock,
		connectionTimeout: connectionTimeout,
		logger:            logger.Session("zookeeper"),
	}
}

// Connect blocks until the client holds a session, the session is
// refused, or the connection timeout elapses.
func (adapter *ZookeeperStoreAdapter) Connect() error {
	client, events, err := zk.Connect(adapter.urls, adapter.connectionTimeout, zk.WithLogger(&zookeeperLogger{logger: adapter.logger}))
	if err != nil {
		return err
	}

	timer := adapter.clock.NewTimer(adapter.connectionTimeout)
	defer timer.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				client.Close()
				return ErrorTimeout
			}

			switch event.State {
			case zk.StateHasSession:
				adapter.client = client
				return nil
			case zk.StateAuthFailed:
				client.Close()
				return ErrorAuthFailed
			}
		case <-timer.C():
			adapter.logger.Info("connect-timed-out", lager.Data{"urls": adapter.urls, "timeout": adapter.connectionTimeout.String()})
			client.Close()
			return ErrorTimeout
		}
	}
}

func (adapter *ZookeeperStoreAdapter) Disconnect() error {
	adapter.workPool.Stop()
	if adapter.client != nil {
		adapter.client.Close()
	}

	return nil
}

func (adapter *ZookeeperStoreAdapter) List(key string) ([]string, error) {
	children, _, err := adapter.client.Children(key)
	if err != nil {
		return nil, adapter.translateError(err)
	}

	return children, nil
}

func (adapter *ZookeeperStoreAdapter) ListRecursively(key string) (StoreNode, error) {
	children, _, err := adapter.client.Children(key)
	if err != nil {
		return StoreNode{}, adapter.translateError(err)
	}

	type fetched struct {
		node        StoreNode
		hasChildren bool
		err         error
	}

	results := make([]fetched, len(children))
	done := make(chan struct{}, len(children))

	for i, child := range children {
		i := i
		childKey := path.Join(key, child)
		adapter.workPool.Submit(func() {
			data, stat, err := adapter.client.Get(childKey)
			results[i] = fetched{
				node:        StoreNode{Key: childKey, Value: data},
				hasChildren: err == nil && stat.NumChildren > 0,
				err:         err,
			}
			done <- struct{}{}
		})
	}

	for range children {
		<-done
	}

	dir := StoreNode{Key: key, Dir: true, Value: []byte{}, ChildNodes: []StoreNode{}}
	for _, result := range results {
		if result.err == zk.ErrNoNode {
			continue
		}
		if result.err != nil {
			return StoreNode{}, adapter.translateError(result.err)
		}

		if !result.hasChildren {
			if result.node.Value == nil {
				result.node.Value = []byte{}
			}
			dir.ChildNodes = append(dir.ChildNodes, result.node)
			continue
		}

		subtree, err := adapter.ListRecursively(result.node.Key)
		if IsKeyNotFoundError(err) {
			continue
		}
		if err != nil {
			return StoreNode{}, err
		}
		dir.ChildNodes = append(dir.ChildNodes, subtree)
	}

	return dir, nil
}

func (adapter *ZookeeperStoreAdapter) SetDirectory(dir StoreNode) error {
	err := validateDirectory(dir)
	if err != nil {
		return err
	}

	acl := zk.WorldACL(zk.PermAll)

	err = adapter.createParents(path.Dir(dir.Key), acl)
	if err != nil {
		return adapter.translateError(err)
	}

	ops, err := adapter.deleteOps(dir.Key)
	if err == zk.ErrNoNode {
		ops = []interface{}{}
	} else if err != nil {
		return adapter.translateError(err)
	}

	ops = append(ops, &zk.CreateRequest{Path: dir.Key, Data: nonNil(dir.Value), Acl: acl})
	for _, child := range dir.ChildNodes {
		ops = append(ops, &zk.CreateRequest{Path: child.Key, Data: nonNil(child.Value), Acl: acl})
	}

	_, err = adapter.client.Multi(ops...)
	if err != nil {
		adapter.logger.Error("set-directory-failed", err, lager.Data{"key": dir.Key, "ops": len(ops)})
	}
	return adapter.translateError(err)
}

func (adapter *ZookeeperStoreAdapter) Delete(keys ...string) error {
	results := make(chan error, len(keys))

	for _, key := range keys {
		key := key
		adapter.workPool.Submit(func() {
			ops, err := adapter.deleteOps(key)
			if err == nil {
				_, err = adapter.client.Multi(ops...)
			}
			results <- err
		})
	}

	var err error
	numReceived := 0
	for numReceived < len(keys) {
		result := <-results
		numReceived++
		if err == nil {
			err = result
		}
	}

	return adapter.translateError(err)
}

// deleteOps lists the subtree under key and returns the delete requests
// for it, deepest nodes first.
func (adapter *ZookeeperStoreAdapter) deleteOps(key string) ([]interface{}, error) {
	children, _, err := adapter.client.Children(key)
	if err != nil {
		return nil, err
	}

	ops := []interface{}{}
	for _, child := range children {
		childOps, err := adapter.deleteOps(path.Join(key, child))
		if err == zk.ErrNoNode {
			continue
		}
		if err != nil {
			return nil, err
		}
		ops = append(ops, childOps...)
	}

	return append(ops, &zk.DeleteRequest{Path: key, Version: -1}), nil
}

func (adapter *ZookeeperStoreAdapter) createParents(key string, acl []zk.ACL) error {
	if key == "/" {
		return nil
	}

	exists, _, err := adapter.client.Exists(key)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	err = adapter.createParents(path.Dir(key), acl)
	if err != nil {
		return err
	}

	_, err = adapter.client.Create(key, []byte{}, 0, acl)
	if err == zk.ErrNodeExists {
		return nil
	}
	return err
}

func (adapter *ZookeeperStoreAdapter) translateError(err error) error {
	switch err {
	case nil:
		return nil
	case zk.ErrNoNode:
		return ErrorKeyNotFound
	case zk.ErrConnectionClosed, zk.ErrNoServer, zk.ErrSessionExpired, zk.ErrClosing:
		return ErrorTimeout
	case zk.ErrNoAuth, zk.ErrAuthFailed:
		return ErrorAuthFailed
	}
	return err
}

func nonNil(value []byte) []byte {
	if value == nil {
		return []byte{}
	}
	return value
}

type zookeeperLogger struct {
	logger lager.Logger
}

func (l *zookeeperLogger) Printf(format string, args ...interface{}) {
	l.logger.Debug("client", lager.Data{"message": fmt.Sprintf(format, args...)})
}
