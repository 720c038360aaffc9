package storeadapter

import (
	"context"
	"errors"
	"strings"
	"time"

	"code.cloudfoundry.org/lager/v3"
	"code.cloudfoundry.org/workpool"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ETCDMaxTxnOps matches etcd's default --max-txn-ops. SetDirectory writes a
// directory in one Txn, so a directory plus its stale children must fit.
const ETCDMaxTxnOps = 128

// ETCDStoreAdapter maps the hierarchy onto etcd's flat keyspace: a
// directory is a marker key holding the directory's value, and its
// children live under "<dir>/".
type ETCDStoreAdapter struct {
	urls              []string
	client            *clientv3.Client
	workPool          *workpool.WorkPool
	connectionTimeout time.Duration
	requestTimeout    time.Duration
	maxTxnOps         int
	logger            lager.Logger
}

func NewETCDStoreAdapter(urls []string, workPool *workpool.WorkPool, connectionTimeout time.Duration, requestTimeout time.Duration, logger lager.Logger) *ETCDStoreAdapter {
	return &ETCDStoreAdapter{
		urls:              urls,
		workPool:          workPool,
		connectionTimeout: connectionTimeout,
		requestTimeout:    requestTimeout,
		maxTxnOps:         ETCDMaxTxnOps,
		logger:            logger.Session("etcd"),
	}
}

func (adapter *ETCDStoreAdapter) Connect() error {
	client, err := clientv3.New(clientv3.Config{
		Endpoints:   adapter.urls,
		DialTimeout: adapter.connectionTimeout,
		Logger:      zap.NewNop(),
	})
	if err != nil {
		return adapter.translateError(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), adapter.connectionTimeout)
	defer cancel()

	_, err = client.Status(ctx, adapter.urls[0])
	if err != nil {
		adapter.logger.Error("status-failed", err, lager.Data{"urls": adapter.urls})
		client.Close()
		return adapter.translateError(err)
	}

	adapter.client = client
	return nil
}

func (adapter *ETCDStoreAdapter) Disconnect() error {
	adapter.workPool.Stop()
	if adapter.client != nil {
		return adapter.client.Close()
	}

	return nil
}

func (adapter *ETCDStoreAdapter) List(key string) ([]string, error) {
	ctx, cancel := adapter.requestContext()
	defer cancel()

	prefix := key + "/"
	response, err := adapter.client.Txn(ctx).Then(
		clientv3.OpGet(key, clientv3.WithCountOnly()),
		clientv3.OpGet(prefix, clientv3.WithPrefix(), clientv3.WithKeysOnly()),
	).Commit()
	if err != nil {
		return nil, adapter.translateError(err)
	}

	marker := response.Responses[0].GetResponseRange()
	children := response.Responses[1].GetResponseRange()
	if marker.Count == 0 && len(children.Kvs) == 0 {
		return nil, ErrorKeyNotFound
	}

	names := []string{}
	seen := map[string]bool{}
	for _, kv := range children.Kvs {
		name := strings.SplitN(strings.TrimPrefix(string(kv.Key), prefix), "/", 2)[0]
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}

	return names, nil
}

func (adapter *ETCDStoreAdapter) ListRecursively(key string) (StoreNode, error) {
	ctx, cancel := adapter.requestContext()
	defer cancel()

	prefix := key + "/"
	response, err := adapter.client.Txn(ctx).Then(
		clientv3.OpGet(key),
		clientv3.OpGet(prefix, clientv3.WithPrefix(), clientv3.WithSort(clientv3.SortByKey, clientv3.SortAscend)),
	).Commit()
	if err != nil {
		return StoreNode{}, adapter.translateError(err)
	}

	marker := response.Responses[0].GetResponseRange()
	children := response.Responses[1].GetResponseRange()
	if len(marker.Kvs) == 0 && len(children.Kvs) == 0 {
		return StoreNode{}, ErrorKeyNotFound
	}

	builder := newTreeBuilder(key)
	for _, kv := range children.Kvs {
		builder.add(strings.TrimPrefix(string(kv.Key), prefix), kv.Value)
	}

	return builder.buildDirectory(), nil
}

func (adapter *ETCDStoreAdapter) SetDirectory(dir StoreNode) error {
	err := validateDirectory(dir)
	if err != nil {
		return err
	}

	if len(dir.ChildNodes)+1 > adapter.maxTxnOps {
		return adapter.tooManyNodes(dir, len(dir.ChildNodes)+1)
	}

	ctx, cancel := adapter.requestContext()
	defer cancel()

	existing, err := adapter.client.Get(ctx, dir.Key+"/", clientv3.WithPrefix(), clientv3.WithKeysOnly())
	if err != nil {
		return adapter.translateError(err)
	}

	wanted := map[string]bool{}
	ops := []clientv3.Op{clientv3.OpPut(dir.Key, string(dir.Value))}
	for _, child := range dir.ChildNodes {
		wanted[child.Key] = true
		ops = append(ops, clientv3.OpPut(child.Key, string(child.Value)))
	}

	for _, kv := range existing.Kvs {
		if !wanted[string(kv.Key)] {
			ops = append(ops, clientv3.OpDelete(string(kv.Key)))
		}
	}

	if len(ops) > adapter.maxTxnOps {
		return adapter.tooManyNodes(dir, len(ops))
	}

	_, err = adapter.client.Txn(ctx).Then(ops...).Commit()
	if err != nil {
		adapter.logger.Error("set-directory-failed", err, lager.Data{"key": dir.Key, "ops": len(ops)})
	}
	return adapter.translateError(err)
}

func (adapter *ETCDStoreAdapter) Delete(keys ...string) error {
	results := make(chan error, len(keys))

	for _, key := range keys {
		key := key
		adapter.workPool.Submit(func() {
			results <- adapter.deleteSubtree(key)
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

	return err
}

func (adapter *ETCDStoreAdapter) deleteSubtree(key string) error {
	ctx, cancel := adapter.requestContext()
	defer cancel()

	response, err := adapter.client.Txn(ctx).Then(
		clientv3.OpDelete(key),
		clientv3.OpDelete(key+"/", clientv3.WithPrefix()),
	).Commit()
	if err != nil {
		return adapter.translateError(err)
	}

	var deleted int64
	for _, op := range response.Responses {
		deleted += op.GetResponseDeleteRange().Deleted
	}

	if deleted == 0 {
		return ErrorKeyNotFound
	}
	return nil
}

func (adapter *ETCDStoreAdapter) tooManyNodes(dir StoreNode, ops int) error {
	adapter.logger.Error("set-directory-too-large", ErrorTooManyNodes, lager.Data{"key": dir.Key, "ops": ops, "max-ops": adapter.maxTxnOps})
	return ErrorTooManyNodes
}

func (adapter *ETCDStoreAdapter) requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), adapter.requestTimeout)
}

func (adapter *ETCDStoreAdapter) translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrorTimeout
	}

	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrorTimeout
	case codes.Unauthenticated, codes.PermissionDenied:
		return ErrorAuthFailed
	}

	return err
}
