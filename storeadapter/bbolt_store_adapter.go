package storeadapter

import (
	"bytes"
	"errors"
	"path"
	"time"

	"code.cloudfoundry.org/lager/v3"
	bolt "go.etcd.io/bbolt"
)

// BBoltStoreAdapter keeps the hierarchy in a local bbolt file: every path
// segment of a directory is a nested bucket and leaves are bucket keys.
// Directory values are not kept. The file lock makes concurrent adapters
// on the same file take turns, bounded by the connection timeout.
type BBoltStoreAdapter struct {
	path              string
	connectionTimeout time.Duration
	db                *bolt.DB
	logger            lager.Logger
}

func NewBBoltStoreAdapter(path string, connectionTimeout time.Duration, logger lager.Logger) *BBoltStoreAdapter {
	return &BBoltStoreAdapter{
		path:              path,
		connectionTimeout: connectionTimeout,
		logger:            logger.Session("bbolt"),
	}
}

func (adapter *BBoltStoreAdapter) Connect() error {
	db, err := bolt.Open(adapter.path, 0600, &bolt.Options{Timeout: adapter.connectionTimeout})
	if errors.Is(err, bolt.ErrTimeout) {
		return ErrorTimeout
	}
	if err != nil {
		return err
	}

	adapter.db = db
	return nil
}

func (adapter *BBoltStoreAdapter) Disconnect() error {
	if adapter.db == nil {
		return nil
	}
	return adapter.db.Close()
}

// bucketParent is what *bolt.Tx and *bolt.Bucket have in common.
type bucketParent interface {
	Bucket(name []byte) *bolt.Bucket
	CreateBucketIfNotExists(name []byte) (*bolt.Bucket, error)
	CreateBucket(name []byte) (*bolt.Bucket, error)
	DeleteBucket(name []byte) error
}

func (adapter *BBoltStoreAdapter) List(key string) ([]string, error) {
	names := []string{}

	err := adapter.db.View(func(tx *bolt.Tx) error {
		bucket, err := adapter.findBucket(tx, key)
		if err != nil {
			return err
		}

		return bucket.ForEach(func(name, _ []byte) error {
			names = append(names, string(name))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return names, nil
}

func (adapter *BBoltStoreAdapter) ListRecursively(key string) (StoreNode, error) {
	var dir StoreNode

	err := adapter.db.View(func(tx *bolt.Tx) error {
		bucket, err := adapter.findBucket(tx, key)
		if err != nil {
			return err
		}

		dir, err = adapter.readBucket(key, bucket)
		return err
	})

	return dir, err
}

func (adapter *BBoltStoreAdapter) SetDirectory(dir StoreNode) error {
	err := validateDirectory(dir)
	if err != nil {
		return err
	}

	return adapter.db.Update(func(tx *bolt.Tx) error {
		parent, err := adapter.createBuckets(tx, path.Dir(dir.Key))
		if err != nil {
			return err
		}

		name := []byte(dir.Name())
		if parent.Bucket(name) != nil {
			err = parent.DeleteBucket(name)
			if err != nil {
				return err
			}
		} else if isLeaf(parent, name) {
			return ErrorNodeIsNotDirectory
		}

		bucket, err := parent.CreateBucket(name)
		if err != nil {
			return err
		}

		for _, child := range dir.ChildNodes {
			err = bucket.Put([]byte(child.Name()), nonNil(child.Value))
			if err != nil {
				return err
			}
		}

		return nil
	})
}

func (adapter *BBoltStoreAdapter) Delete(keys ...string) error {
	return adapter.db.Update(func(tx *bolt.Tx) error {
		for _, key := range keys {
			if !isAbsoluteKey(key) || key == "/" {
				return ErrorInvalidNodeName
			}

			parent, err := adapter.findParent(tx, path.Dir(key))
			if err != nil {
				return err
			}

			name := []byte(path.Base(key))
			switch {
			case parent.Bucket(name) != nil:
				err = parent.DeleteBucket(name)
			case isLeaf(parent, name):
				err = parent.(*bolt.Bucket).Delete(name)
			default:
				err = ErrorKeyNotFound
			}

			if err != nil {
				return err
			}
		}

		return nil
	})
}

func (adapter *BBoltStoreAdapter) readBucket(key string, bucket *bolt.Bucket) (StoreNode, error) {
	dir := StoreNode{Key: key, Dir: true, Value: []byte{}, ChildNodes: []StoreNode{}}

	err := bucket.ForEach(func(name, value []byte) error {
		childKey := path.Join(key, string(name))

		nested := bucket.Bucket(name)
		if nested == nil {
			dir.ChildNodes = append(dir.ChildNodes, StoreNode{
				Key:   childKey,
				Value: append([]byte{}, value...),
			})
			return nil
		}

		child, err := adapter.readBucket(childKey, nested)
		if err != nil {
			return err
		}
		dir.ChildNodes = append(dir.ChildNodes, child)
		return nil
	})

	return dir, err
}

func (adapter *BBoltStoreAdapter) findBucket(tx *bolt.Tx, key string) (*bolt.Bucket, error) {
	segments := splitKey(key)
	if len(segments) == 0 {
		return nil, ErrorInvalidNodeName
	}

	var parent bucketParent = tx
	var bucket *bolt.Bucket
	for _, segment := range segments {
		bucket = parent.Bucket([]byte(segment))
		if bucket == nil {
			if isLeaf(parent, []byte(segment)) {
				return nil, ErrorNodeIsNotDirectory
			}
			return nil, ErrorKeyNotFound
		}
		parent = bucket
	}

	return bucket, nil
}

func (adapter *BBoltStoreAdapter) findParent(tx *bolt.Tx, key string) (bucketParent, error) {
	if key == "/" {
		return tx, nil
	}
	return adapter.findBucket(tx, key)
}

func (adapter *BBoltStoreAdapter) createBuckets(tx *bolt.Tx, key string) (bucketParent, error) {
	var parent bucketParent = tx
	for _, segment := range splitKey(key) {
		bucket, err := parent.CreateBucketIfNotExists([]byte(segment))
		if errors.Is(err, bolt.ErrIncompatibleValue) {
			return nil, ErrorNodeIsNotDirectory
		}
		if err != nil {
			return nil, err
		}
		parent = bucket
	}
	return parent, nil
}

func isLeaf(parent bucketParent, name []byte) bool {
	bucket, ok := parent.(*bolt.Bucket)
	if !ok {
		return false
	}
	key, _ := bucket.Cursor().Seek(name)
	return bytes.Equal(key, name) && bucket.Bucket(name) == nil
}
