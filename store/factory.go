package store

import (
	"fmt"

	"code.cloudfoundry.org/clock"
	"code.cloudfoundry.org/lager/v3"
	"code.cloudfoundry.org/workpool"
	"github.com/pnerg/restful-zookeeper-properties/config"
	"github.com/pnerg/restful-zookeeper-properties/storeadapter"
)

type Factory interface {
	Open() (Store, error)
}

// AdapterProvider builds a fresh, unconnected adapter for every Open.
type AdapterProvider func() (storeadapter.StoreAdapter, error)

// ConnectivityError means no connection to the store could be made.
type ConnectivityError struct {
	Err error
}

func (e ConnectivityError) Error() string {
	return fmt.Sprintf("failed to connect to the store: %s", e.Err)
}

func (e ConnectivityError) Unwrap() error {
	return e.Err
}

// StoreFactory is immutable once built and may be shared between
// goroutines.
type StoreFactory struct {
	rootPath        string
	adapterProvider AdapterProvider
	logger          lager.Logger
}

func NewFactory(conf config.Config, logger lager.Logger) *StoreFactory {
	return NewFactoryWithAdapterProvider(conf, logger, func() (storeadapter.StoreAdapter, error) {
		return NewAdapter(conf, clock.NewClock(), logger)
	})
}

func NewFactoryWithAdapterProvider(conf config.Config, logger lager.Logger, adapterProvider AdapterProvider) *StoreFactory {
	return &StoreFactory{
		rootPath:        conf.RootPath(),
		adapterProvider: adapterProvider,
		logger:          logger.Session("store-factory"),
	}
}

func (factory *StoreFactory) Open() (Store, error) {
	adapter, err := factory.adapterProvider()
	if err != nil {
		factory.logger.Error("build-adapter-failed", err)
		return nil, ConnectivityError{Err: err}
	}

	err = adapter.Connect()
	if err != nil {
		factory.logger.Error("connect-failed", err)
		disconnectErr := adapter.Disconnect()
		if disconnectErr != nil {
			factory.logger.Error("release-failed", disconnectErr)
		}
		return nil, ConnectivityError{Err: err}
	}

	return NewStore(factory.rootPath, adapter, factory.logger), nil
}

// NewAdapter builds the adapter for the configured backend. ZooKeeper and
// etcd adapters get their own work pool, stopped on Disconnect.
func NewAdapter(conf config.Config, clock clock.Clock, logger lager.Logger) (storeadapter.StoreAdapter, error) {
	connectTimeout := conf.StoreConnectTimeout()
	requestTimeout := conf.StoreRequestTimeout()
	if requestTimeout == 0 {
		requestTimeout = connectTimeout
	}

	switch conf.StoreBackend {
	case config.StoreBackendZookeeper, "":
		workPool, err := workpool.NewWorkPool(conf.StoreMaxConcurrentRequests)
		if err != nil {
			return nil, err
		}
		return storeadapter.NewZookeeperStoreAdapter(conf.StoreURLs, workPool, clock, connectTimeout, logger), nil
	case config.StoreBackendETCD:
		workPool, err := workpool.NewWorkPool(conf.StoreMaxConcurrentRequests)
		if err != nil {
			return nil, err
		}
		return storeadapter.NewETCDStoreAdapter(conf.StoreURLs, workPool, connectTimeout, requestTimeout, logger), nil
	case config.StoreBackendBBolt:
		return storeadapter.NewBBoltStoreAdapter(conf.BBoltPath, connectTimeout, logger), nil
	default:
		return nil, fmt.Errorf("unknown store backend: %q", conf.StoreBackend)
	}
}
