package gateway_test

import (
	"errors"

	"code.cloudfoundry.org/lager/v3/lagertest"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/pnerg/restful-zookeeper-properties/config"
	. "github.com/pnerg/restful-zookeeper-properties/gateway"
	"github.com/pnerg/restful-zookeeper-properties/models"
	"github.com/pnerg/restful-zookeeper-properties/store"
	"github.com/pnerg/restful-zookeeper-properties/storeadapter"
	"github.com/pnerg/restful-zookeeper-properties/testhelpers/fakestore"
	"github.com/pnerg/restful-zookeeper-properties/testhelpers/fakestoreadapter"
)

var _ = Describe("Gateway", func() {
	var (
		factory *fakestore.FakeFactory
		logger  *lagertest.TestLogger
		gateway *Gateway
	)

	exampleSet := func() models.PropertySet {
		return models.NewPropertySetWithProperties("example-set", map[string]string{"host": "localhost", "port": "6969"})
	}

	expectEveryStoreReleasedOnce := func() {
		for _, opened := range factory.OpenedStores() {
			Ω(opened.CloseCount()).Should(Equal(1))
		}
	}

	BeforeEach(func() {
		factory = fakestore.NewFakeFactory()
		logger = lagertest.NewTestLogger("test")
		gateway = New(factory, logger)
	})

	AfterEach(func() {
		expectEveryStoreReleasedOnce()
	})

	Describe("PropertySetNames", func() {
		It("is empty for an empty store", func() {
			names, err := gateway.PropertySetNames()
			Ω(err).ShouldNot(HaveOccurred())
			Ω(names).Should(BeEmpty())
		})

		It("contains exactly the stored names", func() {
			Ω(gateway.ReplacePropertySet(models.NewPropertySet("x"))).Should(Succeed())
			Ω(gateway.ReplacePropertySet(models.NewPropertySet("y"))).Should(Succeed())

			names, err := gateway.PropertySetNames()
			Ω(err).ShouldNot(HaveOccurred())
			Ω(names).Should(ConsistOf("x", "y"))
		})

		It("uses one connection", func() {
			gateway.PropertySetNames()
			Ω(factory.OpenedStores()).Should(HaveLen(1))
		})

		It("returns failures after releasing the connection", func() {
			factory.PrepareStore = func(fake *fakestore.FakeStore) {
				fake.PropertySetNamesError = storeadapter.ErrorTimeout
			}

			names, err := gateway.PropertySetNames()
			Ω(names).Should(BeNil())
			Ω(err).Should(Equal(storeadapter.ErrorTimeout))
			Ω(IsConnectivityFailure(err)).Should(BeTrue())
		})
	})

	Describe("GetPropertySet", func() {
		It("returns what was stored", func() {
			Ω(gateway.ReplacePropertySet(exampleSet())).Should(Succeed())

			set, found, err := gateway.GetPropertySet("example-set")
			Ω(err).ShouldNot(HaveOccurred())
			Ω(found).Should(BeTrue())
			Ω(set.Name()).Should(Equal("example-set"))

			host, ok := set.Get("host")
			Ω(ok).Should(BeTrue())
			Ω(host).Should(Equal("localhost"))

			port, ok := set.Get("port")
			Ω(ok).Should(BeTrue())
			Ω(port).Should(Equal("6969"))
		})

		It("reports never-written names as absent, not as a failure", func() {
			_, found, err := gateway.GetPropertySet("never-written")
			Ω(err).ShouldNot(HaveOccurred())
			Ω(found).Should(BeFalse())
		})

		It("rejects malformed names without opening a connection", func() {
			for _, name := range []string{"", "a/b", "/", ".."} {
				_, _, err := gateway.GetPropertySet(name)
				Ω(errors.Is(err, ErrMalformedInput)).Should(BeTrue(), name)
			}
			Ω(factory.OpenedStores()).Should(BeEmpty())
		})

		It("returns failures", func() {
			disaster := errors.New("oops")
			factory.PrepareStore = func(fake *fakestore.FakeStore) {
				fake.GetPropertySetError = disaster
			}

			_, found, err := gateway.GetPropertySet("s")
			Ω(err).Should(Equal(disaster))
			Ω(found).Should(BeFalse())
			Ω(IsConnectivityFailure(err)).Should(BeFalse())
		})
	})

	Describe("ReplacePropertySet", func() {
		It("stores exactly what was sent", func() {
			Ω(gateway.ReplacePropertySet(models.NewPropertySetWithProperties("s", map[string]string{"a": "1", "b": "2"}))).Should(Succeed())
			Ω(gateway.ReplacePropertySet(models.NewPropertySetWithProperties("s", map[string]string{"c": ""}))).Should(Succeed())

			set, _, err := gateway.GetPropertySet("s")
			Ω(err).ShouldNot(HaveOccurred())
			Ω(set.AsMap()).Should(Equal(map[string]string{"c": ""}))
		})

		It("rejects keys containing '/'", func() {
			err := gateway.ReplacePropertySet(models.NewPropertySetWithProperties("s", map[string]string{"a/b": "1"}))
			Ω(errors.Is(err, ErrMalformedInput)).Should(BeTrue())
			Ω(err.Error()).Should(ContainSubstring(`"a/b"`))
			Ω(factory.OpenedStores()).Should(BeEmpty())
		})

		It("rejects empty keys", func() {
			err := gateway.ReplacePropertySet(models.NewPropertySetWithProperties("s", map[string]string{"": "1"}))
			Ω(errors.Is(err, ErrMalformedInput)).Should(BeTrue())
		})

		It("returns failures", func() {
			factory.PrepareStore = func(fake *fakestore.FakeStore) {
				fake.SavePropertySetError = storeadapter.ErrorTimeout
			}

			Ω(gateway.ReplacePropertySet(exampleSet())).Should(Equal(storeadapter.ErrorTimeout))
		})
	})

	Describe("MergePropertySet", func() {
		It("overwrites collisions, adds new keys and keeps the rest", func() {
			Ω(gateway.ReplacePropertySet(models.NewPropertySetWithProperties("s", map[string]string{"a": "1", "b": "2"}))).Should(Succeed())

			Ω(gateway.MergePropertySet("s", map[string]string{"b": "3", "c": "4"})).Should(Succeed())

			set, _, err := gateway.GetPropertySet("s")
			Ω(err).ShouldNot(HaveOccurred())
			Ω(set.AsMap()).Should(Equal(map[string]string{"a": "1", "b": "3", "c": "4"}))
		})

		It("creates missing sets", func() {
			Ω(gateway.MergePropertySet("fresh", map[string]string{"a": "1"})).Should(Succeed())

			set, found, err := gateway.GetPropertySet("fresh")
			Ω(err).ShouldNot(HaveOccurred())
			Ω(found).Should(BeTrue())
			Ω(set.AsMap()).Should(Equal(map[string]string{"a": "1"}))
		})

		It("uses one connection to read and another to write", func() {
			Ω(gateway.MergePropertySet("s", map[string]string{"a": "1"})).Should(Succeed())
			Ω(factory.OpenedStores()).Should(HaveLen(2))
		})

		It("does not write when the read fails", func() {
			disaster := errors.New("oops")
			factory.PrepareStore = func(fake *fakestore.FakeStore) {
				fake.GetPropertySetError = disaster
			}

			Ω(gateway.MergePropertySet("s", map[string]string{"a": "1"})).Should(Equal(disaster))
			Ω(factory.OpenedStores()).Should(HaveLen(1))
		})

		It("returns write failures", func() {
			factory.PrepareStore = func(fake *fakestore.FakeStore) {
				fake.SavePropertySetError = storeadapter.ErrorTimeout
			}

			Ω(gateway.MergePropertySet("s", map[string]string{"a": "1"})).Should(Equal(storeadapter.ErrorTimeout))
			Ω(factory.OpenedStores()).Should(HaveLen(2))
		})

		It("rejects malformed input without touching the store", func() {
			Ω(errors.Is(gateway.MergePropertySet("", map[string]string{"a": "1"}), ErrMalformedInput)).Should(BeTrue())
			Ω(errors.Is(gateway.MergePropertySet("s", map[string]string{"x/y": "1"}), ErrMalformedInput)).Should(BeTrue())
			Ω(factory.OpenedStores()).Should(BeEmpty())
		})
	})

	Describe("DeletePropertySet", func() {
		It("deletes, after which the set is absent", func() {
			Ω(gateway.ReplacePropertySet(exampleSet())).Should(Succeed())
			Ω(gateway.DeletePropertySet("example-set")).Should(Succeed())

			_, found, err := gateway.GetPropertySet("example-set")
			Ω(err).ShouldNot(HaveOccurred())
			Ω(found).Should(BeFalse())
		})

		It("is idempotent", func() {
			Ω(gateway.DeletePropertySet("never-written")).Should(Succeed())
			Ω(gateway.DeletePropertySet("never-written")).Should(Succeed())
		})

		It("rejects malformed names", func() {
			Ω(errors.Is(gateway.DeletePropertySet("a/b"), ErrMalformedInput)).Should(BeTrue())
		})

		It("returns failures", func() {
			factory.PrepareStore = func(fake *fakestore.FakeStore) {
				fake.DeletePropertySetError = storeadapter.ErrorAuthFailed
			}

			err := gateway.DeletePropertySet("s")
			Ω(err).Should(Equal(storeadapter.ErrorAuthFailed))
			Ω(IsConnectivityFailure(err)).Should(BeTrue())
		})
	})

	Context("when the store cannot be opened", func() {
		BeforeEach(func() {
			factory.OpenError = store.ConnectivityError{Err: storeadapter.ErrorTimeout}
		})

		It("fails every operation with a connectivity failure", func() {
			_, err := gateway.PropertySetNames()
			Ω(IsConnectivityFailure(err)).Should(BeTrue())

			_, _, err = gateway.GetPropertySet("s")
			Ω(IsConnectivityFailure(err)).Should(BeTrue())

			Ω(IsConnectivityFailure(gateway.ReplacePropertySet(exampleSet()))).Should(BeTrue())
			Ω(IsConnectivityFailure(gateway.MergePropertySet("s", nil))).Should(BeTrue())
			Ω(IsConnectivityFailure(gateway.DeletePropertySet("s"))).Should(BeTrue())
		})
	})

	Context("when releasing the connection fails", func() {
		BeforeEach(func() {
			factory.PrepareStore = func(fake *fakestore.FakeStore) {
				fake.CloseError = errors.New("close failed")
			}
		})

		It("still succeeds and logs the release failure", func() {
			Ω(gateway.ReplacePropertySet(exampleSet())).Should(Succeed())
			Ω(logger.LogMessages()).Should(ContainElement("test.gateway.replace.release-failed"))
		})
	})

	It("logs each call in its own session", func() {
		gateway.GetPropertySet("example-set")
		Ω(logger.LogMessages()).Should(ContainElement("test.gateway.get.starting"))
		Ω(logger.LogMessages()).Should(ContainElement("test.gateway.get.finished"))
	})
})

var _ = Describe("Gateway over a store adapter", func() {
	var (
		adapter  *fakestoreadapter.FakeStoreAdapter
		adapters int
		gateway  *Gateway
	)

	BeforeEach(func() {
		conf, err := config.DefaultConfig()
		Ω(err).ShouldNot(HaveOccurred())

		adapter = fakestoreadapter.New()
		adapters = 0
		logger := lagertest.NewTestLogger("test")
		factory := store.NewFactoryWithAdapterProvider(conf, logger, func() (storeadapter.StoreAdapter, error) {
			adapters++
			return adapter, nil
		})
		gateway = New(factory, logger)
	})

	It("disconnects every connection it made exactly once, including on failures", func() {
		Ω(gateway.ReplacePropertySet(models.NewPropertySetWithProperties("s", map[string]string{"a": "1"}))).Should(Succeed())
		Ω(gateway.MergePropertySet("s", map[string]string{"b": "2"})).Should(Succeed())
		gateway.PropertySetNames()
		gateway.GetPropertySet("s")
		gateway.DeletePropertySet("s")

		adapter.ListErrInjector = fakestoreadapter.NewFakeStoreAdapterErrorInjector(".*", storeadapter.ErrorTimeout)
		adapter.ListRecursivelyErrInjector = fakestoreadapter.NewFakeStoreAdapterErrorInjector(".*", storeadapter.ErrorTimeout)
		adapter.SetDirectoryErrInjector = fakestoreadapter.NewFakeStoreAdapterErrorInjector(".*", storeadapter.ErrorTimeout)
		adapter.DeleteErrInjector = fakestoreadapter.NewFakeStoreAdapterErrorInjector(".*", storeadapter.ErrorTimeout)

		_, err := gateway.PropertySetNames()
		Ω(err).Should(HaveOccurred())
		_, _, err = gateway.GetPropertySet("s")
		Ω(err).Should(HaveOccurred())
		Ω(gateway.ReplacePropertySet(models.NewPropertySet("s"))).ShouldNot(Succeed())
		Ω(gateway.MergePropertySet("s", nil)).ShouldNot(Succeed())
		Ω(gateway.DeletePropertySet("s")).ShouldNot(Succeed())

		adapter.ConnectErr = storeadapter.ErrorTimeout
		_, err = gateway.PropertySetNames()
		Ω(IsConnectivityFailure(err)).Should(BeTrue())

		Ω(adapter.ConnectCount()).Should(Equal(adapters))
		Ω(adapter.DisconnectCount()).Should(Equal(adapters))
	})

	It("lists sets under a root configured with a trailing slash", func() {
		conf, err := config.DefaultConfig()
		Ω(err).ShouldNot(HaveOccurred())
		conf.StoreRootPath = "/etc/properties/"
		Ω(conf.Validate()).Should(Succeed())

		logger := lagertest.NewTestLogger("test")
		factory := store.NewFactoryWithAdapterProvider(conf, logger, func() (storeadapter.StoreAdapter, error) {
			return adapter, nil
		})
		gateway = New(factory, logger)

		Ω(gateway.ReplacePropertySet(models.NewPropertySetWithProperties("x", map[string]string{"a": "1"}))).Should(Succeed())
		Ω(gateway.ReplacePropertySet(models.NewPropertySetWithProperties("y", map[string]string{"b": "2"}))).Should(Succeed())

		names, err := gateway.PropertySetNames()
		Ω(err).ShouldNot(HaveOccurred())
		Ω(names).Should(ConsistOf("x", "y"))

		node, err := adapter.ListRecursively("/etc/properties/x")
		Ω(err).ShouldNot(HaveOccurred())
		Ω(node.ChildNodes).Should(HaveLen(1))
	})

	It("loses an update when two merges interleave", func() {
		Ω(gateway.ReplacePropertySet(models.NewPropertySetWithProperties("s", map[string]string{"a": "1"}))).Should(Succeed())

		interleaved := false
		adapter.OnSetDirectory = func(storeadapter.StoreNode) {
			if interleaved {
				return
			}
			interleaved = true
			Ω(gateway.MergePropertySet("s", map[string]string{"c": "3"})).Should(Succeed())
		}

		Ω(gateway.MergePropertySet("s", map[string]string{"b": "2"})).Should(Succeed())

		set, _, err := gateway.GetPropertySet("s")
		Ω(err).ShouldNot(HaveOccurred())
		Ω(set.AsMap()).Should(Equal(map[string]string{"a": "1", "b": "2"}))
	})
})
