package storeadapter_test

import (
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	. "github.com/pnerg/restful-zookeeper-properties/storeadapter"
)

var _ = Describe("Store Errors", func() {
	It("can make a KeyNotFound error", func() {
		err := NewStoreError(StoreErrorKeyNotFound)
		Ω(IsKeyNotFoundError(err)).Should(BeTrue())
		Ω(IsKeyNotFoundError(errors.New("foo"))).Should(BeFalse())
		Ω(err).Should(Equal(ErrorKeyNotFound))
	})

	It("can make an IsDirectory error", func() {
		err := NewStoreError(StoreErrorIsDirectory)
		Ω(IsDirectoryError(err)).Should(BeTrue())
		Ω(IsDirectoryError(errors.New("foo"))).Should(BeFalse())
	})

	It("can make an IsNotDirectory error", func() {
		err := NewStoreError(StoreErrorIsNotDirectory)
		Ω(IsNotDirectoryError(err)).Should(BeTrue())
		Ω(IsNotDirectoryError(errors.New("foo"))).Should(BeFalse())
	})

	It("can make a Timeout error", func() {
		err := NewStoreError(StoreErrorTimeout)
		Ω(IsTimeoutError(err)).Should(BeTrue())
		Ω(IsTimeoutError(errors.New("foo"))).Should(BeFalse())
	})

	It("can make a TooManyNodes error", func() {
		err := NewStoreError(StoreErrorTooManyNodes)
		Ω(IsTooManyNodesError(err)).Should(BeTrue())
		Ω(IsTooManyNodesError(ErrorTimeout)).Should(BeFalse())
		Ω(err).Should(Equal(ErrorTooManyNodes))
	})

	It("sees through wrapping", func() {
		err := fmt.Errorf("reading /etc/properties: %w", ErrorTimeout)
		Ω(IsTimeoutError(err)).Should(BeTrue())
		Ω(errors.Is(err, ErrorTimeout)).Should(BeTrue())
	})

	It("treats timeouts and failed authentication as unreachable", func() {
		Ω(IsUnreachableError(ErrorTimeout)).Should(BeTrue())
		Ω(IsUnreachableError(ErrorAuthFailed)).Should(BeTrue())
		Ω(IsUnreachableError(ErrorKeyNotFound)).Should(BeFalse())
		Ω(IsUnreachableError(nil)).Should(BeFalse())
	})

	It("prints its reason", func() {
		Ω(ErrorTimeout.Error()).Should(Equal("Timeout Reaching Store"))
	})
})
