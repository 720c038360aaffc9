package storeadapter

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("treeBuilder", func() {
	It("builds nested directories out of flat keys", func() {
		builder := newTreeBuilder("/menu")
		builder.add("breakfast", []byte{})
		builder.add("breakfast/pancakes", []byte("tasty"))
		builder.add("breakfast/waffles", []byte("delish"))
		builder.add("oj", []byte("sweet"))

		Ω(builder.buildDirectory()).Should(Equal(StoreNode{
			Key:   "/menu",
			Dir:   true,
			Value: []byte{},
			ChildNodes: []StoreNode{
				{
					Key:   "/menu/breakfast",
					Dir:   true,
					Value: []byte{},
					ChildNodes: []StoreNode{
						{Key: "/menu/breakfast/pancakes", Value: []byte("tasty")},
						{Key: "/menu/breakfast/waffles", Value: []byte("delish")},
					},
				},
				{Key: "/menu/oj", Value: []byte("sweet")},
			},
		}))
	})

	It("builds an empty directory", func() {
		Ω(newTreeBuilder("/menu").buildDirectory()).Should(Equal(StoreNode{
			Key:        "/menu",
			Dir:        true,
			Value:      []byte{},
			ChildNodes: []StoreNode{},
		}))
	})
})

var _ = Describe("validateDirectory", func() {
	It("accepts leaf children directly below the directory", func() {
		Ω(validateDirectory(StoreNode{
			Key:        "/etc/properties/db",
			ChildNodes: []StoreNode{{Key: "/etc/properties/db/host"}},
		})).Should(Succeed())
	})

	It("rejects the root and unclean keys", func() {
		Ω(validateDirectory(StoreNode{Key: "/"})).Should(Equal(ErrorInvalidNodeName))
		Ω(validateDirectory(StoreNode{Key: "/etc/properties/"})).Should(Equal(ErrorInvalidNodeName))
		Ω(validateDirectory(StoreNode{Key: ""})).Should(Equal(ErrorInvalidNodeName))
	})

	It("rejects grandchildren", func() {
		Ω(validateDirectory(StoreNode{
			Key:        "/etc/properties/db",
			ChildNodes: []StoreNode{{Key: "/etc/properties/db/pool/size"}},
		})).Should(Equal(ErrorInvalidNodeName))
	})
})

var _ = Describe("StoreNode", func() {
	It("knows its name", func() {
		Ω(StoreNode{Key: "/etc/properties/db"}.Name()).Should(Equal("db"))
		Ω(StoreNode{Key: "db"}.Name()).Should(Equal("db"))
	})
})
