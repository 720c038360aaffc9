package storerunner

type StoreRunner interface {
	Start()
	Stop()
	NodeURLs() []string
	Reset()
}
