package handlers

import (
	"net/http"

	"code.cloudfoundry.org/clock"
	"code.cloudfoundry.org/lager/v3"
	"github.com/pnerg/restful-zookeeper-properties/apiserver"
	"github.com/pnerg/restful-zookeeper-properties/models"
	"github.com/tedsuo/rata"
)

type PropertyGateway interface {
	PropertySetNames() ([]string, error)
	GetPropertySet(name string) (models.PropertySet, bool, error)
	ReplacePropertySet(set models.PropertySet) error
	MergePropertySet(name string, incoming map[string]string) error
	DeletePropertySet(name string) error
}

func New(logger lager.Logger, gateway PropertyGateway, version string, clock clock.Clock) (http.Handler, error) {
	handler := &propertySetHandler{
		logger:  logger.Session("api"),
		gateway: gateway,
	}

	handlers := rata.Handlers{
		apiserver.ListPropertySets:       http.HandlerFunc(handler.list),
		apiserver.GetPropertySet:         http.HandlerFunc(handler.get),
		apiserver.ReplacePropertySet:     http.HandlerFunc(handler.replace),
		apiserver.MergePropertySet:       http.HandlerFunc(handler.merge),
		apiserver.DeletePropertySet:      http.HandlerFunc(handler.delete),
		apiserver.MissingPropertySetName: http.HandlerFunc(handler.missingName),
		apiserver.HealthCheck:            NewHealthCheckHandler(handler.logger.Session("hc"), version, clock),
	}

	return rata.NewRouter(apiserver.Routes, handlers)
}
