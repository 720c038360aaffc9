package handlers

import (
	"errors"
	"io"
	"net/http"

	"code.cloudfoundry.org/lager/v3"
	uuid "github.com/nu7hatch/gouuid"
	"github.com/pnerg/restful-zookeeper-properties/gateway"
	"github.com/pnerg/restful-zookeeper-properties/models"
	"github.com/tedsuo/rata"
)

const (
	NoSuchPropertySet      = "No such property set"
	MissingPropertySetName = "Missing property set name"
)

type propertySetHandler struct {
	logger  lager.Logger
	gateway PropertyGateway
}

func (handler *propertySetHandler) list(w http.ResponseWriter, r *http.Request) {
	logger := handler.requestLogger("list", w, r)

	names, err := handler.gateway.PropertySetNames()
	if err != nil {
		writeGatewayError(logger, w, err)
		return
	}

	writeJSON(logger, w, http.StatusOK, names)
}

func (handler *propertySetHandler) get(w http.ResponseWriter, r *http.Request) {
	logger := handler.requestLogger("get", w, r)
	name := rata.Param(r, "name")

	set, found, err := handler.gateway.GetPropertySet(name)
	if err != nil {
		writeGatewayError(logger, w, err)
		return
	}
	if !found {
		logger.Info("not-found", lager.Data{"name": name})
		writeError(logger, w, http.StatusNotFound, NoSuchPropertySet)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(set.ToJSON())
}

func (handler *propertySetHandler) replace(w http.ResponseWriter, r *http.Request) {
	logger := handler.requestLogger("replace", w, r)
	name := rata.Param(r, "name")

	properties, ok := readProperties(logger, w, r)
	if !ok {
		return
	}

	err := handler.gateway.ReplacePropertySet(models.NewPropertySetWithProperties(name, properties))
	if err != nil {
		writeGatewayError(logger, w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

func (handler *propertySetHandler) merge(w http.ResponseWriter, r *http.Request) {
	logger := handler.requestLogger("merge", w, r)
	name := rata.Param(r, "name")

	properties, ok := readProperties(logger, w, r)
	if !ok {
		return
	}

	err := handler.gateway.MergePropertySet(name, properties)
	if err != nil {
		writeGatewayError(logger, w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

func (handler *propertySetHandler) delete(w http.ResponseWriter, r *http.Request) {
	logger := handler.requestLogger("delete", w, r)

	err := handler.gateway.DeletePropertySet(rata.Param(r, "name"))
	if err != nil {
		writeGatewayError(logger, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (handler *propertySetHandler) missingName(w http.ResponseWriter, r *http.Request) {
	logger := handler.requestLogger("missing-name", w, r)
	writeError(logger, w, http.StatusBadRequest, MissingPropertySetName)
}

func (handler *propertySetHandler) requestLogger(action string, w http.ResponseWriter, r *http.Request) lager.Logger {
	data := lager.Data{"method": r.Method, "path": r.URL.Path}

	requestID, err := uuid.NewV4()
	if err == nil {
		data["request-id"] = requestID.String()
		w.Header().Set("X-Request-Id", requestID.String())
	}

	return handler.logger.Session(action, data)
}

func readProperties(logger lager.Logger, w http.ResponseWriter, r *http.Request) (map[string]string, bool) {
	body, err := io.ReadAll(r.Body)
	r.Body.Close()
	if err != nil {
		logger.Error("failed-to-read-body", err)
		writeError(logger, w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	properties, err := models.NewPropertiesFromJSON(body)
	if err != nil {
		logger.Info("invalid-body", lager.Data{"error": err.Error()})
		writeError(logger, w, http.StatusBadRequest, "Invalid property set: "+err.Error())
		return nil, false
	}

	return properties, true
}

func writeGatewayError(logger lager.Logger, w http.ResponseWriter, err error) {
	if errors.Is(err, gateway.ErrMalformedInput) {
		logger.Info("malformed-input", lager.Data{"error": err.Error()})
		writeError(logger, w, http.StatusBadRequest, err.Error())
		return
	}

	if gateway.IsSetTooLarge(err) {
		logger.Info("set-too-large", lager.Data{"error": err.Error()})
		writeError(logger, w, http.StatusRequestEntityTooLarge, err.Error())
		return
	}

	logger.Error("gateway-failed", err, lager.Data{"connectivity": gateway.IsConnectivityFailure(err)})
	writeError(logger, w, http.StatusInternalServerError, err.Error())
}
