package gateway

import (
	"fmt"
	"strings"

	"code.cloudfoundry.org/lager/v3"
	"github.com/pnerg/restful-zookeeper-properties/models"
	"github.com/pnerg/restful-zookeeper-properties/store"
)

// Gateway turns CRUD intents on property sets into store operations. Each
// call opens its own connection and releases it before returning, so a
// Gateway carries no state between calls and is safe for concurrent use.
type Gateway struct {
	factory store.Factory
	logger  lager.Logger
}

func New(factory store.Factory, logger lager.Logger) *Gateway {
	return &Gateway{
		factory: factory,
		logger:  logger.Session("gateway"),
	}
}

func (gateway *Gateway) PropertySetNames() ([]string, error) {
	logger := gateway.logger.Session("list")
	logger.Debug("starting")

	var names []string
	err := store.WithStore(gateway.factory, logger, func(s store.Store) error {
		var err error
		names, err = s.PropertySetNames()
		return err
	})
	if err != nil {
		logger.Error("failed", err)
		return nil, err
	}

	logger.Debug("finished", lager.Data{"count": len(names)})
	return names, nil
}

func (gateway *Gateway) GetPropertySet(name string) (models.PropertySet, bool, error) {
	logger := gateway.logger.Session("get", lager.Data{"name": name})
	logger.Debug("starting")

	err := validateName(name)
	if err != nil {
		logger.Info("rejected", lager.Data{"reason": err.Error()})
		return models.PropertySet{}, false, err
	}

	return gateway.get(logger, name)
}

func (gateway *Gateway) get(logger lager.Logger, name string) (models.PropertySet, bool, error) {
	var (
		set   models.PropertySet
		found bool
	)
	err := store.WithStore(gateway.factory, logger, func(s store.Store) error {
		var err error
		set, found, err = s.GetPropertySet(name)
		return err
	})
	if err != nil {
		logger.Error("failed", err)
		return models.PropertySet{}, false, err
	}

	logger.Debug("finished", lager.Data{"found": found})
	return set, found, nil
}

// ReplacePropertySet stores exactly the given set, dropping any property
// not in it.
func (gateway *Gateway) ReplacePropertySet(set models.PropertySet) error {
	logger := gateway.logger.Session("replace", lager.Data{"name": set.Name()})
	logger.Debug("starting")

	err := validateSet(set)
	if err != nil {
		logger.Info("rejected", lager.Data{"reason": err.Error()})
		return err
	}

	return gateway.replace(logger, set)
}

func (gateway *Gateway) replace(logger lager.Logger, set models.PropertySet) error {
	err := store.WithStore(gateway.factory, logger, func(s store.Store) error {
		return s.SavePropertySet(set)
	})
	if err != nil {
		logger.Error("failed", err)
		return err
	}

	logger.Debug("finished", lager.Data{"properties": set.Len()})
	return nil
}

// MergePropertySet overlays incoming onto the stored set, or onto an empty
// set when none is stored. The read and the write use separate connections
// with nothing in between, so concurrent merges on one name can lose
// updates.
func (gateway *Gateway) MergePropertySet(name string, incoming map[string]string) error {
	logger := gateway.logger.Session("merge", lager.Data{"name": name})
	logger.Debug("starting")

	err := validateSet(models.NewPropertySetWithProperties(name, incoming))
	if err != nil {
		logger.Info("rejected", lager.Data{"reason": err.Error()})
		return err
	}

	current, found, err := gateway.get(logger.Session("read"), name)
	if err != nil {
		return err
	}
	if !found {
		current = models.NewPropertySet(name)
	}

	for key, value := range incoming {
		current.Set(key, value)
	}

	return gateway.replace(logger.Session("write"), current)
}

// DeletePropertySet succeeds whether or not the set exists.
func (gateway *Gateway) DeletePropertySet(name string) error {
	logger := gateway.logger.Session("delete", lager.Data{"name": name})
	logger.Debug("starting")

	err := validateName(name)
	if err != nil {
		logger.Info("rejected", lager.Data{"reason": err.Error()})
		return err
	}

	err = store.WithStore(gateway.factory, logger, func(s store.Store) error {
		return s.DeletePropertySet(name)
	})
	if err != nil {
		logger.Error("failed", err)
		return err
	}

	logger.Debug("finished")
	return nil
}

func validateName(name string) error {
	return validateSegment("property set name", name)
}

func validateSet(set models.PropertySet) error {
	err := validateName(set.Name())
	if err != nil {
		return err
	}

	for _, key := range set.Keys() {
		err = validateSegment("property key", key)
		if err != nil {
			return err
		}
	}
	return nil
}

// Names and keys each address exactly one store node.
func validateSegment(what string, segment string) error {
	switch {
	case segment == "":
		return fmt.Errorf("%w: empty %s", ErrMalformedInput, what)
	case strings.Contains(segment, "/"):
		return fmt.Errorf("%w: %s %q contains '/'", ErrMalformedInput, what, segment)
	case segment == "." || segment == "..":
		return fmt.Errorf("%w: %s %q is reserved", ErrMalformedInput, what, segment)
	}
	return nil
}
