package propertiesd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"code.cloudfoundry.org/lager/v3"
	"github.com/pnerg/restful-zookeeper-properties/apiserver/handlers"
	"github.com/pnerg/restful-zookeeper-properties/config"
	"github.com/pnerg/restful-zookeeper-properties/models"
)

var ErrNoSuchPropertySet = errors.New("no such property set")

func List(logger lager.Logger, conf config.Config, out io.Writer) error {
	return list(connectToGateway(logger, conf), out)
}

func Get(logger lager.Logger, conf config.Config, out io.Writer, name string) error {
	return get(connectToGateway(logger, conf), out, name)
}

func Put(logger lager.Logger, conf config.Config, name string, assignments []string) error {
	return put(connectToGateway(logger, conf), name, assignments)
}

func Merge(logger lager.Logger, conf config.Config, name string, assignments []string) error {
	return merge(connectToGateway(logger, conf), name, assignments)
}

func Delete(logger lager.Logger, conf config.Config, name string) error {
	return connectToGateway(logger, conf).DeletePropertySet(name)
}

func list(gateway handlers.PropertyGateway, out io.Writer) error {
	names, err := gateway.PropertySetNames()
	if err != nil {
		return err
	}

	encoded, err := json.Marshal(names)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(encoded))
	return err
}

func get(gateway handlers.PropertyGateway, out io.Writer, name string) error {
	set, found, err := gateway.GetPropertySet(name)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrNoSuchPropertySet, name)
	}

	_, err = fmt.Fprintln(out, string(set.ToJSON()))
	return err
}

func put(gateway handlers.PropertyGateway, name string, assignments []string) error {
	properties, err := ParseAssignments(assignments)
	if err != nil {
		return err
	}
	return gateway.ReplacePropertySet(models.NewPropertySetWithProperties(name, properties))
}

func merge(gateway handlers.PropertyGateway, name string, assignments []string) error {
	properties, err := ParseAssignments(assignments)
	if err != nil {
		return err
	}
	return gateway.MergePropertySet(name, properties)
}
