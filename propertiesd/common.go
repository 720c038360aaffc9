package propertiesd

import (
	"fmt"
	"strings"

	"code.cloudfoundry.org/lager/v3"
	"github.com/pnerg/restful-zookeeper-properties/config"
	"github.com/pnerg/restful-zookeeper-properties/gateway"
	"github.com/pnerg/restful-zookeeper-properties/store"
)

func connectToGateway(logger lager.Logger, conf config.Config) *gateway.Gateway {
	return gateway.New(store.NewFactory(conf, logger), logger)
}

// ParseAssignments turns "key=value" arguments into properties. The value
// is everything after the first '=' and may be empty.
func ParseAssignments(args []string) (map[string]string, error) {
	properties := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, found := strings.Cut(arg, "=")
		if !found {
			return nil, fmt.Errorf("expected key=value, got %q", arg)
		}
		properties[key] = value
	}
	return properties, nil
}
