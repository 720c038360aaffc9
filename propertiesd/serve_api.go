package propertiesd

import (
	"fmt"
	"os"

	"code.cloudfoundry.org/clock"
	"code.cloudfoundry.org/debugserver"
	"code.cloudfoundry.org/lager/v3"
	"github.com/pnerg/restful-zookeeper-properties/apiserver/handlers"
	"github.com/pnerg/restful-zookeeper-properties/config"
	"github.com/tedsuo/ifrit"
	"github.com/tedsuo/ifrit/grouper"
	"github.com/tedsuo/ifrit/http_server"
	"github.com/tedsuo/ifrit/sigmon"
)

func ServeAPI(logger lager.Logger, sink lager.ReconfigurableSinkInterface, conf config.Config, debugAddr string, version string) error {
	runner, err := APIRunner(logger, sink, conf, connectToGateway(logger, conf), debugAddr, version, clock.NewClock())
	if err != nil {
		logger.Error("initialize-handler.failed", err)
		return err
	}

	monitor := ifrit.Invoke(sigmon.New(runner))
	logger.Info("started", lager.Data{"address": listenAddress(conf)})

	err = <-monitor.Wait()
	if err != nil {
		logger.Error("exited", err)
		return err
	}

	logger.Info("exited")
	return nil
}

// APIRunner groups the HTTP server with the debug server, when a debug
// address is given.
func APIRunner(logger lager.Logger, sink lager.ReconfigurableSinkInterface, conf config.Config, gateway handlers.PropertyGateway, debugAddr string, version string, clock clock.Clock) (ifrit.Runner, error) {
	handler, err := handlers.New(logger, gateway, version, clock)
	if err != nil {
		return nil, err
	}

	if debugAddr == "" {
		debugAddr = conf.DebugAddress
	}

	members := grouper.Members{}
	if debugAddr != "" {
		members = append(members, grouper.Member{Name: "debug-server", Runner: debugserver.Runner(debugAddr, sink)})
	}
	members = append(members, grouper.Member{Name: "api", Runner: http_server.New(listenAddress(conf), handler)})

	return grouper.NewOrdered(os.Interrupt, members), nil
}

func listenAddress(conf config.Config) string {
	return fmt.Sprintf("%s:%d", conf.APIServerAddress, conf.APIServerPort)
}
