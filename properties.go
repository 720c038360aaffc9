package main

import (
	"fmt"
	"os"

	"code.cloudfoundry.org/lager/v3"
	"github.com/carlmjohnson/versioninfo"
	"github.com/urfave/cli"

	"github.com/pnerg/restful-zookeeper-properties/config"
	"github.com/pnerg/restful-zookeeper-properties/propertiesd"
)

var version = versioninfo.Short()

func main() {
	configFlag := cli.StringFlag{Name: "config", Value: "", Usage: "Path to config file (JSON or YAML); built-in defaults when empty"}

	app := cli.NewApp()
	app.Name = "properties"
	app.Usage = "Serve and manage property sets kept in ZooKeeper"
	app.Version = version
	app.Commands = []cli.Command{
		{
			Name:        "serve_api",
			Description: "Serve the property set API over http",
			Usage:       "properties serve_api --config=/path/to/config",
			Flags: []cli.Flag{
				configFlag,
				cli.StringFlag{Name: "debugAddr", Value: "", Usage: "address to serve debug info"},
			},
			Action: func(c *cli.Context) error {
				logger, sink, conf := loadLoggerAndConfig(c, "apiserver")
				return exitOnError(logger, propertiesd.ServeAPI(logger, sink, conf, c.String("debugAddr"), version))
			},
		},
		{
			Name:        "list",
			Description: "Lists the names of all property sets",
			Usage:       "properties list --config=/path/to/config",
			Flags:       []cli.Flag{configFlag},
			Action: func(c *cli.Context) error {
				logger, _, conf := loadLoggerAndConfig(c, "list")
				return exitOnError(logger, propertiesd.List(logger, conf, os.Stdout))
			},
		},
		{
			Name:        "get",
			Description: "Prints a property set as JSON",
			Usage:       "properties get --config=/path/to/config NAME",
			Flags:       []cli.Flag{configFlag},
			Action: func(c *cli.Context) error {
				logger, _, conf := loadLoggerAndConfig(c, "get")
				return exitOnError(logger, propertiesd.Get(logger, conf, os.Stdout, requireName(c)))
			},
		},
		{
			Name:        "put",
			Description: "Replaces a property set with the given properties",
			Usage:       "properties put --config=/path/to/config NAME KEY=VALUE...",
			Flags:       []cli.Flag{configFlag},
			Action: func(c *cli.Context) error {
				logger, _, conf := loadLoggerAndConfig(c, "put")
				return exitOnError(logger, propertiesd.Put(logger, conf, requireName(c), c.Args().Tail()))
			},
		},
		{
			Name:        "merge",
			Description: "Merges the given properties into a property set",
			Usage:       "properties merge --config=/path/to/config NAME KEY=VALUE...",
			Flags:       []cli.Flag{configFlag},
			Action: func(c *cli.Context) error {
				logger, _, conf := loadLoggerAndConfig(c, "merge")
				return exitOnError(logger, propertiesd.Merge(logger, conf, requireName(c), c.Args().Tail()))
			},
		},
		{
			Name:        "delete",
			Description: "Deletes a property set",
			Usage:       "properties delete --config=/path/to/config NAME",
			Flags:       []cli.Flag{configFlag},
			Action: func(c *cli.Context) error {
				logger, _, conf := loadLoggerAndConfig(c, "delete")
				return exitOnError(logger, propertiesd.Delete(logger, conf, requireName(c)))
			},
		},
		{
			Name:        "dump",
			Description: "Dumps every node under the root path",
			Usage:       "properties dump --config=/path/to/config",
			Flags:       []cli.Flag{configFlag},
			Action: func(c *cli.Context) error {
				logger, _, conf := loadLoggerAndConfig(c, "dumper")
				return exitOnError(logger, propertiesd.Dump(logger, conf, os.Stdout))
			},
		},
	}

	app.Run(os.Args)
}

func loadLoggerAndConfig(c *cli.Context, component string) (lager.Logger, lager.ReconfigurableSinkInterface, config.Config) {
	var (
		conf config.Config
		err  error
	)

	configPath := c.String("config")
	if configPath == "" {
		conf, err = config.DefaultConfig()
	} else {
		conf, err = config.FromFile(configPath)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config %q: %s\n", configPath, err)
		os.Exit(1)
	}

	err = conf.Validate()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %s\n", err)
		os.Exit(1)
	}

	logLevel, _ := conf.LogLevel()

	logger := lager.NewLogger(component)
	sink := lager.NewReconfigurableSink(lager.NewWriterSink(os.Stderr, lager.DEBUG), logLevel)
	logger.RegisterSink(sink)

	return logger, sink, conf
}

func requireName(c *cli.Context) string {
	name := c.Args().First()
	if name == "" {
		fmt.Fprintf(os.Stderr, "Property set name required\n")
		os.Exit(1)
	}
	return name
}

func exitOnError(logger lager.Logger, err error) error {
	if err != nil {
		logger.Error("failed", err)
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
	return nil
}
