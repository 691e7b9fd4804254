package main

import (
	"fmt"
	"os"

	hepmc "github.com/next-exp/hepmc_go/pkg"
	"github.com/spf13/cobra"
)

var (
	configuration hepmc.Configuration
	logger        = NewLogger(os.Stdout, os.Stderr)
)

func newRootCmd() *cobra.Command {
	var configFilename string

	root := &cobra.Command{
		Use:           "hepmcio",
		Short:         "Read HepMC IO_GenEvent listings and store their event graphs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			configuration, err = LoadConfiguration(configFilename)
			if err != nil {
				return fmt.Errorf("error reading configuration file: %w", err)
			}
			hepmc.SetConfiguration(configuration)
			hepmc.SetLogger(logger)

			if configuration.Verbosity > 0 {
				logger.Info(fmt.Sprintf("Reading configuration file: %s", configFilename), "main")
				printConfiguration(configuration, logger)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&configFilename, "config", "", "Configuration file path")

	root.AddCommand(newInfoCmd())
	root.AddCommand(newIngestCmd())
	root.AddCommand(newShowCmd())
	root.AddCommand(newSelectCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}
