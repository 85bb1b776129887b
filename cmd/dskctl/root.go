package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	dskconfig "github.com/feverzsj/dsk-go/config"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "dskctl",
		Short: "Drive the dsk-go runtime's pools, queues, and scheduler",
	}
	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ./dskctl.yaml)")

	root.AddCommand(newRunPoolCmd())
	root.AddCommand(newRunQueueCmd())
	root.AddCommand(newFibCmd())
	return root
}

func loadConfig() (dskconfig.Config, error) {
	path := cfgFile
	if path == "" {
		path = "dskctl.yaml"
	}
	viper.SetEnvPrefix("DSK")
	viper.AutomaticEnv()
	return dskconfig.Load(path)
}
