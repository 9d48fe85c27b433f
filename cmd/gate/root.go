package gate

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.minekube.com/gate/pkg/config"
)

var cfgFile string

// rootCmd is the single entry point Execute binds every flag to before
// handing off to Run (spec.md §6's configuration file and CLI surface).
var rootCmd = &cobra.Command{
	Use:   "gate",
	Short: "Gate is a Minecraft Java Edition reverse proxy",
	RunE: func(cmd *cobra.Command, args []string) error {
		printBanner()
		return Run()
	},
}

// Execute runs the root command; called from main.go.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "gate.toml", "path to gate.toml")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
}

func initConfig() {
	config.SetDefaults(viper.GetViper())

	viper.SetConfigFile(cfgFile)
	viper.SetConfigType("toml")
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Println("error reading config file:", err)
		}
	}
}
