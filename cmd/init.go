package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/sitegrep/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize sitegrep configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure sitegrep for your document root and generates a .sitegrep.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
