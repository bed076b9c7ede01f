package settings

import (
	"posixkit/internal/app"

	"github.com/spf13/cobra"
)

// NewConfigCommand creates the config command
func NewConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long:  `Print the configuration after merging defaults, the configuration file, POSIXKIT_* environment variables and flags`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			a, err := app.FromCommand(cmd)
			if err != nil {
				return err
			}

			out, err := a.Config.YAML()
			if err != nil {
				return err
			}
			_, err = a.Stdout.Write(out)
			return err
		},
	}
}
