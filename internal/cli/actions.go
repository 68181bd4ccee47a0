package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newUpgradeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "upgrade",
		Short: "Run the configured upgrade command once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			service, err := newAppService()
			if err != nil {
				return err
			}
			return service.Upgrade(cmd.Context())
		},
	}
}

func newUnlockCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unlock",
		Short: "Run the configured ssh agent unlock command once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			service, err := newAppService()
			if err != nil {
				return err
			}
			return service.Unlock(cmd.Context())
		},
	}
}

func newHostsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hosts",
		Short: "Print the configured host targets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			for _, host := range cfg.Hosts {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", host.String(), host.Address())
			}
			return nil
		},
	}
}
