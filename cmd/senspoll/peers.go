package main

import (
	"github.com/spf13/cobra"
)

func newPeersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "peers",
		Short: "Print the configured allow-list",
		Long: `Prints the peers senspoll connects to, in match order. An advertising
device is bound to the first peer whose name and address both match.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true

			peers, err := cfg.PeerSpecs()
			if err != nil {
				return err
			}
			return writePeers(cmd.OutOrStdout(), peers)
		},
	}
}
