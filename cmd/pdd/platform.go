package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bamsammich/pdd/internal/platform"
)

func newPlatformCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "platform",
		Short: "Print the I/O capabilities of this platform",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprint(cmd.OutOrStdout(), platform.Capabilities())
			return err
		},
	}
}
