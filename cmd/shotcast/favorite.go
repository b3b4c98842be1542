package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newFavoriteCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "favorite ID",
		Short: "Mark an item as favorite (favorites are never pruned)",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(_ *cobra.Command, args []string) error {
			h, _, err := openHistory(v)
			if err != nil {
				return err
			}
			defer h.Close()
			return h.Favorite(context.Background(), args[0], !v.GetBool("off"))
		},
	}

	cmd.Flags().Bool("off", false, "clear the favorite mark instead")
	addHistoryFlags(cmd)

	return cmd
}
