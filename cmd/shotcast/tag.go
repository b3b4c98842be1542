package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newTagCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "tag ID NAME",
		Short: "Attach a tag to an item",
		Long: `Attaches the tag NAME to an item, creating the tag first if it does not
exist. Tag names are case-insensitive; --color only applies when the tag
is created.`,
		Args:    cobra.ExactArgs(2),
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(_ *cobra.Command, args []string) error {
			h, _, err := openHistory(v)
			if err != nil {
				return err
			}
			defer h.Close()
			tag, err := h.Tag(context.Background(), args[0], args[1], v.GetString("color"))
			if err != nil {
				return err
			}
			fmt.Printf("tagged %s with %s (%s)\n", args[0], tag.Name, tag.ColorHex)
			return nil
		},
	}

	cmd.Flags().String("color", "#007AFF", "tag color as #RGB, #RRGGBB or #AARRGGBB")
	addHistoryFlags(cmd)

	return cmd
}
