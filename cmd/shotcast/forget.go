package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newForgetCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:     "forget ID...",
		Aliases: []string{"rm"},
		Short:   "Delete items from the history",
		Args:    cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, args []string) error { return runForget(v, args) },
	}
	addHistoryFlags(cmd)

	return cmd
}

func runForget(v *viper.Viper, ids []string) error {
	h, _, err := openHistory(v)
	if err != nil {
		return err
	}
	defer h.Close()

	for _, id := range ids {
		if err := h.Forget(context.Background(), id); err != nil {
			return err
		}
		fmt.Printf("forgot %s\n", id)
	}
	return nil
}
