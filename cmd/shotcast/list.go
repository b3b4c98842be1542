package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/shotcast/internal/message"
)

func newListCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the clipboard history, most recent first",
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runList(v) },
	}

	f := cmd.Flags()
	f.Int("limit", 20, "maximum number of items (0 = all)")
	f.StringSlice("category", nil, "only these categories (repeatable)")
	f.Bool("favorites", false, "only favorites")
	f.String("tag", "", "only items carrying this tag")
	f.Bool("json", false, "output raw JSON")
	addHistoryFlags(cmd)

	return cmd
}

func runList(v *viper.Viper) error {
	h, _, err := openHistory(v)
	if err != nil {
		return err
	}
	defer h.Close()

	items, err := h.List(context.Background(), message.Query{
		Limit:      v.GetInt("limit"),
		Categories: v.GetStringSlice("category"),
		Favorites:  v.GetBool("favorites"),
		Tag:        v.GetString("tag"),
	})
	if err != nil {
		return err
	}

	if v.GetBool("json") {
		enc, _ := json.MarshalIndent(items, "", "  ")
		fmt.Println(string(enc))
		return nil
	}
	if len(items) == 0 {
		fmt.Println("History is empty.")
		return nil
	}
	return printSummaries(os.Stdout, items)
}
