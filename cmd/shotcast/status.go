package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/shotcast/internal/ipc"
	"go.klb.dev/shotcast/internal/message"
	"go.klb.dev/shotcast/internal/store"
)

func newStatusCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon state and preview counters",
		Long: `Asks the running daemon for its clipboard backend, history size and
thumbnail pipeline counters. Without a daemon only the history size is
reported.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runStatus(v) },
	}

	cmd.Flags().Bool("json", false, "output raw JSON")
	addHistoryFlags(cmd)

	return cmd
}

func runStatus(v *viper.Viper) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var (
		st        *message.Status
		transport string
	)
	if ipc.IsRunning() {
		key, err := ipc.KeyFor(v.GetString("passphrase"))
		if err != nil {
			return err
		}
		c, err := ipc.NewClient(key)
		if err != nil {
			return err
		}
		defer c.Close()
		if st, err = c.Status(ctx); err != nil {
			return fmt.Errorf("status: %w", err)
		}
		transport = fmt.Sprintf("ipc (%s)", ipc.SocketPath())
	} else {
		dir := v.GetString("data-dir")
		s, err := store.Open(dir, store.Options{Passphrase: v.GetString("passphrase")})
		if err != nil {
			return err
		}
		defer s.Close()
		n, err := s.Count(ctx)
		if err != nil {
			return err
		}
		st = &message.Status{DataDir: dir, Encrypted: v.GetString("passphrase") != "", Items: n}
		transport = "none (daemon not running)"
	}

	if v.GetBool("json") {
		enc, _ := json.MarshalIndent(st, "", "  ")
		fmt.Println(string(enc))
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 1, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Transport:\t%s\n", transport)
	if st.Backend != "" {
		fmt.Fprintf(w, "Clipboard:\t%s\n", st.Backend)
	}
	fmt.Fprintf(w, "Data dir:\t%s\n", st.DataDir)
	fmt.Fprintf(w, "Encrypted:\t%t\n", st.Encrypted)
	if !st.StartedAt.IsZero() {
		fmt.Fprintf(w, "Started:\t%s (%s)\n", st.StartedAt.UTC().Format(time.RFC3339), fmtAge(st.StartedAt))
	}
	fmt.Fprintf(w, "Items:\t%d\n", st.Items)
	if st.Backend != "" {
		fmt.Fprintf(w, "Previews:\t%d rendered, %d unsupported, %d failed, %d pending\n",
			st.Rendered, st.Unsupported, st.Failed, st.Pending)
	}
	return w.Flush()
}
