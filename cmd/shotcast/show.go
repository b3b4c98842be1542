package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/shotcast/internal/item"
)

func newShowCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Show one history item",
		Long: `Prints an item's metadata followed by its content when the content is
textual. --raw writes the stored payload to stdout unchanged and
--thumbnail saves the rendered preview, if any, to a file.`,
		Args:    cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, args []string) error { return runShow(v, args[0]) },
	}

	f := cmd.Flags()
	f.Bool("raw", false, "write the raw payload to stdout")
	f.String("thumbnail", "", "write the JPEG preview to this path")
	addHistoryFlags(cmd)

	return cmd
}

func textual(c item.Category) bool {
	switch c {
	case item.Text, item.Code, item.Link:
		return true
	}
	return false
}

func runShow(v *viper.Viper, id string) error {
	h, _, err := openHistory(v)
	if err != nil {
		return err
	}
	defer h.Close()

	ctx := context.Background()
	d, err := h.Show(ctx, id)
	if err != nil {
		return err
	}
	content, err := d.Decode()
	if err != nil {
		return err
	}

	if out := v.GetString("thumbnail"); out != "" {
		data, err := h.Thumbnail(ctx, id)
		if err != nil {
			return err
		}
		if data == nil {
			return fmt.Errorf("no preview for %s", id)
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return fmt.Errorf("write thumbnail: %w", err)
		}
	}

	if v.GetBool("raw") {
		_, err := os.Stdout.Write(content)
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 1, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID:\t%s\n", d.ID)
	fmt.Fprintf(w, "Title:\t%s\n", d.Title)
	fmt.Fprintf(w, "Category:\t%s (%s)\n", d.Category, d.Category.Description())
	fmt.Fprintf(w, "Captured:\t%s (%s)\n", d.Timestamp.UTC().Format(time.RFC3339), fmtAge(d.Timestamp))
	if d.SourceApp != "" {
		fmt.Fprintf(w, "Source:\t%s\n", d.SourceApp)
	}
	if d.MIME != "" {
		fmt.Fprintf(w, "MIME:\t%s\n", d.MIME)
	}
	if d.FilePath != "" {
		fmt.Fprintf(w, "Path:\t%s\n", d.FilePath)
	}
	fmt.Fprintf(w, "Size:\t%s\n", fmtSize(d.FileSize))
	fmt.Fprintf(w, "Fingerprint:\t%s\n", d.Fingerprint)
	fmt.Fprintf(w, "Favorite:\t%t\n", d.Favorite)
	fmt.Fprintf(w, "Preview:\t%t\n", d.HasThumbnail)
	if len(d.Tags) > 0 {
		fmt.Fprintf(w, "Tags:\t%s\n", strings.Join(d.Tags, ", "))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if textual(d.Category) {
		fmt.Println()
		fmt.Println(string(content))
	}
	return nil
}
