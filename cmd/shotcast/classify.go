package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"go.klb.dev/shotcast/internal/classify"
	"go.klb.dev/shotcast/internal/clip"
	"go.klb.dev/shotcast/internal/item"
)

func newClassifyCmd() *cobra.Command {
	var extensions bool

	cmd := &cobra.Command{
		Use:   "classify [FILE...]",
		Short: "Print the category shotcast assigns to files or stdin text",
		Long: `With FILE arguments, classifies each as a copied file reference (by
extension). Without arguments, classifies stdin as copied plain text.
--extensions prints the extension table instead.`,
		RunE: func(_ *cobra.Command, args []string) error {
			switch {
			case extensions:
				table := classify.Extensions()
				for _, ext := range classify.SortedExtensions() {
					fmt.Printf("%s\t%s\n", ext, table[ext])
				}
				return nil
			case len(args) > 0:
				for _, p := range args {
					snap := classify.SnapshotForFile(p)
					snap.Kinds = []clip.Kind{clip.KindFileURL}
					printCategory(p, classify.Classify(snap))
				}
				return nil
			}
			text, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
			c := classify.Classify(classify.Snapshot{Kinds: []clip.Kind{clip.KindText}, Text: text})
			printCategory("-", c)
			return nil
		},
	}
	cmd.Flags().BoolVar(&extensions, "extensions", false, "print the extension table")

	return cmd
}

func printCategory(name string, c item.Category) {
	fmt.Printf("%s\t%s\t%s\n", name, c, c.Description())
}
