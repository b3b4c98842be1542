// shotcast: clipboard history daemon with previews.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"go.klb.dev/shotcast/internal/logging"
)

// Version is set at build time via -ldflags "-X main.Version=x.y.z".
var Version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "shotcast",
		Short: "Clipboard history with previews",
		Long: `shotcast watches the system clipboard, classifies everything copied,
stores each distinct piece of content once and renders thumbnails for
images, PDFs, videos and design files in the background.

Run "shotcast watch" to start the daemon. The other commands talk to a
running daemon over its local socket, or open the history directly when
no daemon is running.

Config file search order (first found wins):
  /etc/shotcast/shotcast.toml
  $HOME/.config/shotcast/shotcast.toml
  path supplied via --config

All flags can be set via SHOTCAST_<FLAG> env vars or config-file keys.
See "shotcast watch --help" for the full flag reference.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newWatchCmd(),
		newStatusCmd(),
		newListCmd(),
		newShowCmd(),
		newForgetCmd(),
		newFavoriteCmd(),
		newTagCmd(),
		newRenderCmd(),
		newClassifyCmd(),
		newVersionCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("shotcast %s\n", Version)
		},
	}
}

// resolveLogging sets up the global slog logger after flags are parsed.
func resolveLogging(interactive bool, formatStr, levelStr string) {
	format := logging.ParseFormat(formatStr)
	level := logging.ParseLevel(levelStr)
	if levelStr == "" {
		if interactive {
			level = logging.ParseLevel("debug")
		} else {
			level = logging.ParseLevel("info")
		}
	}
	logging.Setup(format, level)
}
