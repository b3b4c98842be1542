package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/shotcast/internal/classify"
	"go.klb.dev/shotcast/internal/clip"
	"go.klb.dev/shotcast/internal/item"
	"go.klb.dev/shotcast/internal/thumbnail"
)

func newRenderCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "render FILE",
		Short: "Render a preview of a file without touching the history",
		Long: `Classifies FILE the way a copied file reference is classified and writes
its JPEG preview. Useful for checking ffmpeg and PDF rendering setup.`,
		Args:    cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, args []string) error { return runRender(v, args[0]) },
	}

	f := cmd.Flags()
	f.StringP("output", "o", "", "output path (default: FILE basename + .jpg)")
	f.String("category", "", "override the detected category")
	f.Int("thumb-width", thumbnail.DefaultWidth, "preview bounding box width")
	f.Int("thumb-height", thumbnail.DefaultHeight, "preview bounding box height")
	f.Int("thumb-quality", thumbnail.DefaultQuality, "preview JPEG quality (1-100)")
	f.Duration("render-timeout", 0, "render timeout (0 = none)")
	f.String("ffmpeg", "", "ffmpeg binary used for video frames (default: from PATH)")
	f.String("pdf-license-key", "", "unipdf metered license key enabling PDF previews")
	addConfigFlag(cmd)
	addLoggingFlags(cmd)

	return cmd
}

func runRender(v *viper.Viper, path string) error {
	setupLogging(v)

	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	snap := classify.SnapshotForFile(path)
	snap.Kinds = []clip.Kind{clip.KindFileURL}
	category := classify.Classify(snap)
	if s := v.GetString("category"); s != "" {
		c, ok := item.ParseCategory(s)
		if !ok {
			return fmt.Errorf("unknown category %q", s)
		}
		category = c
	}

	it, err := item.New(item.Params{Category: category, Content: content, FilePath: path})
	if err != nil {
		return err
	}

	ctx := context.Background()
	if d := v.GetDuration("render-timeout"); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	data, err := thumbnail.NewRenderer(renderConfig(v)).Render(ctx, it)
	if errors.Is(err, thumbnail.ErrUnsupported) {
		return fmt.Errorf("%s is classified as %s, which has no preview", path, category)
	}
	if err != nil {
		return err
	}

	out := v.GetString("output")
	if out == "" {
		base := filepath.Base(path)
		out = strings.TrimSuffix(base, filepath.Ext(base)) + ".jpg"
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return err
	}
	fmt.Printf("%s: %s preview written to %s (%s)\n", path, category, out, fmtSize(int64(len(data))))
	return nil
}
