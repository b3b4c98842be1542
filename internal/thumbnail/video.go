package thumbnail

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"os/exec"

	"go.klb.dev/shotcast/internal/item"
)

// FrameGrabber extracts a representative still from a video.
type FrameGrabber interface {
	// Frame returns the first frame of the video at path, or of data when
	// path is empty.
	Frame(ctx context.Context, path string, data []byte) (image.Image, error)
}

// FFmpegGrabber shells out to ffmpeg for the first video frame.
type FFmpegGrabber struct {
	Path string // binary; "ffmpeg" when empty
}

// Frame implements FrameGrabber.
func (g *FFmpegGrabber) Frame(ctx context.Context, path string, data []byte) (image.Image, error) {
	bin := g.Path
	if bin == "" {
		bin = "ffmpeg"
	}
	if _, err := exec.LookPath(bin); err != nil {
		return nil, fmt.Errorf("ffmpeg not available: %w", err)
	}

	if path == "" {
		f, err := os.CreateTemp("", "shotcast-video-*")
		if err != nil {
			return nil, fmt.Errorf("spool video: %w", err)
		}
		defer os.Remove(f.Name())
		if _, err := f.Write(data); err != nil {
			f.Close()
			return nil, fmt.Errorf("spool video: %w", err)
		}
		if err := f.Close(); err != nil {
			return nil, fmt.Errorf("spool video: %w", err)
		}
		path = f.Name()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin,
		"-hide_banner", "-loglevel", "error",
		"-i", path,
		"-frames:v", "1",
		"-f", "image2pipe", "-vcodec", "png", "-",
	)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg: %w: %s", err, bytes.TrimSpace(stderr.Bytes()))
	}
	img, err := decodeBounded(stdout.Bytes())
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return img, nil
}

func (r *Renderer) renderVideo(ctx context.Context, it *item.CapturedItem) ([]byte, error) {
	path := it.FilePath
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			// The source may have moved since capture; fall back to the payload.
			path = ""
		}
	}
	img, err := r.frames.Frame(ctx, path, it.Content())
	if err != nil {
		return nil, err
	}
	return r.encode(img)
}
