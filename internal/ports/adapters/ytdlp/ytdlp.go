// Package ytdlp adapts the yt-dlp CLI as the download boundary.
package ytdlp

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

type Adapter struct {
	bin string
}

func New(binPath string) *Adapter {
	if binPath == "" {
		binPath = "yt-dlp"
	}
	return &Adapter{bin: binPath}
}

// Download fetches the best muxed mp4 into destDir and returns the media
// title and the final file path, as printed by yt-dlp after any merge step.
func (a *Adapter) Download(ctx context.Context, url, destDir string) (string, string, error) {
	cmd := exec.CommandContext(ctx, a.bin,
		"--no-playlist",
		"--merge-output-format", "mp4",
		"-f", "bv*+ba/b",
		"-o", filepath.Join(destDir, "%(title)s.%(ext)s"),
		"--no-simulate",
		"--print", "after_move:filepath",
		url,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", "", fmt.Errorf("yt-dlp: %w\n%s", err, stderr.String())
	}

	path := strings.TrimSpace(stdout.String())
	if path == "" {
		return "", "", fmt.Errorf("yt-dlp reported no output file for %s", url)
	}
	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return title, path, nil
}
