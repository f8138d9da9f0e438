package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/akeslo/AI-Youtube-Shorts-Generator/internal/cache"
	"github.com/akeslo/AI-Youtube-Shorts-Generator/internal/pipeline"
)

func run(cmd *cobra.Command, input string) error {
	outDir, _ := cmd.Flags().GetString("out")
	clips, _ := cmd.Flags().GetInt("clips")
	retries, _ := cmd.Flags().GetInt("retries")
	chunkSec, _ := cmd.Flags().GetInt("chunk")
	workers, _ := cmd.Flags().GetInt("workers")
	cacheDir, _ := cmd.Flags().GetString("cache-dir")
	manual, _ := cmd.Flags().GetString("manual")
	burnCaptions, _ := cmd.Flags().GetBool("captions")
	logo, _ := cmd.Flags().GetString("logo")

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Hour)
	defer cancel()

	cfg := pipeline.Config{
		Input:         input,
		OutDir:        outDir,
		CacheDir:      cacheDir,
		NumClips:      clips,
		MaxRetries:    retries,
		ChunkDuration: time.Duration(chunkSec) * time.Second,
		Workers:       workers,

		BurnCaptions:   burnCaptions,
		LogoPath:       logo,
		ManualJSONPath: manual,

		FFmpegPath:   getenvDefault("FFMPEG_PATH", "ffmpeg"),
		WhisperBin:   getenvDefault("WHISPER_BIN", ".cache/bin/whisper-cli"),
		WhisperModel: getenvDefault("WHISPER_MODEL", ".cache/models/ggml-base.en.bin"),
		Language:     getenvDefault("WHISPER_LANGUAGE", "en"),
		CascadePath:  getenvDefault("FACE_CASCADE", ".cache/models/facefinder"),
		YtdlpPath:    getenvDefault("YTDLP_PATH", "yt-dlp"),

		OllamaBaseURL: os.Getenv("OLLAMA_BASE_URL"),
		OllamaModel:   os.Getenv("OLLAMA_MODEL"),

		Log: log,
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return pipeline.Run(ctx, cfg)
}

// listCommand prints the cached downloads so a previously fetched video can
// be reused by path instead of re-entering its URL.
func listCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "list",
		Short: "List cached downloads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cacheDir, _ := cmd.Flags().GetString("cache-dir")
			dl, err := cache.NewDownloadCache(filepath.Join(cacheDir, "downloads"), slog.Default())
			if err != nil {
				return err
			}
			entries := dl.List()
			if len(entries) == 0 {
				cmd.Println("no cached downloads")
				return nil
			}
			for _, e := range entries {
				cmd.Printf("%s  %s  %s\n", e.Timestamp.Format(time.RFC3339), e.Identity, e.Title)
				cmd.Printf("    %s\n", e.Filename)
			}
			return nil
		},
	}
	c.Flags().String("cache-dir", ".cache", "Cache directory")
	return c
}

func getenvDefault(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
