// Package pipeline wires adapters to the usecase and owns run-level
// concerns: input resolution, caching directories, identity locking, and
// the manifest.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/akeslo/AI-Youtube-Shorts-Generator/internal/cache"
	"github.com/akeslo/AI-Youtube-Shorts-Generator/internal/highlights"
	"github.com/akeslo/AI-Youtube-Shorts-Generator/internal/identity"
	"github.com/akeslo/AI-Youtube-Shorts-Generator/internal/monitor"
	"github.com/akeslo/AI-Youtube-Shorts-Generator/internal/ports/adapters/ffmpegcli"
	"github.com/akeslo/AI-Youtube-Shorts-Generator/internal/ports/adapters/ollama"
	"github.com/akeslo/AI-Youtube-Shorts-Generator/internal/ports/adapters/pigodet"
	"github.com/akeslo/AI-Youtube-Shorts-Generator/internal/ports/adapters/whispercpp"
	"github.com/akeslo/AI-Youtube-Shorts-Generator/internal/ports/adapters/ytdlp"
	"github.com/akeslo/AI-Youtube-Shorts-Generator/internal/reframe"
	"github.com/akeslo/AI-Youtube-Shorts-Generator/internal/transcribe"
	"github.com/akeslo/AI-Youtube-Shorts-Generator/internal/types"
	"github.com/akeslo/AI-Youtube-Shorts-Generator/internal/usecase"
)

type Config struct {
	// Input is a local video path or an http(s) URL to download.
	Input  string
	OutDir string

	// CacheDir is the base directory for caches and run workspaces.
	// Defaults to ".cache".
	CacheDir string

	NumClips      int
	MaxRetries    int
	ChunkDuration time.Duration
	Workers       int

	BurnCaptions   bool
	LogoPath       string
	ManualJSONPath string

	FFmpegPath   string
	WhisperBin   string
	WhisperModel string
	Language     string
	CascadePath  string
	YtdlpPath    string

	OllamaBaseURL string
	OllamaModel   string

	Log *slog.Logger
}

func (c Config) Validate() error {
	if c.Input == "" {
		return errors.New("input is empty")
	}
	if !isURL(c.Input) {
		if _, err := os.Stat(c.Input); err != nil {
			return fmt.Errorf("stat input: %w", err)
		}
	}
	if c.NumClips <= 0 {
		return errors.New("clips must be > 0")
	}
	if c.MaxRetries <= 0 {
		return errors.New("retries must be > 0")
	}
	if c.WhisperModel == "" {
		return errors.New("whisper model path is required")
	}
	if c.CascadePath == "" {
		return errors.New("face cascade path is required")
	}
	if c.LogoPath != "" {
		if _, err := os.Stat(c.LogoPath); err != nil {
			return fmt.Errorf("stat logo: %w", err)
		}
	}
	return nil
}

func Run(ctx context.Context, cfg Config) error {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}

	baseCache := cfg.CacheDir
	if baseCache == "" {
		baseCache = ".cache"
	}

	monitor.Start(ctx, log, 0)

	media := ffmpegcli.New()
	inputVideo, err := resolveInput(ctx, cfg, baseCache, log)
	if err != nil {
		return err
	}

	videoID, err := identity.File(inputVideo)
	if err != nil {
		return fmt.Errorf("compute media identity: %w", err)
	}

	// Concurrent runs on the same identity would race on the caches, so
	// they are serialized here; distinct identities never contend.
	lock := cache.NewIdentityLock(baseCache, videoID)
	if err := lock.Acquire(ctx); err != nil {
		return err
	}
	defer lock.Release()

	workDir := filepath.Join(baseCache, "runs", videoID)
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return err
	}
	outDir := cfg.OutDir
	if outDir == "" {
		outDir = "shorts"
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	log.Info("workspace ready", "identity", videoID, "work_dir", workDir, "out_dir", outDir)

	trCache, err := cache.NewTranscriptionCache(filepath.Join(baseCache, "transcripts"), log)
	if err != nil {
		return err
	}

	asr := whispercpp.New(cfg.WhisperBin, cfg.WhisperModel, cfg.Language)
	llm := ollama.New(cfg.OllamaBaseURL, cfg.OllamaModel)
	detector, err := pigodet.New(cfg.CascadePath)
	if err != nil {
		return err
	}

	manualJSON := ""
	if cfg.ManualJSONPath != "" {
		b, err := os.ReadFile(cfg.ManualJSONPath)
		if err != nil {
			return fmt.Errorf("read manual segments: %w", err)
		}
		manualJSON = string(b)
	}

	uc := usecase.New(usecase.Deps{
		Media:       media,
		Transcriber: transcribe.New(asr, media, trCache, log),
		Selector:    highlights.NewSelector(llm, log),
		Reframer:    reframe.NewReframer(detector, media, cfg.FFmpegPath, log),
		Log:         log,
	})

	res, err := uc.Run(ctx, usecase.Input{
		InputVideo:    inputVideo,
		OutDir:        outDir,
		WorkDir:       workDir,
		NumClips:      cfg.NumClips,
		MaxRetries:    cfg.MaxRetries,
		ChunkDuration: cfg.ChunkDuration,
		Workers:       cfg.Workers,
		ManualJSON:    manualJSON,
		BurnCaptions:  cfg.BurnCaptions,
		LogoPath:      cfg.LogoPath,
	})
	if err != nil {
		return err
	}

	b, err := json.MarshalIndent(res.Manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	manifestPath := filepath.Join(outDir, "manifest.json")
	if err := os.WriteFile(manifestPath, b, 0o644); err != nil {
		return err
	}
	log.Info("manifest written", "clips", len(res.Manifest.Clips), "path", manifestPath)
	return nil
}

// resolveInput returns a local video path, downloading through the cache
// when the input is a URL.
func resolveInput(ctx context.Context, cfg Config, baseCache string, log *slog.Logger) (string, error) {
	if !isURL(cfg.Input) {
		abs, err := filepath.Abs(cfg.Input)
		if err != nil {
			return "", err
		}
		return abs, nil
	}

	dlCache, err := cache.NewDownloadCache(filepath.Join(baseCache, "downloads"), log)
	if err != nil {
		return "", err
	}
	if e, ok := dlCache.FindByURL(cfg.Input); ok {
		return e.Filename, nil
	}

	destDir := filepath.Join(baseCache, "downloads")
	dl := ytdlp.New(cfg.YtdlpPath)
	title, path, err := dl.Download(ctx, cfg.Input, destDir)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", cfg.Input, err)
	}
	id, err := identity.File(path)
	if err != nil {
		return "", err
	}
	if err := dlCache.Store(types.DownloadEntry{
		Identity:  id,
		Title:     title,
		Filename:  path,
		SourceURL: cfg.Input,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		log.Warn("store download entry", "error", err)
	}
	return path, nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
