// Package resolver wraps the external yt-dlp extraction step and maps its
// output back to a single concrete file on disk, covering search-style
// results and extension mismatches between prediction and what the tool
// actually wrote.
package resolver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/glagena/gladownloader/pkg/admission"
)

const (
	// TitleMaxLen mirrors the %(title).50s output template truncation.
	TitleMaxLen = 50

	// MinArtifactSize rejects placeholder or truncated files. Anything
	// smaller is deleted and reported as an invalid artifact.
	MinArtifactSize = 5120

	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// defaultSearchDomains are DRM-restricted or otherwise unsupported platforms.
// Links to them are rewritten into a first-result search on an open platform,
// and the mode is forced to audio (these platforms carry audio only).
var defaultSearchDomains = []string{"spotify.com", "music.yandex", "yandex.ru/music"}

// mediaInfo is the per-entry metadata the resolver needs from an extraction.
type mediaInfo struct {
	ID    string
	Title string
}

// extractor runs the external tool. Implemented by the yt-dlp adapter and
// stubbed in tests.
type extractor interface {
	extract(ctx context.Context, url string, kind admission.Kind) ([]mediaInfo, error)
}

// Config holds resolver configuration.
type Config struct {
	// OutputDir is where the external tool writes artifacts (default: "downloads").
	OutputDir string

	// CookiesFile is an optional credential file passed to the tool.
	CookiesFile string

	// UserAgent is the client-emulation header (default: a desktop Chrome UA).
	UserAgent string

	// MinArtifactSize overrides the minimal plausible file size in bytes.
	MinArtifactSize int64

	// SearchDomains overrides the rewrite domain set.
	SearchDomains []string

	// Logger is used for structured logging (default: NoopLogger).
	Logger admission.Logger
}

func (c *Config) applyDefaults() {
	if c.OutputDir == "" {
		c.OutputDir = "downloads"
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
	if c.MinArtifactSize == 0 {
		c.MinArtifactSize = MinArtifactSize
	}
	if c.SearchDomains == nil {
		c.SearchDomains = defaultSearchDomains
	}
	if c.Logger == nil {
		c.Logger = &admission.NoopLogger{}
	}
}

// Resolver implements admission.Resolver over yt-dlp.
type Resolver struct {
	cfg Config
	run extractor
}

// New creates a resolver and its output directory.
func New(cfg Config) (*Resolver, error) {
	cfg.applyDefaults()
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &Resolver{cfg: cfg, run: newYtdlpExtractor(cfg)}, nil
}

// Resolve implements admission.Resolver.
func (r *Resolver) Resolve(ctx context.Context, url string, kind admission.Kind) (*admission.Artifact, error) {
	url, kind = r.rewrite(url, kind)

	entries, err := r.run.extract(ctx, url, kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", admission.ErrExtractionFailed, err)
	}
	// A search-style result carries candidate entries; the first one wins.
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no entries for %q", admission.ErrExtractionFailed, url)
	}
	info := entries[0]

	path, err := r.locate(info, kind)
	if err != nil {
		return nil, err
	}

	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", admission.ErrArtifactNotLocated, path)
	}
	if fi.Size() < r.cfg.MinArtifactSize {
		// Corrupt or placeholder output. Remove it so the scan fallback
		// cannot find it on the next attempt.
		if rmErr := os.Remove(path); rmErr != nil {
			r.cfg.Logger.Warn("failed to remove undersized artifact",
				admission.Field{Key: "path", Value: path},
				admission.Field{Key: "error", Value: rmErr.Error()},
			)
		}
		return nil, fmt.Errorf("%w: %s is %d bytes", admission.ErrArtifactInvalid, path, fi.Size())
	}

	return &admission.Artifact{Path: path, Title: info.Title, Size: fi.Size()}, nil
}

// rewrite turns links to restricted platforms into a first-result search
// query and forces the mode to audio for them.
func (r *Resolver) rewrite(url string, kind admission.Kind) (string, admission.Kind) {
	for _, domain := range r.cfg.SearchDomains {
		if strings.Contains(url, domain) {
			rewritten := "ytsearch1:" + url + " audio"
			r.cfg.Logger.Info("restricted platform, searching open platform instead",
				admission.Field{Key: "url", Value: url},
				admission.Field{Key: "query", Value: rewritten},
			)
			return rewritten, admission.KindAudio
		}
	}
	return url, kind
}

// locate finds the file the tool wrote. The predicted path is tried first;
// if the tool normalized the title differently, any file containing the
// extracted id is accepted instead.
func (r *Resolver) locate(info mediaInfo, kind admission.Kind) (string, error) {
	predicted := r.expectedPath(info, kind)
	if _, err := os.Stat(predicted); err == nil {
		return predicted, nil
	}

	if info.ID != "" {
		names, err := os.ReadDir(r.cfg.OutputDir)
		if err != nil {
			return "", fmt.Errorf("%w: reading %s: %v", admission.ErrArtifactNotLocated, r.cfg.OutputDir, err)
		}
		candidates := make([]string, 0, 1)
		for _, entry := range names {
			if !entry.IsDir() && strings.Contains(entry.Name(), info.ID) {
				candidates = append(candidates, entry.Name())
			}
		}
		if len(candidates) > 0 {
			sort.Strings(candidates)
			return filepath.Join(r.cfg.OutputDir, candidates[0]), nil
		}
	}

	return "", fmt.Errorf("%w: expected %s", admission.ErrArtifactNotLocated, predicted)
}

// expectedPath predicts the output file name from the tool's template:
// {dir}/{title truncated to 50 chars}_{id}.{ext}, with the extension derived
// from the requested mode.
func (r *Resolver) expectedPath(info mediaInfo, kind admission.Kind) string {
	title := info.Title
	if len(title) > TitleMaxLen {
		title = title[:TitleMaxLen]
	}
	ext := "mp4"
	if kind == admission.KindAudio {
		ext = "mp3"
	}
	return filepath.Join(r.cfg.OutputDir, fmt.Sprintf("%s_%s.%s", title, info.ID, ext))
}
