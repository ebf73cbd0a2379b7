package resolver

import (
	"context"
	"path/filepath"

	"github.com/lrstanley/go-ytdlp"

	"github.com/glagena/gladownloader/pkg/admission"
)

// ytdlpExtractor invokes yt-dlp with mode-derived flags and collects the
// per-entry metadata from its extracted info.
type ytdlpExtractor struct {
	cfg Config
}

func newYtdlpExtractor(cfg Config) *ytdlpExtractor {
	return &ytdlpExtractor{cfg: cfg}
}

func (y *ytdlpExtractor) extract(ctx context.Context, url string, kind admission.Kind) ([]mediaInfo, error) {
	dl := ytdlp.New().
		Format("best[ext=mp4]/best").
		Output(filepath.Join(y.cfg.OutputDir, "%(title).50s_%(id)s.%(ext)s")).
		NoPlaylist().
		Quiet().
		NoWarnings().
		NoCheckCertificates().
		AddHeaders("User-Agent:" + y.cfg.UserAgent)

	if kind == admission.KindAudio {
		dl = dl.ExtractAudio().AudioFormat("mp3").AudioQuality("192K")
	} else {
		dl = dl.RecodeVideo("mp4")
	}
	if y.cfg.CookiesFile != "" {
		dl = dl.Cookies(y.cfg.CookiesFile)
	}

	result, err := dl.Run(ctx, url)
	if err != nil {
		return nil, err
	}

	info, err := result.GetExtractedInfo()
	if err != nil {
		return nil, err
	}

	var entries []mediaInfo
	for _, e := range info {
		if e == nil {
			continue
		}
		// Searches come back as a playlist wrapper around the candidates.
		if len(e.Entries) > 0 {
			for _, sub := range e.Entries {
				if sub != nil {
					entries = append(entries, mediaInfo{ID: sub.ID, Title: strVal(sub.Title)})
				}
			}
			continue
		}
		entries = append(entries, mediaInfo{ID: e.ID, Title: strVal(e.Title)})
	}
	return entries, nil
}

func strVal(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
