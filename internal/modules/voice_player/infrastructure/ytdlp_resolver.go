package infrastructure

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"github.com/sglre6355/voicebot/internal/modules/voice_player/application/ports"
	"github.com/sglre6355/voicebot/internal/modules/voice_player/domain"
)

// ytdlpFormatSelector picks the stream yt-dlp reports at the top level.
const ytdlpFormatSelector = "bestaudio/best"

// ytdlpFormat is one entry of yt-dlp's formats list.
type ytdlpFormat struct {
	FormatID string  `json:"format_id"`
	URL      string  `json:"url"`
	Protocol string  `json:"protocol"`
	ABR      float64 `json:"abr"`
	TBR      float64 `json:"tbr"`
	ACodec   string  `json:"acodec"`
	VCodec   string  `json:"vcodec"`
}

// ytdlpInfo is the subset of yt-dlp's info dict the resolver reads.
type ytdlpInfo struct {
	Type         string        `json:"_type"`
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Uploader     string        `json:"uploader"`
	Channel      string        `json:"channel"`
	Artist       string        `json:"artist"`
	Duration     float64       `json:"duration"`
	IsLive       bool          `json:"is_live"`
	LiveStatus   string        `json:"live_status"`
	WebpageURL   string        `json:"webpage_url"`
	OriginalURL  string        `json:"original_url"`
	URL          string        `json:"url"`
	Protocol     string        `json:"protocol"`
	ABR          float64       `json:"abr"`
	Extractor    string        `json:"extractor"`
	ExtractorKey string        `json:"extractor_key"`
	IEKey        string        `json:"ie_key"`
	Thumbnail    string        `json:"thumbnail"`
	Formats      []ytdlpFormat `json:"formats"`
	Entries      []*ytdlpInfo  `json:"entries"`
}

// YtdlpResolver resolves queries by running yt-dlp and reading its JSON output.
type YtdlpResolver struct {
	proxy string
}

// NewYtdlpResolver creates a new YtdlpResolver. proxy may be empty.
func NewYtdlpResolver(proxy string) *YtdlpResolver {
	return &YtdlpResolver{proxy: proxy}
}

// Resolve runs yt-dlp for query. Plain text is searched on YouTube.
func (r *YtdlpResolver) Resolve(ctx context.Context, query string) ([]*ports.ResolvedMedia, error) {
	target := query
	if !isURL(query) {
		target = "ytsearch1:" + query
	}

	cmd := ytdlp.New().
		DumpSingleJSON().
		FlatPlaylist().
		Format(ytdlpFormatSelector).
		NoCheckFormats().
		NoWarnings().
		IgnoreConfig()
	if r.proxy != "" {
		cmd.Proxy(r.proxy)
	}

	res, err := cmd.Run(ctx, target)
	if err != nil {
		if res != nil && res.Stderr != "" {
			return nil, fmt.Errorf("yt-dlp failed: %w: %s", err, strings.TrimSpace(res.Stderr))
		}
		return nil, fmt.Errorf("yt-dlp failed: %w", err)
	}

	return parseYtdlpOutput([]byte(res.Stdout))
}

// parseYtdlpOutput converts a --dump-single-json document to resolved media.
// Search results keep only their first entry.
func parseYtdlpOutput(stdout []byte) ([]*ports.ResolvedMedia, error) {
	var info ytdlpInfo
	if err := json.Unmarshal(stdout, &info); err != nil {
		return nil, fmt.Errorf("failed to decode yt-dlp output: %w", err)
	}

	if info.Type != "playlist" {
		media, err := info.toMedia()
		if err != nil {
			return nil, err
		}
		return []*ports.ResolvedMedia{media}, nil
	}

	entries := info.Entries
	if strings.HasPrefix(info.ExtractorKey, "YoutubeSearch") && len(entries) > 1 {
		entries = entries[:1]
	}

	media := make([]*ports.ResolvedMedia, 0, len(entries))
	for _, entry := range entries {
		if entry == nil {
			continue
		}
		m, err := entry.toMedia()
		if err != nil {
			continue
		}
		media = append(media, m)
	}
	return media, nil
}

var errNoReference = errors.New("yt-dlp entry has no URL")

func (i *ytdlpInfo) toMedia() (*ports.ResolvedMedia, error) {
	reference := cmp.Or(i.WebpageURL, i.OriginalURL)
	if reference == "" && i.Type == "url" {
		reference = i.URL
	}
	if reference == "" {
		return nil, errNoReference
	}

	isLive := i.IsLive || i.LiveStatus == "is_live"
	duration := time.Duration(i.Duration * float64(time.Second))
	if isLive {
		duration = 0
	}

	return &ports.ResolvedMedia{
		Title:      i.Title,
		Artist:     cmp.Or(i.Artist, i.Uploader, i.Channel),
		Reference:  reference,
		Duration:   duration,
		IsLive:     isLive,
		SourceName: strings.ToLower(cmp.Or(i.Extractor, i.IEKey, i.ExtractorKey)),
		SourceID:   i.ID,
		ArtworkURL: i.Thumbnail,
		Endpoints:  i.endpoints(),
	}, nil
}

// endpoints lists the audio streams best first: the selected format when it
// is a direct download, then direct downloads by audio bitrate, then
// segmented and relay streams.
func (i *ytdlpInfo) endpoints() []ports.StreamEndpoint {
	if i.Type == "url" {
		return nil
	}

	var endpoints, ranked []ports.StreamEndpoint
	seen := make(map[string]bool)

	if i.URL != "" && i.Protocol != "" {
		selected := ports.StreamEndpoint{URL: i.URL, Protocol: i.Protocol, Bitrate: i.ABR}
		if domain.ClassifyProtocol(i.Protocol).Resumable() {
			endpoints = append(endpoints, selected)
		} else {
			ranked = append(ranked, selected)
		}
		seen[i.URL] = true
	}

	for _, f := range i.Formats {
		if f.URL == "" || seen[f.URL] || f.ACodec == "none" {
			continue
		}
		seen[f.URL] = true
		ranked = append(ranked, ports.StreamEndpoint{
			URL:      f.URL,
			Protocol: f.Protocol,
			Bitrate:  cmp.Or(f.ABR, f.TBR),
		})
	}

	slices.SortStableFunc(ranked, func(a, b ports.StreamEndpoint) int {
		ca, cb := domain.ClassifyProtocol(a.Protocol), domain.ClassifyProtocol(b.Protocol)
		if ca != cb {
			return cmp.Compare(ca, cb)
		}
		return cmp.Compare(b.Bitrate, a.Bitrate)
	})

	return append(endpoints, ranked...)
}

// Ensure YtdlpResolver implements ports.MediaResolver.
var _ ports.MediaResolver = (*YtdlpResolver)(nil)
