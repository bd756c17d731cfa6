package video

import (
	"net/url"
	"path"
	"strings"
)

type EmbedType string

const (
	EmbedTypeNone    EmbedType = "none"
	EmbedTypeYouTube EmbedType = "youtube"
	EmbedTypeVideo   EmbedType = "video"
	EmbedTypeIframe  EmbedType = "iframe"
)

// EmbedInfo says how a submission's demo link can be shown inline.
type EmbedInfo struct {
	Type EmbedType `json:"type"`
	URL  string    `json:"url,omitempty"`
}

var videoExtensions = map[string]bool{".mp4": true, ".webm": true, ".ogg": true, ".mov": true}

func GetEmbedInfo(link *string) EmbedInfo {
	if link == nil || strings.TrimSpace(*link) == "" {
		return EmbedInfo{Type: EmbedTypeNone}
	}

	u, err := url.Parse(strings.TrimSpace(*link))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return EmbedInfo{Type: EmbedTypeNone}
	}

	if id := youTubeID(u); id != "" {
		return EmbedInfo{Type: EmbedTypeYouTube, URL: "https://www.youtube.com/embed/" + url.PathEscape(id)}
	}

	if videoExtensions[strings.ToLower(path.Ext(u.Path))] {
		return EmbedInfo{Type: EmbedTypeVideo, URL: u.String()}
	}

	return EmbedInfo{Type: EmbedTypeIframe, URL: u.String()}
}

func youTubeID(u *url.URL) string {
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	switch host {
	case "youtu.be":
		return strings.Trim(u.Path, "/")
	case "youtube.com", "m.youtube.com":
		if u.Path == "/watch" {
			return u.Query().Get("v")
		}
		if id, ok := strings.CutPrefix(u.Path, "/embed/"); ok {
			return strings.Trim(id, "/")
		}
	}
	return ""
}
