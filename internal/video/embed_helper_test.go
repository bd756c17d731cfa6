package video

import (
	"testing"

	"github.com/AdamBeresnev/aibuilders/internal/utils"
	"github.com/stretchr/testify/assert"
)

func TestGetEmbedInfo(t *testing.T) {
	testCases := []struct {
		name   string
		link   *string
		expect EmbedInfo
	}{
		{name: "no link", link: nil, expect: EmbedInfo{Type: EmbedTypeNone}},
		{name: "blank", link: utils.Ptr("  "), expect: EmbedInfo{Type: EmbedTypeNone}},
		{name: "not http", link: utils.Ptr("javascript:alert(1)"), expect: EmbedInfo{Type: EmbedTypeNone}},
		{name: "watch link", link: utils.Ptr("https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42"), expect: EmbedInfo{Type: EmbedTypeYouTube, URL: "https://www.youtube.com/embed/dQw4w9WgXcQ"}},
		{name: "short link", link: utils.Ptr("https://youtu.be/dQw4w9WgXcQ?si=abc"), expect: EmbedInfo{Type: EmbedTypeYouTube, URL: "https://www.youtube.com/embed/dQw4w9WgXcQ"}},
		{name: "embed link", link: utils.Ptr("https://youtube.com/embed/dQw4w9WgXcQ"), expect: EmbedInfo{Type: EmbedTypeYouTube, URL: "https://www.youtube.com/embed/dQw4w9WgXcQ"}},
		{name: "video file", link: utils.Ptr("https://cdn.example.com/demo.MP4"), expect: EmbedInfo{Type: EmbedTypeVideo, URL: "https://cdn.example.com/demo.MP4"}},
		{name: "anything else", link: utils.Ptr("https://demo.example.com/app"), expect: EmbedInfo{Type: EmbedTypeIframe, URL: "https://demo.example.com/app"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, GetEmbedInfo(tc.link))
		})
	}
}
