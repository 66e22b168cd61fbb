package bot

import (
	"regexp"
	"strings"
)

// supportedDomains is the allow-list of platforms the extraction service
// handles. Matching is substring containment on the lower-cased text.
var supportedDomains = []string{
	// Video platforms
	"youtube.com",
	"youtu.be",
	"tiktok.com",
	"instagram.com",
	"facebook.com",
	"twitter.com",
	"x.com",
	"vimeo.com",
	"bilibili.com",
	"bluesky.com",
	"bsky.app",
	"dailymotion.com",
	"loom.com",
	"ok.ru",
	"pinterest.com",
	"pin.it",
	"reddit.com",
	"rutube.ru",
	"snapchat.com",
	"soundcloud.com",
	"streamable.com",
	"tumblr.com",
	"twitch.tv",
	"vk.com",
	"xiaohongshu.com",
}

var urlPattern = regexp.MustCompile(`https?://(?:[-\w.]|(?:%[\da-fA-F]{2}))+[/\w.-]*(?:\?[-\w%&=.]*)?\S*`)

// extractURL returns the first URL found in text, or "" when none matches.
func extractURL(text string) string {
	return urlPattern.FindString(text)
}

// matchesSupportedDomain reports whether text contains any allow-listed
// domain substring.
func matchesSupportedDomain(text string) bool {
	lower := strings.ToLower(text)
	for _, domain := range supportedDomains {
		if strings.Contains(lower, domain) {
			return true
		}
	}
	return false
}

// requestURL locates the URL to hand to extraction: an explicit URL match
// when present, otherwise the raw text itself (which already matched a
// supported domain).
func requestURL(text string) string {
	if url := extractURL(text); url != "" {
		return url
	}
	return text
}
