package studio

import (
	"net/url"
	"strings"

	"github.com/jimdaga/nextrend/internal/catalog"
)

// ShareURL builds the compose URL for a share target. ok is false for targets
// that have no compose flow.
func ShareURL(target, content string) (string, bool) {
	switch target {
	case catalog.ShareLinkedIn:
		return "https://www.linkedin.com/feed/?shareActive=true&text=" + url.QueryEscape(content), true
	case catalog.ShareFacebook:
		return "https://www.facebook.com/sharer/sharer.php?quote=" + url.QueryEscape(content), true
	case catalog.ShareX:
		return "https://twitter.com/intent/tweet?text=" + url.QueryEscape(content), true
	case catalog.ShareEmail:
		subject, body := splitEmail(content)
		return "mailto:?subject=" + mailtoEscape(subject) + "&body=" + mailtoEscape(body), true
	default:
		return "", false
	}
}

// mailtoEscape encodes spaces as %20; mail clients do not decode "+".
func mailtoEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// splitEmail treats the first line as the subject and the rest as the body.
// A leading "Subject:" label is dropped.
func splitEmail(content string) (subject, body string) {
	content = strings.TrimSpace(content)
	subject, body, _ = strings.Cut(content, "\n")
	subject = strings.TrimSpace(subject)
	if rest, ok := cutPrefixFold(subject, "subject:"); ok {
		subject = strings.TrimSpace(rest)
	}
	return subject, strings.TrimSpace(body)
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		return s[len(prefix):], true
	}
	return s, false
}
