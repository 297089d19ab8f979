package newsfeed

import (
	"fmt"
	"net/url"
	"path"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

const (
	excerptRunes   = 200
	wordsPerMinute = 200
)

// htmlToText returns the visible text of an HTML fragment with whitespace
// collapsed. Plain text passes through unchanged apart from whitespace.
func htmlToText(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return collapseSpace(html)
	}
	doc.Find("script, style, noscript").Remove()
	// ブロック要素の境界で単語がくっつかないよう空白を挟む
	doc.Find("p, br, div, li, h1, h2, h3, h4, h5, h6, blockquote, pre, tr").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml(" ")
	})
	return collapseSpace(doc.Text())
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// excerpt truncates text to at most n runes on a word boundary and appends
// an ellipsis when anything was cut.
func excerpt(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	cut := runes[:n]
	if i := lastSpace(cut); i > n/2 {
		cut = cut[:i]
	}
	return strings.TrimRightFunc(string(cut), func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	}) + "..."
}

func lastSpace(rs []rune) int {
	for i := len(rs) - 1; i >= 0; i-- {
		if unicode.IsSpace(rs[i]) {
			return i
		}
	}
	return -1
}

// readTime estimates reading time at 200 words per minute, minimum one.
func readTime(text string) string {
	words := len(strings.Fields(text))
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("%d min read", minutes)
}

// slugFor derives a URL slug from the item link's last path segment, or
// from the title when the link has none.
func slugFor(link, title string) string {
	if u, err := url.Parse(link); err == nil {
		seg := path.Base(strings.TrimSuffix(u.Path, "/"))
		seg = strings.TrimSuffix(seg, path.Ext(seg))
		if s := slugify(seg); s != "" && seg != "." && seg != "/" {
			return s
		}
	}
	return slugify(title)
}

// slugify lowercases s and joins runs of letters and digits with hyphens.
func slugify(s string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}
