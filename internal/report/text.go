package report

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/encoding/charmap"
)

// StripMarkup убирает HTML-разметку из описаний плейлистов
func StripMarkup(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return doc.Text()
}

// pdfText готовит строку для встроенных шрифтов PDF: без разметки, в cp1252.
// Символы вне кодировки отбрасываются.
func pdfText(s string) string {
	s = StripMarkup(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if c, ok := charmap.Windows1252.EncodeRune(r); ok {
			b.WriteByte(c)
		}
	}
	return b.String()
}
