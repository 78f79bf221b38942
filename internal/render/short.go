package render

import (
	"fmt"
	"time"
)

// ShortPost renders the condensed channel post: a dated header, the overview
// text, and a link to the long-form article.
func ShortPost(summary, articleURL string, date time.Time) string {
	return fmt.Sprintf("📰 *News digest for %s*\n\n%s\n\n📖 [Read the full story](%s)\n",
		date.Format("2 January 2006"), summary, articleURL)
}
