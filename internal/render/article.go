package render

import (
	"fmt"
	"strings"
	"time"

	"ChannelDigest/internal/domain"
)

const fallbackIcon = "📍"

// Article renders a structured summary as a long-form article: the overview
// paragraphs first, then one heading block per category.
func Article(summary domain.StructuredSummary, categories []domain.Category, authorName string, date time.Time) domain.Article {
	icons := make(map[string]string, len(categories))
	for _, cat := range categories {
		icons[cat.ID] = cat.Icon
	}

	var nodes []domain.ArticleNode
	nodes = append(nodes, paragraphs(summary.Summary)...)

	for _, section := range summary.Categories {
		if section.Content == "" {
			continue
		}

		icon := icons[section.CategoryID]
		if icon == "" {
			icon = fallbackIcon
		}

		nodes = append(nodes, domain.ElementNode("h3", domain.TextNode(fmt.Sprintf("%s %s", icon, section.Title))))
		nodes = append(nodes, paragraphs(section.Content)...)
	}

	return domain.Article{
		Title:      fmt.Sprintf("News digest for %s", date.Format("2 January 2006")),
		AuthorName: authorName,
		Content:    nodes,
	}
}

// paragraphs splits text on blank lines into paragraph nodes; line breaks
// inside a paragraph become <br> elements.
func paragraphs(text string) []domain.ArticleNode {
	var nodes []domain.ArticleNode
	for _, block := range strings.Split(text, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		nodes = append(nodes, paragraphNode(block))
	}
	return nodes
}

func paragraphNode(text string) domain.ArticleNode {
	lines := strings.Split(text, "\n")
	if len(lines) == 1 {
		return domain.ElementNode("p", domain.TextNode(text))
	}

	children := make([]domain.ArticleNode, 0, 2*len(lines)-1)
	for i, line := range lines {
		if i > 0 {
			children = append(children, domain.ElementNode("br"))
		}
		children = append(children, domain.TextNode(line))
	}
	return domain.ElementNode("p", children...)
}
