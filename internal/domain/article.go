package domain

import "encoding/json"

// Article is a long-form rendering of a structured summary, ready to be
// published to an article host.
type Article struct {
	Title      string
	AuthorName string
	Content    []ArticleNode
}

// ArticleNode is one node of an article body. A node is either plain text
// (Text set, Tag empty) or an element with an optional child list.
type ArticleNode struct {
	Tag      string
	Text     string
	Children []ArticleNode
}

// TextNode builds a plain text node.
func TextNode(text string) ArticleNode {
	return ArticleNode{Text: text}
}

// ElementNode builds an element node with children.
func ElementNode(tag string, children ...ArticleNode) ArticleNode {
	return ArticleNode{Tag: tag, Children: children}
}

// MarshalJSON renders text nodes as bare strings and element nodes as
// {"tag": ..., "children": [...]}, the wire shape article hosts expect.
func (n ArticleNode) MarshalJSON() ([]byte, error) {
	if n.Tag == "" {
		return json.Marshal(n.Text)
	}

	type element struct {
		Tag      string        `json:"tag"`
		Children []ArticleNode `json:"children,omitempty"`
	}

	return json.Marshal(element{Tag: n.Tag, Children: n.Children})
}
