package perflog

import (
	"strconv"
	"strings"
)

// NodeType mirrors the DOM nodeType constants the trackers care about.
type NodeType int

const (
	ElementNode NodeType = 1
	TextNode    NodeType = 3
)

// Node describes a DOM node referenced by an entry. Browsers cannot
// serialise live nodes, so sources describe them with this shape.
type Node struct {
	NodeType  NodeType `json:"nodeType"`
	NodeName  string   `json:"nodeName,omitempty"`
	ID        string   `json:"id,omitempty"`
	ClassName string   `json:"className,omitempty"`
	Text      string   `json:"text,omitempty"`
	Parent    *Node    `json:"parent,omitempty"`
}

// Inspectable returns the node to show a developer. Text nodes are replaced
// by their parent element, or nil when they have none.
func (n *Node) Inspectable() *Node {
	if n == nil {
		return nil
	}
	if n.NodeType == TextNode {
		return n.Parent
	}
	return n
}

const nodeTextLimit = 40

func (n *Node) String() string {
	if n == nil {
		return "null"
	}
	var b strings.Builder
	switch n.NodeType {
	case TextNode:
		b.WriteString("#text ")
		text := n.Text
		if runes := []rune(text); len(runes) > nodeTextLimit {
			text = string(runes[:nodeTextLimit]) + "…"
		}
		b.WriteString(strconv.Quote(text))
	default:
		name := strings.ToLower(n.NodeName)
		if name == "" {
			name = "node"
		}
		b.WriteByte('<')
		b.WriteString(name)
		if n.ID != "" {
			b.WriteString(` id=`)
			b.WriteString(strconv.Quote(n.ID))
		}
		if n.ClassName != "" {
			b.WriteString(` class=`)
			b.WriteString(strconv.Quote(n.ClassName))
		}
		b.WriteByte('>')
	}
	return b.String()
}

// Rect is a DOMRectReadOnly.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// edges renders top, right, bottom and left, each padded to four columns.
func (r Rect) edges() string {
	return pad(jsNumber(r.Top), 4) + " " +
		pad(jsNumber(r.Right), 4) + " " +
		pad(jsNumber(r.Bottom), 4) + " " +
		pad(jsNumber(r.Left), 4)
}
