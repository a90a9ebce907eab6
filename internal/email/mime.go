package email

import (
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-message"
)

// maxTextBytes bounds how much of a single textual part is kept.
const maxTextBytes = 1 << 20

// DefaultMaxPartDepth is used when no depth cap is configured.
const DefaultMaxPartDepth = 32

// PartNode is one body part. Container parts have children; leaves of a
// textual media type carry their decoded text.
type PartNode struct {
	ContentType string
	Text        string
	Children    []int
	Depth       int

	// Overflow marks a part that sits deeper than the tree's depth cap.
	// It is never descended into.
	Overflow bool
}

// PartTree is an owned, flattened body-part tree. Node 0 is the root and
// children are referenced by index in document order.
type PartTree struct {
	Nodes    []PartNode
	MaxDepth int
}

// NewPartTree returns an empty tree whose nodes may be at most maxDepth
// levels below the root. maxDepth <= 0 selects DefaultMaxPartDepth.
func NewPartTree(maxDepth int) *PartTree {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxPartDepth
	}
	return &PartTree{MaxDepth: maxDepth}
}

// Add appends a part under parent and returns its index. A negative parent
// adds the root; the root may only be added once.
func (t *PartTree) Add(parent int, contentType, text string) int {
	depth := 0
	if parent >= 0 {
		depth = t.Nodes[parent].Depth + 1
	} else if len(t.Nodes) > 0 {
		panic("email: part tree already has a root")
	}

	idx := len(t.Nodes)
	t.Nodes = append(t.Nodes, PartNode{
		ContentType: strings.ToLower(contentType),
		Text:        text,
		Depth:       depth,
		Overflow:    depth > t.MaxDepth,
	})
	if parent >= 0 {
		t.Nodes[parent].Children = append(t.Nodes[parent].Children, idx)
	}
	return idx
}

// ExtractBody returns the text of the first part whose content type starts
// with "text/", visiting parts in pre-order, children before later
// siblings. It returns "" when no textual part exists or when the walk
// reaches a part beyond the depth cap first.
func ExtractBody(t *PartTree) string {
	if t == nil || len(t.Nodes) == 0 {
		return ""
	}

	stack := []int{0}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := &t.Nodes[i]
		if n.Overflow {
			return ""
		}
		if strings.HasPrefix(n.ContentType, "text/") {
			return n.Text
		}
		for c := len(n.Children) - 1; c >= 0; c-- {
			stack = append(stack, n.Children[c])
		}
	}
	return ""
}

// multipartFrame is an open container whose parts are still being read.
type multipartFrame struct {
	mr   message.MultipartReader
	node int
}

// BuildPartTree reads a parsed message into a PartTree. Multipart bodies
// are streamed, so nested containers are pushed on an explicit stack and
// drained before their parent continues.
func BuildPartTree(e *message.Entity, maxDepth int) (*PartTree, error) {
	t := NewPartTree(maxDepth)

	root := t.Add(-1, mediaType(e), "")
	var stack []multipartFrame

	f, err := t.fill(root, e)
	if err != nil {
		return t, err
	}
	if f != nil {
		stack = append(stack, *f)
	}

	for len(stack) > 0 {
		top := stack[len(stack)-1]

		part, err := top.mr.NextPart()
		if err == io.EOF {
			stack = stack[:len(stack)-1]
			continue
		}
		if err != nil && !message.IsUnknownCharset(err) {
			return t, fmt.Errorf("reading part of node %d: %w", top.node, err)
		}
		if part == nil {
			return t, fmt.Errorf("reading part of node %d: empty part", top.node)
		}

		child := t.Add(top.node, mediaType(part), "")
		f, err := t.fill(child, part)
		if err != nil {
			return t, err
		}
		if f != nil {
			stack = append(stack, *f)
		}
	}

	return t, nil
}

// fill loads the text of a textual leaf, or returns a frame for a
// container. Parts past the depth cap are left untouched.
func (t *PartTree) fill(idx int, e *message.Entity) (*multipartFrame, error) {
	n := &t.Nodes[idx]
	if n.Overflow {
		return nil, nil
	}

	if mr := e.MultipartReader(); mr != nil {
		return &multipartFrame{mr: mr, node: idx}, nil
	}

	if !strings.HasPrefix(n.ContentType, "text/") {
		return nil, nil
	}

	body, err := io.ReadAll(io.LimitReader(e.Body, maxTextBytes))
	if err != nil {
		return nil, fmt.Errorf("reading %s body: %w", n.ContentType, err)
	}
	n.Text = string(body)
	return nil, nil
}

// mediaType returns the lower-cased media type of an entity, defaulting to
// text/plain when the header is absent or unparsable.
func mediaType(e *message.Entity) string {
	t, _, err := e.Header.ContentType()
	if err != nil || t == "" {
		return "text/plain"
	}
	return strings.ToLower(t)
}
