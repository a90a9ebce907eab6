package email

import (
	"bytes"
	"strings"
	"testing"

	"github.com/emersion/go-message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/seminar-digest/tests/testutil"
)

func TestExtractBodyPreOrder(t *testing.T) {
	tree := NewPartTree(0)
	root := tree.Add(-1, "multipart/mixed", "")
	alt := tree.Add(root, "multipart/alternative", "")
	tree.Add(alt, "text/plain", "plain")
	tree.Add(alt, "text/html", "<p>html</p>")
	tree.Add(root, "application/pdf", "")

	assert.Equal(t, "plain", ExtractBody(tree))
}

func TestExtractBodyChildrenBeforeSiblings(t *testing.T) {
	tree := NewPartTree(0)
	root := tree.Add(-1, "multipart/mixed", "")
	first := tree.Add(root, "multipart/related", "")
	tree.Add(root, "text/plain", "sibling")
	tree.Add(first, "image/png", "")
	tree.Add(first, "text/html", "nested")

	assert.Equal(t, "nested", ExtractBody(tree))
}

func TestExtractBodyNoTextualPart(t *testing.T) {
	tree := NewPartTree(0)
	root := tree.Add(-1, "multipart/mixed", "")
	tree.Add(root, "application/octet-stream", "")
	tree.Add(root, "image/jpeg", "")

	assert.Equal(t, "", ExtractBody(tree))
	assert.Equal(t, "", ExtractBody(nil))
	assert.Equal(t, "", ExtractBody(NewPartTree(0)))
}

func TestExtractBodyDepthOverflow(t *testing.T) {
	tree := NewPartTree(2)
	n := tree.Add(-1, "multipart/mixed", "")
	n = tree.Add(n, "multipart/mixed", "")
	n = tree.Add(n, "multipart/mixed", "")
	tree.Add(n, "text/plain", "too deep")

	assert.True(t, tree.Nodes[3].Overflow)
	assert.Equal(t, "", ExtractBody(tree))
}

func TestExtractBodyTextBeforeOverflow(t *testing.T) {
	tree := NewPartTree(1)
	root := tree.Add(-1, "multipart/mixed", "")
	tree.Add(root, "text/plain", "shallow")
	deep := tree.Add(root, "multipart/mixed", "")
	tree.Add(deep, "text/plain", "deep")

	assert.Equal(t, "shallow", ExtractBody(tree))
}

func TestBuildPartTree(t *testing.T) {
	e, err := message.Read(strings.NewReader(testutil.MixedAlternativeMessage))
	require.NoError(t, err)

	tree, err := BuildPartTree(e, 0)
	require.NoError(t, err)

	var types []string
	for _, n := range tree.Nodes {
		types = append(types, n.ContentType)
	}
	assert.Equal(t, []string{
		"multipart/mixed",
		"multipart/alternative",
		"text/plain",
		"text/html",
		"application/pdf",
	}, types)
	assert.Equal(t, []int{1, 4}, tree.Nodes[0].Children)
	assert.Equal(t, []int{2, 3}, tree.Nodes[1].Children)
	assert.Equal(t, "Plain body", strings.TrimSpace(ExtractBody(tree)))
}

func TestBuildPartTreeDepthCap(t *testing.T) {
	e, err := message.Read(strings.NewReader(testutil.MixedAlternativeMessage))
	require.NoError(t, err)

	tree, err := BuildPartTree(e, 1)
	require.NoError(t, err)

	// The alternative container sits at depth 1; its leaves overflow.
	assert.Equal(t, "", ExtractBody(tree))
}

func TestBuildPartTreeSinglePart(t *testing.T) {
	raw := "Subject: hi\r\n\r\nhello there\r\n"
	e, err := message.Read(bytes.NewReader([]byte(raw)))
	require.NoError(t, err)

	tree, err := BuildPartTree(e, 0)
	require.NoError(t, err)
	require.Len(t, tree.Nodes, 1)
	assert.Equal(t, "text/plain", tree.Nodes[0].ContentType)
	assert.Equal(t, "hello there\r\n", ExtractBody(tree))
}
