package dom

import (
	"strconv"
	"strings"

	"github.com/xlab/treeprint"
)

// Dump renders the tree rooted at id as an indented outline, one branch per
// node. Text is truncated so long runs don't swamp the output.
func (t *Tree) Dump(id NodeID) string {
	root := treeprint.New()
	root.SetValue(t.label(id))
	t.addBranches(root, id)
	return root.String()
}

func (t *Tree) addBranches(branch treeprint.Tree, id NodeID) {
	for _, c := range t.Get(id).Children {
		child := branch.AddBranch(t.label(c))
		t.addBranches(child, c)
	}
}

func (t *Tree) label(id NodeID) string {
	n := t.Get(id)
	if n.Type == TextNode {
		text := strings.TrimSpace(n.Text)
		if len(text) > 40 {
			text = text[:40] + "..."
		}
		return "#text " + strconv.Quote(text)
	}
	var sb strings.Builder
	sb.WriteByte('<')
	sb.WriteString(n.TagName)
	for _, a := range n.Attributes {
		sb.WriteByte(' ')
		sb.WriteString(a.Name)
		if a.Value != "" {
			sb.WriteString("=")
			sb.WriteString(strconv.Quote(a.Value))
		}
	}
	sb.WriteByte('>')
	return sb.String()
}
