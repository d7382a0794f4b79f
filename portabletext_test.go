package portabletext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ========================================
// Node Tests
// ========================================

func TestNodeKinds(t *testing.T) {
	tests := []struct {
		name     string
		node     *Node
		block    bool
		code     bool
		listItem bool
	}{
		{"block", NewBlock("normal"), true, false, false},
		{"list item", NewListItem("bullet", 1), true, false, true},
		{"code", NewCodeBlock("go", ""), false, true, false},
		{"custom", NewNode("author"), false, false, false},
		{"nil", nil, false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.block, tt.node.IsBlock())
			assert.Equal(t, tt.code, tt.node.IsCode())
			assert.Equal(t, tt.listItem, tt.node.IsListItem())
		})
	}
}

func TestNodeDefaults(t *testing.T) {
	n := &Node{Type: TypeBlock}
	assert.Equal(t, "normal", n.GetStyle())
	assert.Equal(t, 1, n.GetListLevel())
	assert.Equal(t, "", n.GetLanguage())
	assert.Equal(t, "", n.GetText())
}

func TestNodeGetText(t *testing.T) {
	n := NewBlock("normal").AddSpan("Hello ").AddSpan("world", "strong")
	n.Children = append(n.Children, Span{Type: "break"})
	assert.Equal(t, "Hello world", n.GetText())

	code := NewCodeBlock("sh", "ls\n")
	assert.Equal(t, "ls\n", code.GetText())
	assert.Equal(t, "sh", code.GetLanguage())
}

func TestNewBlock(t *testing.T) {
	n := NewBlock("blockquote")
	assert.Equal(t, TypeBlock, n.Type)
	assert.Equal(t, "blockquote", n.GetStyle())
	assert.NotNil(t, n.Children)
	assert.NotNil(t, n.MarkDefs)
	assert.NotNil(t, n.Raw)
	assert.Nil(t, n.ListItem)
	assert.Nil(t, n.Code)
}

func TestNewListItem(t *testing.T) {
	n := NewListItem("number", 2)
	require.NotNil(t, n.ListItem)
	assert.Equal(t, "number", *n.ListItem)
	assert.Equal(t, 2, n.GetListLevel())
	assert.Equal(t, "normal", n.GetStyle())
}

func TestNewCodeBlock(t *testing.T) {
	n := NewCodeBlock("go", "package main")
	assert.Equal(t, TypeCode, n.Type)
	assert.Nil(t, n.Style)
	assert.NotNil(t, n.Children)
	assert.Empty(t, n.Children)
	assert.NotNil(t, n.MarkDefs)
	assert.Empty(t, n.MarkDefs)
	assert.Equal(t, "package main", *n.Code)
}

func TestNodeAddSpan(t *testing.T) {
	n := NewBlock("normal").AddSpan("plain").AddSpan("bold", "strong", "em")
	require.Len(t, n.Children, 2)

	assert.Equal(t, TypeSpan, n.Children[0].Type)
	assert.Equal(t, []string{}, n.Children[0].Marks)
	assert.Equal(t, []string{"strong", "em"}, n.Children[1].Marks)

	n.AddTypedSpan("image-alt", "alt", "k1")
	assert.Equal(t, "image-alt", n.Children[2].Type)
	assert.Equal(t, "alt", *n.Children[2].Text)
}

func TestNodeAddMarkDef(t *testing.T) {
	n := NewBlock("normal").
		AddMarkDef("c1", "comment", nil).
		AddLink("l1", "https://example.com").
		AddImage("i1", "/a.png", Picture{Src: "/a.png"}, "caption")

	require.Len(t, n.MarkDefs, 3)
	assert.NotNil(t, n.MarkDefs[0].Raw)
	assert.Equal(t, "https://example.com", n.FindMarkDef("l1").Href())

	img := n.FindMarkDef("i1")
	assert.Equal(t, TypeImage, img.Type)
	assert.Equal(t, "/a.png", img.Src())
	assert.Equal(t, "caption", img.Caption())
	pic, ok := img.Picture()
	assert.True(t, ok)
	assert.Equal(t, "/a.png", pic.Src)

	_, ok = n.FindMarkDef("l1").Picture()
	assert.False(t, ok)

	noCaption := NewBlock("normal").AddImage("i", "/b.png", Picture{}, "")
	assert.NotContains(t, noCaption.MarkDefs[0].Raw, "caption")
}

func TestMarkDefPictureForms(t *testing.T) {
	p := &Picture{Src: "/p.png", Width: 2}
	md := MarkDef{Raw: map[string]any{"picture": p}}
	got, ok := md.Picture()
	require.True(t, ok)
	assert.Equal(t, *p, got)

	var nilPic *Picture
	md.Raw["picture"] = nilPic
	_, ok = md.Picture()
	assert.False(t, ok)

	md.Raw["picture"] = map[string]any{
		"src": "/m.png", "width": 3.0, "height": 4,
		"sources": []any{map[string]any{"srcset": "/m.png", "type": "image/png", "media": "(min-width: 1px)"}, "junk"},
	}
	got, ok = md.Picture()
	require.True(t, ok)
	assert.Equal(t, Picture{Src: "/m.png", Width: 3, Height: 4, Sources: []PictureSource{
		{Srcset: "/m.png", Type: "image/png", Media: "(min-width: 1px)"},
	}}, got)
}

func TestSpanHasMark(t *testing.T) {
	s := Span{Marks: []string{"strong", "k1"}}
	assert.True(t, s.HasMark("strong"))
	assert.True(t, s.HasMark("k1"))
	assert.False(t, s.HasMark("em"))
	assert.False(t, (&Span{}).HasMark("strong"))
}

func TestNewNode(t *testing.T) {
	n := NewNode("author")
	assert.Equal(t, "author", n.Type)
	assert.NotNil(t, n.Raw)
	assert.Nil(t, n.Style)
}
