package sources

import (
	"encoding/json"
	"testing"

	"github.com/kova98/yars/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeChildren(t *testing.T, children ...thing) []models.Thing {
	t.Helper()
	b, err := json.Marshal(children)
	require.NoError(t, err)
	var out []models.Thing
	require.NoError(t, json.Unmarshal(b, &out))
	return out
}

func TestExtractComments_Nested(t *testing.T) {
	children := decodeChildren(t,
		commentThing("a", "top", 10, listing("",
			commentThing("b", "reply", 3, listing("",
				commentThing("c", "deep", 1, ""),
			)),
			thing{"kind": "more", "data": thing{"count": 12, "children": []string{"x", "y"}}},
		)),
		commentThing("d", "second", -2, ""),
	)

	comments := ExtractComments(children)

	require.Len(t, comments, 2)
	a := comments[0]
	assert.Equal(t, models.Comment{Author: "a", Body: "top", Score: 10, Replies: a.Replies}, a)
	require.Len(t, a.Replies, 1)
	assert.Equal(t, "b", a.Replies[0].Author)
	require.Len(t, a.Replies[0].Replies, 1)
	assert.Equal(t, "deep", a.Replies[0].Replies[0].Body)
	assert.NotNil(t, a.Replies[0].Replies[0].Replies)
	assert.Empty(t, a.Replies[0].Replies[0].Replies)

	assert.Equal(t, -2, comments[1].Score)
	assert.NotNil(t, comments[1].Replies)
	assert.Empty(t, comments[1].Replies)

	assert.Equal(t, 4, CountComments(comments))
}

func TestExtractComments_EmptyInputs(t *testing.T) {
	assert.Empty(t, ExtractComments(nil))
	assert.NotNil(t, ExtractComments(nil))

	only := decodeChildren(t, thing{"kind": "more", "data": thing{"count": 3}})
	assert.Empty(t, ExtractComments(only))
}

func TestExtractComments_NullRepliesAndBadData(t *testing.T) {
	children := decodeChildren(t,
		commentThing("a", "null replies", 1, nil),
		thing{"kind": "t1", "data": "not an object"},
		thing{"kind": "t3", "data": thing{"title": "a link"}},
	)

	comments := ExtractComments(children)

	require.Len(t, comments, 1)
	assert.Equal(t, "a", comments[0].Author)
	assert.Empty(t, comments[0].Replies)
}

func TestExtractComments_Idempotent(t *testing.T) {
	children := decodeChildren(t,
		commentThing("a", "top", 1, listing("", commentThing("b", "reply", 2, ""))),
	)

	assert.Equal(t, ExtractComments(children), ExtractComments(children))
}

func TestExtractComments_DeepChain(t *testing.T) {
	node := commentThing("leaf", "leaf", 0, "")
	for i := 0; i < 200; i++ {
		node = commentThing("n", "level", i, listing("", node))
	}

	comments := ExtractComments(decodeChildren(t, node))

	assert.Equal(t, 201, CountComments(comments))
}
