package data

import (
	"testing"

	"github.com/kova98/yars/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoredPost_Comments(t *testing.T) {
	var p StoredPost

	empty, err := p.Comments()
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	require.NoError(t, p.SetComments(nil))
	assert.Equal(t, "[]", p.CommentsRaw)

	tree := []models.Comment{{Author: "a", Body: "b", Score: 1, Replies: []models.Comment{}}}
	require.NoError(t, p.SetComments(tree))
	got, err := p.Comments()
	require.NoError(t, err)
	assert.Equal(t, tree, got)

	p.CommentsRaw = "{broken"
	_, err = p.Comments()
	assert.Error(t, err)
}

func TestOpen_SQLiteMigrates(t *testing.T) {
	db, err := Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer db.Close()

	var tables []string
	require.NoError(t, db.Select(&tables, `SELECT name FROM sqlite_master WHERE type = 'table' AND name IN ('posts', 'scrape_runs') ORDER BY name`))
	assert.Equal(t, []string{"posts", "scrape_runs"}, tables)
}

func TestWithTimeFormat(t *testing.T) {
	assert.Equal(t, ":memory:?_time_format=sqlite", withTimeFormat(":memory:"))
	assert.Equal(t, "file:yars.db?cache=shared&_time_format=sqlite", withTimeFormat("file:yars.db?cache=shared"))
	assert.Equal(t, "yars.db?_time_format=sqlite", withTimeFormat("yars.db?_time_format=sqlite"))
}
