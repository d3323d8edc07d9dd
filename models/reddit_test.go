package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplies_EmptyStringMeansNoReplies(t *testing.T) {
	var c CommentData
	require.NoError(t, json.Unmarshal([]byte(`{"author":"a","replies":""}`), &c))
	assert.Nil(t, c.Replies.Listing)
}

func TestReplies_NullMeansNoReplies(t *testing.T) {
	var c CommentData
	require.NoError(t, json.Unmarshal([]byte(`{"author":"a","replies":null}`), &c))
	assert.Nil(t, c.Replies.Listing)
}

func TestReplies_Listing(t *testing.T) {
	raw := `{"author":"a","replies":{"kind":"Listing","data":{"children":[{"kind":"t1","data":{"author":"b"}}]}}}`
	var c CommentData
	require.NoError(t, json.Unmarshal([]byte(raw), &c))
	require.NotNil(t, c.Replies.Listing)
	assert.Len(t, c.Replies.Listing.Data.Children, 1)
	assert.Equal(t, "t1", string(c.Replies.Listing.Data.Children[0].Kind))
}

func TestListingData_NullAfter(t *testing.T) {
	var l Listing
	require.NoError(t, json.Unmarshal([]byte(`{"kind":"Listing","data":{"children":[],"after":null}}`), &l))
	assert.Equal(t, "", l.Data.After)
	assert.NotNil(t, l.Data.Children)
}

func TestUserItem_Types(t *testing.T) {
	items := []UserItem{UserPost{Type: UserItemPost}, UserComment{Type: UserItemComment}}
	assert.Equal(t, "post", items[0].ItemType())
	assert.Equal(t, "comment", items[1].ItemType())
}
