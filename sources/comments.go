package sources

import (
	"encoding/json"

	"github.com/kova98/yars/enums"
	"github.com/kova98/yars/models"
)

// ExtractComments converts the children of a comment listing into a tree of
// comments. Only t1 nodes contribute; "more" stubs, other kinds, and nodes
// whose data does not decode are dropped. Replies are followed to whatever
// depth the input has.
func ExtractComments(children []models.Thing) []models.Comment {
	comments := make([]models.Comment, 0, len(children))
	for _, child := range children {
		if child.Kind != enums.KindComment {
			continue
		}

		var data models.CommentData
		if err := json.Unmarshal(child.Data, &data); err != nil {
			continue
		}

		comment := models.Comment{
			Author:  data.Author,
			Body:    data.Body,
			Score:   data.Score,
			Replies: []models.Comment{},
		}
		if data.Replies.Listing != nil {
			comment.Replies = ExtractComments(data.Replies.Listing.Data.Children)
		}

		comments = append(comments, comment)
	}
	return comments
}

// CountComments returns the number of comments in the tree.
func CountComments(comments []models.Comment) int {
	n := len(comments)
	for _, c := range comments {
		n += CountComments(c.Replies)
	}
	return n
}
