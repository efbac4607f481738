package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Default values for fields left blank when a post is created
const (
	DefaultTitle  = "No title"
	DefaultAuthor = "No author"
	DefaultBody   = "NA"
)

// Post is a single shared post
type Post struct {
	Id     string    `json:"id"`
	Title  string    `json:"title"`
	Author string    `json:"author"`
	Date   time.Time `json:"date"`
	Body   string    `json:"body"`

	// Extra holds submitted fields that are not part of the post model
	Extra map[string]string `json:"-"`
}

// NewPost merges fields over the defaults. The date defaults to now, which is
// the creation time of this post. A new id is always assigned.
func NewPost(fields map[string]string, now time.Time) Post {
	post := Post{
		Id:     uuid.New().String(),
		Title:  DefaultTitle,
		Author: DefaultAuthor,
		Date:   now,
		Body:   DefaultBody,
	}

	for key, value := range fields {
		switch key {
		case "id":
			// Ids are owned by the store
		case "title":
			post.Title = value
		case "author":
			post.Author = value
		case "body":
			post.Body = value
		case "date":
			if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
				post.Date = t
			}
		default:
			if post.Extra == nil {
				post.Extra = make(map[string]string)
			}
			post.Extra[key] = value
		}
	}

	return post
}

// Attributes returns every field of the post keyed by name, the way templates
// and the JSON record see them
func (p Post) Attributes() map[string]string {
	attrs := make(map[string]string, len(p.Extra)+5)
	for key, value := range p.Extra {
		attrs[key] = value
	}
	attrs["id"] = p.Id
	attrs["title"] = p.Title
	attrs["author"] = p.Author
	attrs["date"] = p.Date.Format(time.RFC3339Nano)
	attrs["body"] = p.Body
	return attrs
}

// MarshalJSON writes the post as a flat record including extra attributes
func (p Post) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Attributes())
}

// UnmarshalJSON reads a flat record written by MarshalJSON
func (p *Post) UnmarshalJSON(data []byte) error {
	var attrs map[string]string
	if err := json.Unmarshal(data, &attrs); err != nil {
		return err
	}

	*p = Post{
		Id:     attrs["id"],
		Title:  attrs["title"],
		Author: attrs["author"],
		Body:   attrs["body"],
	}
	if date, ok := attrs["date"]; ok && date != "" {
		t, err := time.Parse(time.RFC3339Nano, date)
		if err != nil {
			return err
		}
		p.Date = t
	}

	for key, value := range attrs {
		switch key {
		case "id", "title", "author", "date", "body":
			continue
		}
		if p.Extra == nil {
			p.Extra = make(map[string]string)
		}
		p.Extra[key] = value
	}
	return nil
}

// AddPostEvent fired when a post is added to the collection
type AddPostEvent struct {
	Post Post
}

// RemovePostEvent fired when a post is removed from the collection
type RemovePostEvent struct {
	Post Post
}

// ResetEvent fired when the collection contents are replaced by a fetch
type ResetEvent struct {
	Posts []Post
}

// AlertEvent fired when a route handler raises an alert
type AlertEvent struct {
	Message string `json:"message"`
}
