package view

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"shareanything/models"
	"shareanything/store"
)

// PostView renders a single post into an <article class="post"> element
type PostView struct {
	Post models.Post

	el    *Element
	posts *store.Posts
	tmpl  *template.Template
}

func NewPostView(post models.Post, posts *store.Posts, tmpl *template.Template) *PostView {
	return &PostView{
		Post:  post,
		posts: posts,
		tmpl:  tmpl,
		el: &Element{
			Tag:   "article",
			Id:    "post-" + post.Id,
			Class: "post",
		},
	}
}

// El returns the view's element
func (v *PostView) El() *Element {
	return v.el
}

// Render replaces the element contents with the post template applied to the
// post's fields and returns the element
func (v *PostView) Render() (*Element, error) {
	var buf bytes.Buffer
	if err := v.tmpl.ExecuteTemplate(&buf, TemplateId, templateData(v.Post)); err != nil {
		return v.el, fmt.Errorf("render error: %w", err)
	}
	v.el.SetInner(template.HTML(buf.String()))
	return v.el, nil
}

// DeletePost destroys the post in the collection and storage, then removes
// the view's element from the page
func (v *PostView) DeletePost(ctx context.Context) error {
	if err := v.posts.Destroy(ctx, v.Post.Id); err != nil {
		return err
	}
	v.Remove()
	return nil
}

// Remove detaches the element from its container
func (v *PostView) Remove() {
	v.el.Remove()
}

func templateData(post models.Post) map[string]interface{} {
	data := make(map[string]interface{}, len(post.Extra)+5)
	for key, value := range post.Attributes() {
		data[key] = value
	}
	data["date"] = post.Date
	return data
}
