package view

import (
	"strings"
)

// Control is a direct child of a form
type Control struct {
	Tag   string // input, textarea, label, ...
	Type  string // input type attribute
	Name  string
	Text  string // label text or placeholder
	Value string
}

// Form is the post creation form
type Form struct {
	Id       string
	Action   string
	Children []Control
}

// DefaultForm returns the post creation form layout
func DefaultForm() Form {
	return Form{
		Id:     FormId,
		Action: "/posts",
		Children: []Control{
			{Tag: "label", Name: "title", Text: "Title"},
			{Tag: "input", Type: "text", Name: "title", Text: "Title"},
			{Tag: "label", Name: "author", Text: "Author"},
			{Tag: "input", Type: "text", Name: "author", Text: "Author"},
			{Tag: "label", Name: "body", Text: "Body"},
			{Tag: "textarea", Name: "body", Text: "What do you want to share?"},
			{Tag: "input", Type: "submit", Name: "submit", Value: "Share"},
		},
	}
}

// Fill returns a copy of the form with the value of every named input and
// textarea set from lookup
func (f Form) Fill(lookup func(name string) string) Form {
	filled := f
	filled.Children = make([]Control, len(f.Children))
	for i, control := range f.Children {
		if isField(control) && control.Name != "" {
			control.Value = lookup(control.Name)
		}
		filled.Children[i] = control
	}
	return filled
}

func isField(control Control) bool {
	tag := strings.ToLower(control.Tag)
	return tag == "input" || tag == "textarea"
}

// Serialize walks the direct children in order and collects the non-empty
// values of input and textarea elements keyed by name. Other elements and
// submit inputs are skipped.
func (f Form) Serialize() map[string]string {
	data := map[string]string{}
	for _, control := range f.Children {
		if !isField(control) || strings.EqualFold(control.Type, "submit") {
			continue
		}
		if control.Value != "" {
			data[control.Name] = control.Value
		}
	}
	return data
}
