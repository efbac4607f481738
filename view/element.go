package view

import (
	"fmt"
	"html/template"
	"strings"
	"sync"

	"github.com/samber/lo"
)

// Element is a rendered fragment of the page
type Element struct {
	Tag   string
	Id    string
	Class string

	mu     sync.RWMutex
	inner  template.HTML
	parent *Container
}

// SetInner replaces the element contents
func (el *Element) SetInner(html template.HTML) {
	el.mu.Lock()
	defer el.mu.Unlock()
	el.inner = html
}

func (el *Element) Inner() template.HTML {
	el.mu.RLock()
	defer el.mu.RUnlock()
	return el.inner
}

// HTML returns the element including its own tag
func (el *Element) HTML() template.HTML {
	var attrs []string
	if el.Id != "" {
		attrs = append(attrs, fmt.Sprintf(` id="%s"`, template.HTMLEscapeString(el.Id)))
	}
	if el.Class != "" {
		attrs = append(attrs, fmt.Sprintf(` class="%s"`, template.HTMLEscapeString(el.Class)))
	}
	return template.HTML(fmt.Sprintf("<%s%s>%s</%s>", el.Tag, strings.Join(attrs, ""), el.Inner(), el.Tag))
}

// Parent returns the container holding the element, or nil once removed
func (el *Element) Parent() *Container {
	el.mu.RLock()
	defer el.mu.RUnlock()
	return el.parent
}

func (el *Element) setParent(c *Container) {
	el.mu.Lock()
	defer el.mu.Unlock()
	el.parent = c
}

// Remove detaches the element from its container
func (el *Element) Remove() {
	if parent := el.Parent(); parent != nil {
		parent.Remove(el)
	}
}

// Container is an element holding an ordered list of child elements
type Container struct {
	Id string

	mu       sync.RWMutex
	children []*Element
}

func NewContainer(id string) *Container {
	return &Container{Id: id}
}

// Append adds el as the last child, moving it if it already has a parent
func (c *Container) Append(el *Element) {
	if parent := el.Parent(); parent != nil && parent != c {
		parent.Remove(el)
	}

	c.mu.Lock()
	c.children = append(lo.Without(c.children, el), el)
	c.mu.Unlock()

	el.setParent(c)
}

// Remove detaches el if it is a child
func (c *Container) Remove(el *Element) {
	c.mu.Lock()
	found := lo.Contains(c.children, el)
	c.children = lo.Without(c.children, el)
	c.mu.Unlock()

	if found {
		el.setParent(nil)
	}
}

// Empty detaches every child
func (c *Container) Empty() {
	c.mu.Lock()
	children := c.children
	c.children = nil
	c.mu.Unlock()

	for _, el := range children {
		el.setParent(nil)
	}
}

// Children returns the child elements in order
func (c *Container) Children() []*Element {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*Element{}, c.children...)
}

func (c *Container) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.children)
}
