package enhance

import (
	"sync"

	"golang.org/x/net/html"

	"github.com/alnah/go-mdslides/internal/pipeline"
)

// View is a live slide fragment. All reads and writes are serialized.
type View struct {
	mu       sync.Mutex
	root     *html.Node
	rendered string
	writes   int
	onChange func(string)
}

// NewView parses fragment into a new View.
func NewView(fragment string) (*View, error) {
	root, err := pipeline.ParseFragment(fragment)
	if err != nil {
		return nil, err
	}
	rendered, err := pipeline.RenderFragment(root)
	if err != nil {
		return nil, err
	}
	return &View{root: root, rendered: rendered}, nil
}

// HTML returns the current markup of the view.
func (v *View) HTML() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.rendered
}

// Writes returns the number of committed DOM writes.
func (v *View) Writes() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.writes
}

// OnChange registers fn to receive the markup after every committed write.
// fn is called without the view lock held.
func (v *View) OnChange(fn func(string)) {
	v.mu.Lock()
	v.onChange = fn
	v.mu.Unlock()
}

// read runs fn against the tree under the lock.
func (v *View) read(fn func(root *html.Node)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fn(v.root)
}

// mutate runs fn under the lock if relevant still holds. fn reports whether
// it changed the tree. mutate reports whether a write was committed.
func (v *View) mutate(relevant func() bool, fn func(root *html.Node) bool) bool {
	v.mu.Lock()
	if relevant != nil && !relevant() {
		v.mu.Unlock()
		return false
	}
	if !fn(v.root) {
		v.mu.Unlock()
		return false
	}

	v.writes++
	if rendered, err := pipeline.RenderFragment(v.root); err == nil {
		v.rendered = rendered
	}
	rendered, onChange := v.rendered, v.onChange
	v.mu.Unlock()

	if onChange != nil {
		onChange(rendered)
	}
	return true
}
