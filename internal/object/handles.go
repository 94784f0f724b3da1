package object

import (
	"errors"
	"io"
	"sort"
)

// Handles holds host resources opened by native functions, keyed by the
// numeric handle given to the script.
type Handles struct {
	items map[int64]any
}

func NewHandles() *Handles {
	return &Handles{items: make(map[int64]any)}
}

func (h *Handles) Put(id int64, item any) {
	h.items[id] = item
}

func (h *Handles) Get(id int64) (any, bool) {
	item, ok := h.items[id]
	return item, ok
}

// Remove forgets the handle and returns what it referred to.
func (h *Handles) Remove(id int64) (any, bool) {
	item, ok := h.items[id]
	delete(h.items, id)
	return item, ok
}

func (h *Handles) Len() int {
	return len(h.items)
}

// CloseAll closes every resource that implements io.Closer, oldest handle
// first, and forgets all handles.
func (h *Handles) CloseAll() error {
	ids := make([]int64, 0, len(h.items))
	for id := range h.items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var errs []error
	for _, id := range ids {
		if c, ok := h.items[id].(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	h.items = make(map[int64]any)
	return errors.Join(errs...)
}
