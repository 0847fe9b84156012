package controller

import (
	"fmt"
	"slices"
	"time"

	"github.com/aoideee/bookshelf/internal/data"
)

func (c *Controller) addNotice(msg data.MessageID, detail string) {
	c.noticesMu.Lock()
	defer c.noticesMu.Unlock()

	c.notices = append(c.notices, Notice{
		ID:        c.nextNotice,
		Message:   msg,
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
	})
	c.nextNotice++
}

// Notices returns the notices that have not been dismissed, oldest first.
func (c *Controller) Notices() []Notice {
	c.noticesMu.Lock()
	defer c.noticesMu.Unlock()
	return slices.Clone(c.notices)
}

// Dismiss removes the notice with the given id.
func (c *Controller) Dismiss(id int) error {
	c.noticesMu.Lock()
	defer c.noticesMu.Unlock()

	i := slices.IndexFunc(c.notices, func(n Notice) bool { return n.ID == id })
	if i < 0 {
		return fmt.Errorf("notice %d: %w", id, data.ErrRecordNotFound)
	}
	c.notices = slices.Delete(c.notices, i, i+1)
	return nil
}
