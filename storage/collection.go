package storage

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/ray-remotestate/tableside/models"
)

const (
	ModeRemote = "remote"
	ModeLocal  = "local"
)

// Collection is the repository the rest of the app talks to. Every call tries
// the remote backend first and falls back to the local one; no error ever
// reaches the caller. Whether a remote exists is fixed at construction.
type Collection[T models.Record] struct {
	name   string
	remote Backend[T]
	local  Backend[T]
	log    *logrus.Entry
}

// NewCollection builds a collection. remote may be nil.
func NewCollection[T models.Record](name string, remote, local Backend[T], log *logrus.Entry) *Collection[T] {
	return &Collection[T]{
		name:   name,
		remote: remote,
		local:  local,
		log:    log.WithFields(logrus.Fields{"component": "collection", "collection": name}),
	}
}

func (c *Collection[T]) Name() string { return c.name }

func (c *Collection[T]) Mode() string {
	if c.remote != nil {
		return ModeRemote
	}
	return ModeLocal
}

func (c *Collection[T]) Load(ctx context.Context) []T {
	if c.remote != nil {
		items, err := c.remote.Load(ctx)
		if err == nil {
			return items
		}
		c.fallback("load", err)
	}
	items, err := c.local.Load(ctx)
	if err != nil {
		c.failed("load", err)
		return []T{}
	}
	return items
}

func (c *Collection[T]) Save(ctx context.Context, items []T) {
	if c.remote != nil {
		err := c.remote.Save(ctx, items)
		if err == nil {
			c.mirror("save", c.local.Save(ctx, items))
			return
		}
		c.fallback("save", err)
	}
	if err := c.local.Save(ctx, items); err != nil {
		c.failed("save", err)
	}
}

func (c *Collection[T]) Add(ctx context.Context, item T) T {
	if c.remote != nil {
		added, err := c.remote.Add(ctx, item)
		if err == nil {
			_, lerr := c.local.Add(ctx, added)
			c.mirror("add", lerr)
			return added
		}
		c.fallback("add", err)
	}
	added, err := c.local.Add(ctx, item)
	if err != nil {
		c.failed("add", err)
		return item
	}
	return added
}

// Update applies patch to the record with id and reports whether it existed.
func (c *Collection[T]) Update(ctx context.Context, id string, patch models.Patch) bool {
	if c.remote != nil {
		found, err := c.remote.Update(ctx, id, patch)
		if err == nil {
			_, lerr := c.local.Update(ctx, id, patch)
			c.mirror("update", lerr)
			return found
		}
		c.fallback("update", err)
	}
	found, err := c.local.Update(ctx, id, patch)
	if err != nil {
		c.failed("update", err)
		return false
	}
	return found
}

func (c *Collection[T]) Delete(ctx context.Context, id string) bool {
	if c.remote != nil {
		found, err := c.remote.Delete(ctx, id)
		if err == nil {
			_, lerr := c.local.Delete(ctx, id)
			c.mirror("delete", lerr)
			return found
		}
		c.fallback("delete", err)
	}
	found, err := c.local.Delete(ctx, id)
	if err != nil {
		c.failed("delete", err)
		return false
	}
	return found
}

func (c *Collection[T]) entry(op string, err error) *logrus.Entry {
	e := c.log.WithField("op", op).WithError(err)
	var se *StoreError
	if errors.As(err, &se) {
		e = e.WithField("backend_op", se.Op)
	}
	return e
}

func (c *Collection[T]) fallback(op string, err error) {
	c.entry(op, err).Warn("remote store failed, using local files")
}

func (c *Collection[T]) mirror(op string, err error) {
	if err != nil {
		c.entry(op, err).Warn("local mirror write failed")
	}
}

func (c *Collection[T]) failed(op string, err error) {
	c.entry(op, err).Error("local store failed")
}
