package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ray-remotestate/tableside/models"
)

// LocalCollection is a Backend over one FileStore file.
type LocalCollection[T models.Record] struct {
	store *FileStore
	name  string
}

func NewLocalCollection[T models.Record](store *FileStore, name string) *LocalCollection[T] {
	return &LocalCollection[T]{store: store, name: name}
}

func (c *LocalCollection[T]) decode(raw json.RawMessage) ([]T, error) {
	items := []T{}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, &StoreError{Op: "decode", Collection: c.name, Err: err}
	}
	return items, nil
}

func (c *LocalCollection[T]) validate(raw json.RawMessage) error {
	_, err := c.decode(raw)
	return err
}

func (c *LocalCollection[T]) Load(_ context.Context) ([]T, error) {
	raw, err := c.store.Load(c.name, c.validate)
	if err != nil {
		return nil, &StoreError{Op: "load", Collection: c.name, Err: err}
	}
	return c.decode(raw)
}

func (c *LocalCollection[T]) Save(_ context.Context, items []T) error {
	if items == nil {
		items = []T{}
	}
	if err := c.store.Save(c.name, items); err != nil {
		return &StoreError{Op: "save", Collection: c.name, Err: err}
	}
	return nil
}

// Add appends item, or replaces the stored record with the same id.
func (c *LocalCollection[T]) Add(_ context.Context, item T) (T, error) {
	err := c.store.Mutate(c.name, c.validate, func(raw json.RawMessage) (any, error) {
		items, err := c.decode(raw)
		if err != nil {
			return nil, err
		}
		for i := range items {
			if items[i].RecordID() == item.RecordID() {
				items[i] = item
				return items, nil
			}
		}
		return append(items, item), nil
	})
	if err != nil {
		return item, &StoreError{Op: "add", Collection: c.name, Err: err}
	}
	return item, nil
}

func (c *LocalCollection[T]) Update(_ context.Context, id string, patch models.Patch) (bool, error) {
	found := false
	err := c.store.Mutate(c.name, c.validate, func(raw json.RawMessage) (any, error) {
		items, err := c.decode(raw)
		if err != nil {
			return nil, err
		}
		for i := range items {
			if items[i].RecordID() != id {
				continue
			}
			updated, err := ApplyPatch(items[i], patch)
			if err != nil {
				return nil, err
			}
			if updated.RecordID() != id {
				return nil, fmt.Errorf("patch may not change the id of %s", id)
			}
			items[i] = updated
			found = true
			return items, nil
		}
		return nil, nil
	})
	if err != nil {
		return false, &StoreError{Op: "update", Collection: c.name, Err: err}
	}
	return found, nil
}

func (c *LocalCollection[T]) Delete(_ context.Context, id string) (bool, error) {
	found := false
	err := c.store.Mutate(c.name, c.validate, func(raw json.RawMessage) (any, error) {
		items, err := c.decode(raw)
		if err != nil {
			return nil, err
		}
		kept := items[:0]
		for _, it := range items {
			if it.RecordID() == id {
				found = true
				continue
			}
			kept = append(kept, it)
		}
		if !found {
			return nil, nil
		}
		return kept, nil
	})
	if err != nil {
		return false, &StoreError{Op: "delete", Collection: c.name, Err: err}
	}
	return found, nil
}
