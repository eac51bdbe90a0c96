package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ray-remotestate/tableside/models"
)

// Backend is one place a collection can live. Implementations return errors;
// Collection decides what to do with them.
type Backend[T models.Record] interface {
	Load(ctx context.Context) ([]T, error)
	Save(ctx context.Context, items []T) error
	Add(ctx context.Context, item T) (T, error)
	Update(ctx context.Context, id string, patch models.Patch) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// StoreError reports a failed backend operation.
type StoreError struct {
	Op         string
	Collection string
	Err        error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// ApplyPatch overlays patch onto rec through its JSON form, so patch keys are
// the record's JSON field names.
func ApplyPatch[T any](rec T, patch models.Patch) (T, error) {
	var out T
	raw, err := json.Marshal(rec)
	if err != nil {
		return out, err
	}
	fields := map[string]any{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return out, err
	}
	for k, v := range patch {
		fields[k] = v
	}
	raw, err = json.Marshal(fields)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("applying patch: %w", err)
	}
	return out, nil
}
