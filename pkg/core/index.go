package core

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/go-drift/arbor/pkg/errors"
	"github.com/go-drift/arbor/pkg/metrics"
)

func (a *Arena) rekey(op string, e *Element, key string) error {
	old := e.key
	if key == old {
		return nil
	}
	if key != "" {
		if h, ok := a.index[key]; ok && h != e.handle {
			if holder := a.get(h); holder != nil {
				metrics.KeyCollisions.Inc()
				return &errors.Error{
					Op:   op,
					Kind: errors.KindKeyCollision,
					Key:  key,
					Err:  fmt.Errorf("key already held by %s", holder),
				}
			}
		}
	}
	if old != "" {
		if h, ok := a.index[old]; ok && h == e.handle {
			delete(a.index, old)
		}
	}
	if key != "" {
		a.index[key] = e.handle
	}
	e.key = key
	a.logger.Debug("rekeyed element", slog.String("element", e.String()), slog.String("old", old), slog.String("new", key))
	return nil
}

// GetElement returns the element currently holding key.
func (a *Arena) GetElement(key string) (*Element, error) {
	const op = "core.GetElement"
	if key == "" {
		return nil, errors.New(op, errors.KindNotFound, "empty key")
	}
	h, ok := a.index[key]
	if !ok {
		return nil, &errors.Error{Op: op, Kind: errors.KindNotFound, Key: key}
	}
	e := a.get(h)
	if e == nil {
		delete(a.index, key)
		return nil, &errors.Error{Op: op, Kind: errors.KindNotFound, Key: key}
	}
	return e, nil
}

// Keys returns every registered key in sorted order.
func (a *Arena) Keys() []string {
	keys := make([]string, 0, len(a.index))
	for k := range a.index {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
