package settings

import (
	"context"
	"encoding/json"
	"fmt"
)

// WatchListStore persists the services widget watch list as a JSON array in
// the local cache.
type WatchListStore struct {
	local LocalStore
}

// NewWatchListStore creates a WatchListStore over local.
func NewWatchListStore(local LocalStore) *WatchListStore {
	return &WatchListStore{local: local}
}

// LoadWatchList returns the persisted list and whether one exists.
func (w *WatchListStore) LoadWatchList(ctx context.Context) ([]string, bool, error) {
	raw, found, err := w.local.Get(ctx, KeyWatchList)
	if err != nil || !found {
		return nil, false, err
	}

	var names []string
	if err := json.Unmarshal([]byte(raw), &names); err != nil {
		return nil, false, fmt.Errorf("corrupt watch list: %w", err)
	}

	if names == nil {
		names = []string{}
	}

	return names, true, nil
}

// SaveWatchList stores names.
func (w *WatchListStore) SaveWatchList(ctx context.Context, names []string) error {
	if names == nil {
		names = []string{}
	}

	raw, err := json.Marshal(names)
	if err != nil {
		return err
	}

	return w.local.Set(ctx, KeyWatchList, string(raw))
}

// DebugEnabled reports whether verbose services widget logging is switched on.
func DebugEnabled(ctx context.Context, local LocalStore) bool {
	v, found, err := local.Get(ctx, KeyServicesDebug)

	return err == nil && found && (v == "true" || v == "1")
}
