package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"conti/internal/core"
	"conti/internal/storage"
)

type validator interface {
	Validate() error
}

// loadList decodes a JSON array entry by entry. Entries that fail to decode,
// fail validation or repeat an earlier id are skipped and reported.
func loadList[T validator](ctx context.Context, kv storage.KV, key string, idOf func(T) string) ([]T, []Anomaly, error) {
	raw, ok, err := kv.Get(ctx, key)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", key, err)
	}
	if !ok || len(raw) == 0 {
		return []T{}, nil, nil
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return []T{}, []Anomaly{{Key: key, Index: -1, Reason: "not a JSON array: " + err.Error()}}, nil
	}

	out := make([]T, 0, len(entries))
	var anomalies []Anomaly
	seen := make(map[string]struct{}, len(entries))
	for i, entry := range entries {
		var v T
		if err := json.Unmarshal(entry, &v); err != nil {
			anomalies = append(anomalies, Anomaly{Key: key, Index: i, Reason: err.Error()})
			continue
		}
		if err := v.Validate(); err != nil {
			anomalies = append(anomalies, Anomaly{Key: key, Index: i, Reason: err.Error()})
			continue
		}
		id := idOf(v)
		if _, dup := seen[id]; dup {
			anomalies = append(anomalies, Anomaly{Key: key, Index: i, Reason: fmt.Sprintf("%v: %s", ErrDuplicateID, id)})
			continue
		}
		seen[id] = struct{}{}
		out = append(out, v)
	}
	return out, anomalies, nil
}

func loadCurrentUser(ctx context.Context, kv storage.KV) (core.Person, []Anomaly, error) {
	raw, ok, err := kv.Get(ctx, storage.KeyCurrentUser)
	if err != nil {
		return 0, nil, fmt.Errorf("read %s: %w", storage.KeyCurrentUser, err)
	}
	if !ok {
		return core.UserA, nil, nil
	}
	var p core.Person
	if err := json.Unmarshal(raw, &p); err != nil || !p.IsMember() {
		reason := "current user must be one of the two members"
		if err != nil {
			reason = err.Error()
		}
		return core.UserA, []Anomaly{{Key: storage.KeyCurrentUser, Index: -1, Reason: reason}}, nil
	}
	return p, nil, nil
}

func loadTheme(ctx context.Context, kv storage.KV) (core.Theme, []Anomaly, error) {
	raw, ok, err := kv.Get(ctx, storage.KeyTheme)
	if err != nil {
		return "", nil, fmt.Errorf("read %s: %w", storage.KeyTheme, err)
	}
	if !ok {
		return core.Light, nil, nil
	}
	var th core.Theme
	if err := json.Unmarshal(raw, &th); err != nil {
		// Older files stored the bare word without JSON quoting.
		th = core.Theme(raw)
	}
	if err := th.Validate(); err != nil {
		return core.Light, []Anomaly{{Key: storage.KeyTheme, Index: -1, Reason: err.Error()}}, nil
	}
	return th, nil, nil
}
