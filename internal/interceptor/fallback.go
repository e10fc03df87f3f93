package interceptor

import (
	"context"
	"encoding/json"
	"net/http"
)

// offlineStoriesBody mirrors the live list endpoint's shape with an explicit
// offline marker, so downstream parsers need no special case for offline.
// Both list field spellings are included for compatibility with older
// consumers.
func offlineStoriesBody() []byte {
	body, _ := json.Marshal(map[string]any{
		"error":     false,
		"message":   "Offline Mode",
		"stories":   []any{},
		"listStory": []any{},
	})
	return body
}

// fallback is the last tier: when a strategy has exhausted network and cache,
// it synthesizes a best-effort response per class. A nil return means nothing
// can be served and the original failure propagates.
func (t *Transport) fallback(req *http.Request, pol policy) *http.Response {
	// The caller's deadline may already have fired; cache reads here must
	// still be possible.
	ctx := context.WithoutCancel(req.Context())
	key := cacheKey(req)

	switch pol.class {
	case ClassImages:
		if entry := t.lookup(ctx, pol.class, key); entry != nil {
			return entry.Response(req)
		}
		if entry := t.lookup(ctx, ClassImages, t.placeholder); entry != nil {
			return entry.Response(req)
		}

	case ClassStories:
		if entry := t.lookup(ctx, pol.class, key); entry != nil {
			return entry.Response(req)
		}
		return syntheticJSON(req, offlineStoriesBody())

	case ClassNavigations:
		if entry := t.lookup(ctx, pol.class, key); entry != nil {
			return entry.Response(req)
		}
		if entry := t.lookup(ctx, ClassNavigations, t.shellURL); entry != nil {
			return entry.Response(req)
		}
	}

	return nil
}

func (t *Transport) lookup(ctx context.Context, class Class, key string) *Entry {
	if key == "" {
		return nil
	}
	entry, err := t.store.Get(ctx, class, key)
	if err != nil {
		t.logger.Warn("Fallback cache read failed", "class", class, "error", err)
		return nil
	}
	return entry
}

func syntheticJSON(req *http.Request, body []byte) *http.Response {
	entry := Entry{
		Status: http.StatusOK,
		Header: http.Header{"Content-Type": []string{"application/json"}},
		Body:   body,
	}
	return entry.Response(req)
}
