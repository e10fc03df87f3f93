package apiimpl

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dwikidiandra/dstory/internal/domain"
	"github.com/dwikidiandra/dstory/internal/storyapi"
	"github.com/dwikidiandra/dstory/pkg/config"
	apperrors "github.com/dwikidiandra/dstory/pkg/errors"
	"github.com/dwikidiandra/dstory/pkg/logger"
	"github.com/dwikidiandra/dstory/pkg/multipart"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, timeout time.Duration) *ApiImpl {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.Config{}
	cfg.Api.BaseURL = server.URL
	cfg.Api.Timeout = timeout

	return New(Opts{
		Config: cfg,
		Logger: logger.NewNop(),
		HTTP:   server.Client(),
	})
}

func pushSubscription() domain.PushSubscription {
	return domain.PushSubscription{
		Endpoint: "https://push.example/ep",
		Keys: domain.SubscriptionKeys{
			P256dh: "p256dh-key",
			Auth:   "auth-secret",
		},
	}
}

const listBody = `{
	"error": false,
	"message": "Stories fetched successfully",
	"listStory": [
		{"id": "story-1", "name": "Dina", "description": "Harbor", "photoUrl": "https://example.test/1.jpg", "lat": -6.2, "lon": 106.8, "createdAt": "2025-05-10T08:30:00.000Z"},
		{"id": "story-2", "name": "Budi", "description": "Market", "photoUrl": "https://example.test/2.jpg", "createdAt": "2025-05-11T09:00:00.000Z"}
	]
}`

func TestListStoriesSuccess(t *testing.T) {
	var gotAuth, gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(listBody))
	}, 8*time.Second)

	stories, err := client.ListStories(context.Background(), "token-123", storyapi.ListOptions{Page: 2, Size: 10, WithLocation: true})
	if err != nil {
		t.Fatalf("list stories: %v", err)
	}

	if gotAuth != "Bearer token-123" {
		t.Errorf("expected bearer token header, got %q", gotAuth)
	}
	if gotQuery != "page=2&size=10&location=1" {
		t.Errorf("unexpected query: %q", gotQuery)
	}
	if len(stories) != 2 {
		t.Fatalf("expected 2 stories, got %d", len(stories))
	}
	if stories[0].ID != "story-1" || !stories[0].HasLocation() {
		t.Errorf("first story decoded badly: %+v", stories[0])
	}
	if stories[1].HasLocation() {
		t.Errorf("second story should carry no coordinates: %+v", stories[1])
	}
}

func TestListStoriesTimeoutIsBounded(t *testing.T) {
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
	}, 50*time.Millisecond)
	t.Cleanup(func() { close(release) })

	start := time.Now()
	_, err := client.ListStories(context.Background(), "", storyapi.ListOptions{Page: 1, Size: 10})
	elapsed := time.Since(start)

	if !apperrors.IsTimeout(err) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if elapsed > 2*time.Second {
		t.Fatalf("deadline not enforced: call took %v", elapsed)
	}
}

func TestCallerDeadlineOverridesDefault(t *testing.T) {
	t.Run("later deadline extends the call", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(150 * time.Millisecond)
			w.Write([]byte(`{"error": false, "message": "ok", "listStory": []}`))
		}, 50*time.Millisecond)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := client.ListStories(ctx, "", storyapi.ListOptions{Page: 1, Size: 10}); err != nil {
			t.Fatalf("caller deadline should govern, got %v", err)
		}
	})

	t.Run("earlier deadline shortens the call", func(t *testing.T) {
		release := make(chan struct{})
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			<-release
		}, 8*time.Second)
		t.Cleanup(func() { close(release) })

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		start := time.Now()
		_, err := client.ListStories(ctx, "", storyapi.ListOptions{Page: 1, Size: 10})
		if !apperrors.IsTimeout(err) {
			t.Fatalf("expected ErrTimeout, got %v", err)
		}
		if elapsed := time.Since(start); elapsed > 2*time.Second {
			t.Fatalf("caller deadline not honored: call took %v", elapsed)
		}
	})
}

func TestListStoriesUsesServerErrorMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": true, "message": "Missing authentication"}`))
	}, 8*time.Second)

	_, err := client.ListStories(context.Background(), "", storyapi.ListOptions{Page: 1, Size: 10})

	var apiErr *apperrors.ApiError
	if !apperrors.As(err, &apiErr) {
		t.Fatalf("expected ApiError, got %v", err)
	}
	if apiErr.Status != http.StatusUnauthorized || apiErr.Message != "Missing authentication" {
		t.Errorf("unexpected api error: %+v", apiErr)
	}
}

func TestListStoriesGenericMessageWhenBodyUnreadable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream exploded"))
	}, 8*time.Second)

	_, err := client.ListStories(context.Background(), "", storyapi.ListOptions{Page: 1, Size: 10})

	var apiErr *apperrors.ApiError
	if !apperrors.As(err, &apiErr) {
		t.Fatalf("expected ApiError, got %v", err)
	}
	if apiErr.Message != "request failed with status 502" {
		t.Errorf("unexpected message: %q", apiErr.Message)
	}
}

func TestListStoriesRejectsNonArrayList(t *testing.T) {
	for name, body := range map[string]string{
		"list is a string": `{"error": false, "message": "ok", "listStory": "surprise"}`,
		"list missing":     `{"error": false, "message": "ok"}`,
	} {
		t.Run(name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(body))
			}, 8*time.Second)

			_, err := client.ListStories(context.Background(), "", storyapi.ListOptions{Page: 1, Size: 10})
			if !apperrors.Is(err, apperrors.ErrInvalidResponse) {
				t.Fatalf("expected ErrInvalidResponse, got %v", err)
			}
		})
	}
}

func TestListStoriesAcceptsOfflineFallbackShape(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": false, "message": "Offline Mode", "stories": [], "listStory": []}`))
	}, 8*time.Second)

	stories, err := client.ListStories(context.Background(), "", storyapi.ListOptions{Page: 1, Size: 10})
	if err != nil {
		t.Fatalf("offline fallback body must parse cleanly: %v", err)
	}
	if len(stories) != 0 {
		t.Fatalf("expected empty list, got %d", len(stories))
	}
}

func TestGetStorySuccess(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/stories/story-1" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`{"error": false, "message": "ok", "story": {"id": "story-1", "name": "Dina", "description": "Harbor", "photoUrl": "https://example.test/1.jpg", "createdAt": "2025-05-10T08:30:00.000Z"}}`))
	}, 8*time.Second)

	story, err := client.GetStory(context.Background(), "story-1", "token")
	if err != nil {
		t.Fatalf("get story: %v", err)
	}
	if story.ID != "story-1" || story.Name != "Dina" {
		t.Errorf("story decoded badly: %+v", story)
	}
}

func TestGetStoryNotFound(t *testing.T) {
	for name, handler := range map[string]http.HandlerFunc{
		"404 status": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error": true, "message": "Story not found"}`))
		},
		"missing story field": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"error": false, "message": "ok"}`))
		},
	} {
		t.Run(name, func(t *testing.T) {
			client := newTestClient(t, handler, 8*time.Second)

			_, err := client.GetStory(context.Background(), "ghost", "")
			if !apperrors.IsNotFound(err) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestSubmitStoryRoutes(t *testing.T) {
	payload, err := multipart.Build("hello", multipart.Photo{Name: "p.jpg", Data: []byte{1, 2}}, nil, nil)
	if err != nil {
		t.Fatalf("build payload: %v", err)
	}

	var gotPath, gotAuth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"error": false, "message": "Story created"}`))
	}, 8*time.Second)

	receipt, err := client.SubmitStory(context.Background(), "token-1", payload)
	if err != nil {
		t.Fatalf("submit story: %v", err)
	}
	if gotPath != "/stories" || gotAuth != "Bearer token-1" {
		t.Errorf("authenticated submit routed badly: path=%q auth=%q", gotPath, gotAuth)
	}
	if receipt.Message != "Story created" {
		t.Errorf("unexpected receipt: %+v", receipt)
	}

	if _, err := client.SubmitStoryGuest(context.Background(), payload); err != nil {
		t.Fatalf("submit guest story: %v", err)
	}
	if gotPath != "/stories/guest" || gotAuth != "" {
		t.Errorf("guest submit routed badly: path=%q auth=%q", gotPath, gotAuth)
	}
}

func TestSubscribePush(t *testing.T) {
	var gotMethod, gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.Write([]byte(`{"error": false, "message": "subscribed"}`))
	}, 8*time.Second)

	err := client.SubscribePush(context.Background(), "token", pushSubscription())
	if err != nil {
		t.Fatalf("subscribe push: %v", err)
	}
	if gotMethod != http.MethodPost || gotPath != "/notifications/subscribe" {
		t.Errorf("subscribe routed badly: %s %s", gotMethod, gotPath)
	}

	if err := client.UnsubscribePush(context.Background(), "token", "https://push.example/ep"); err != nil {
		t.Fatalf("unsubscribe push: %v", err)
	}
	if gotMethod != http.MethodDelete {
		t.Errorf("unsubscribe should use DELETE, got %s", gotMethod)
	}
}
