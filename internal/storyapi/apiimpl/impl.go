package apiimpl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dwikidiandra/dstory/internal/domain"
	"github.com/dwikidiandra/dstory/internal/storyapi"
	"github.com/dwikidiandra/dstory/pkg/config"
	apperrors "github.com/dwikidiandra/dstory/pkg/errors"
	"github.com/dwikidiandra/dstory/pkg/logger"
	"github.com/dwikidiandra/dstory/pkg/multipart"
	"go.uber.org/fx"
)

type Opts struct {
	fx.In

	Config *config.Config
	Logger logger.Logger
	HTTP   *http.Client
}

type ApiImpl struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
	logger  logger.Logger
}

func New(opts Opts) *ApiImpl {
	return &ApiImpl{
		baseURL: strings.TrimRight(opts.Config.Api.BaseURL, "/"),
		timeout: opts.Config.Api.Timeout,
		http:    opts.HTTP,
		logger:  opts.Logger.WithComponent("StoryApi"),
	}
}

var _ storyapi.Client = (*ApiImpl)(nil)

// fetch performs one deadline-bounded request and returns the status and the
// fully read body. The default deadline applies only when the caller context
// carries none; a caller-supplied deadline, earlier or later, governs the
// call. The timer is released only after the body has been accepted, so
// cancellation can never fire on a response already in hand.
func (a *ApiImpl) fetch(ctx context.Context, method, rawURL, token, contentType string, body []byte) (int, []byte, error) {
	cancel := context.CancelFunc(func() {})
	if _, ok := ctx.Deadline(); !ok {
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
	}
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return 0, nil, fmt.Errorf("%w: %v", apperrors.ErrTimeout, err)
		}
		return 0, nil, fmt.Errorf("%w: %v", apperrors.ErrNetwork, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return 0, nil, fmt.Errorf("%w: %v", apperrors.ErrTimeout, err)
		}
		return 0, nil, fmt.Errorf("%w: %v", apperrors.ErrNetwork, err)
	}

	return resp.StatusCode, data, nil
}

func success(status int) bool {
	return status >= http.StatusOK && status < http.StatusMultipleChoices
}

func (a *ApiImpl) ListStories(ctx context.Context, token string, opts storyapi.ListOptions) ([]domain.Story, error) {
	location := 0
	if opts.WithLocation {
		location = 1
	}
	endpoint := fmt.Sprintf("%s/stories?page=%d&size=%d&location=%d", a.baseURL, opts.Page, opts.Size, location)

	status, body, err := a.fetch(ctx, http.MethodGet, endpoint, token, "", nil)
	if err != nil {
		return nil, err
	}

	result := decodeEnvelope(body)
	if !success(status) {
		return nil, apperrors.NewApiError(status, result.Message)
	}
	if result.Kind != decodedList {
		return nil, fmt.Errorf("story list missing or not an array: %w", apperrors.ErrInvalidResponse)
	}

	stories := make([]domain.Story, 0, len(result.List))
	for _, w := range result.List {
		stories = append(stories, w.toDomain())
	}
	return stories, nil
}

func (a *ApiImpl) GetStory(ctx context.Context, id string, token string) (*domain.Story, error) {
	endpoint := fmt.Sprintf("%s/stories/%s", a.baseURL, url.PathEscape(id))

	status, body, err := a.fetch(ctx, http.MethodGet, endpoint, token, "", nil)
	if err != nil {
		return nil, err
	}

	result := decodeEnvelope(body)
	if status == http.StatusNotFound {
		return nil, apperrors.ErrNotFound
	}
	if !success(status) {
		return nil, apperrors.NewApiError(status, result.Message)
	}
	if result.Kind != decodedSingle {
		return nil, apperrors.ErrNotFound
	}

	story := result.Single.toDomain()
	return &story, nil
}

func (a *ApiImpl) SubmitStory(ctx context.Context, token string, payload multipart.Payload) (*domain.SubmitReceipt, error) {
	return a.submit(ctx, a.baseURL+"/stories", token, payload)
}

func (a *ApiImpl) SubmitStoryGuest(ctx context.Context, payload multipart.Payload) (*domain.SubmitReceipt, error) {
	return a.submit(ctx, a.baseURL+"/stories/guest", "", payload)
}

func (a *ApiImpl) submit(ctx context.Context, endpoint, token string, payload multipart.Payload) (*domain.SubmitReceipt, error) {
	status, body, err := a.fetch(ctx, http.MethodPost, endpoint, token, payload.ContentType, payload.Body)
	if err != nil {
		return nil, err
	}

	result := decodeEnvelope(body)
	if !success(status) {
		return nil, apperrors.NewApiError(status, result.Message)
	}
	if result.Kind == decodedMalformed {
		return nil, fmt.Errorf("submission receipt unreadable: %w", apperrors.ErrInvalidResponse)
	}

	return &domain.SubmitReceipt{Error: false, Message: result.Message}, nil
}

func (a *ApiImpl) SubscribePush(ctx context.Context, token string, sub domain.PushSubscription) error {
	body, err := jsonBody(sub)
	if err != nil {
		return err
	}

	status, respBody, err := a.fetch(ctx, http.MethodPost, a.baseURL+"/notifications/subscribe", token, "application/json", body)
	if err != nil {
		return err
	}
	if !success(status) {
		return apperrors.NewApiError(status, decodeEnvelope(respBody).Message)
	}
	return nil
}

func (a *ApiImpl) UnsubscribePush(ctx context.Context, token string, endpoint string) error {
	body, err := jsonBody(map[string]string{"endpoint": endpoint})
	if err != nil {
		return err
	}

	status, respBody, err := a.fetch(ctx, http.MethodDelete, a.baseURL+"/notifications/subscribe", token, "application/json", body)
	if err != nil {
		return err
	}
	if !success(status) {
		return apperrors.NewApiError(status, decodeEnvelope(respBody).Message)
	}
	return nil
}
