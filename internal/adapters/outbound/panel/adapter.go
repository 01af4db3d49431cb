package panel

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/fleetguard/fleetguard-controller/internal/logic/tracker"
	"github.com/fleetguard/fleetguard-controller/internal/logic/watch"
)

const (
	// retryBudget bounds attempts on throttled requests; other failures
	// degrade to "no data this cycle" immediately.
	retryBudget  = 3
	retryBackoff = 2 * time.Second

	requestTimeout = 30 * time.Second

	maxErrorBodyBytes = 512
)

type adapter struct {
	logger             *slog.Logger
	client             *retryablehttp.Client
	baseURL            string
	applicationToken   string
	clientToken        string
	excludedCategories map[string]struct{}
}

// New creates a management panel adapter. Requests are retried only on
// HTTP 429 with a constant backoff between attempts; any other failure
// surfaces as an error the callers treat as a skipped instance or cycle.
func New(
	logger *slog.Logger,
	baseURL string,
	applicationToken string,
	clientToken string,
	excludedCategories []string,
) watch.Repository {
	client := retryablehttp.NewClient()
	client.HTTPClient = cleanhttp.DefaultPooledClient()
	client.HTTPClient.Timeout = requestTimeout
	client.RetryMax = retryBudget
	client.Logger = logger
	client.Backoff = func(_, _ time.Duration, _ int, _ *http.Response) time.Duration {
		return retryBackoff
	}
	client.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}

		if err != nil {
			return false, err
		}

		return resp.StatusCode == http.StatusTooManyRequests, nil
	}

	excluded := make(map[string]struct{}, len(excludedCategories))
	for _, category := range excludedCategories {
		excluded[category] = struct{}{}
	}

	return &adapter{
		logger:             logger,
		client:             client,
		baseURL:            strings.TrimRight(baseURL, "/"),
		applicationToken:   applicationToken,
		clientToken:        clientToken,
		excludedCategories: excluded,
	}
}

var _ watch.Repository = (*adapter)(nil)

// ListInstancesQuery walks the paginated application listing to the end and
// returns every instance whose category is not excluded.
func (a *adapter) ListInstancesQuery(ctx context.Context) ([]tracker.Instance, error) {
	var out []tracker.Instance

	for page := 1; ; page++ {
		url := a.baseURL + "/application/instances?page=" + strconv.Itoa(page)

		var body instancePage
		if err := a.getJSON(ctx, url, a.applicationToken, &body); err != nil {
			return nil, fmt.Errorf("list instances page %d: %w", page, err)
		}

		for i := range body.Data {
			attrs := &body.Data[i].Attributes
			if _, ok := a.excludedCategories[attrs.Category]; ok {
				continue
			}

			out = append(out, toDomainInstance(attrs))
		}

		if page >= body.Meta.Pagination.TotalPages {
			break
		}
	}

	return out, nil
}

func (a *adapter) GetResourcesQuery(
	ctx context.Context,
	instanceID string,
) (*tracker.Snapshot, error) {
	url := a.baseURL + "/client/instances/" + instanceID + "/resources"

	var body resourcesResponse
	if err := a.getJSON(ctx, url, a.clientToken, &body); err != nil {
		return nil, fmt.Errorf("get resources: %w", err)
	}

	return toDomainSnapshot(&body), nil
}

func (a *adapter) KillInstanceCommand(
	ctx context.Context,
	instanceID string,
) error {
	url := a.baseURL + "/client/instances/" + instanceID + "/power"

	req, err := retryablehttp.NewRequestWithContext(
		ctx,
		http.MethodPost,
		url,
		[]byte(`{"signal":"kill"}`),
	)
	if err != nil {
		return fmt.Errorf("build kill request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := a.do(req, a.clientToken)
	if err != nil {
		return fmt.Errorf("kill instance: %w", err)
	}
	defer drainAndClose(resp.Body)

	return nil
}

func (a *adapter) getJSON(
	ctx context.Context,
	url string,
	token string,
	out any,
) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := a.do(req, token)
	if err != nil {
		return err
	}
	defer drainAndClose(resp.Body)

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func (a *adapter) do(req *retryablehttp.Request, token string) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		drainAndClose(resp.Body)

		return nil, newUnexpectedStatusError(resp.StatusCode, string(detail))
	}

	return resp, nil
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
