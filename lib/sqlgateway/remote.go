package sqlgateway

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("electiondb/lib/sqlgateway")

type RemoteConfig struct {
	// BaseUrl overrides the management API host, mainly for tests.
	BaseUrl    string `json:"base_url"`
	ProjectRef string `json:"project_ref"`
	Token      string `json:"token"`
	// Retries bounds attempts on rate-limit responses. Zero means the
	// default of 5.
	Retries int `json:"retries"`
	// Backoff is the linear backoff unit between rate-limited attempts.
	// Zero means the default of 10s.
	Backoff time.Duration `json:"-"`
}

// Remote executes SQL through the hosted database's HTTP query endpoint.
// Rate-limit responses are retried with linear backoff; any other failure
// is fatal to the batch.
type Remote struct {
	client  *resty.Client
	url     string
	retries int
	backoff time.Duration
}

const defaultBaseUrl = "https://api.supabase.com"

func NewRemote(config RemoteConfig) *Remote {
	base := config.BaseUrl
	if base == "" {
		base = defaultBaseUrl
	}
	retries := config.Retries
	if retries <= 0 {
		retries = 5
	}
	backoff := config.Backoff
	if backoff <= 0 {
		backoff = time.Second * 10
	}

	client := resty.New().
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", config.Token)).
		SetHeader("Content-Type", "application/json").
		SetTimeout(time.Minute * 2)

	return &Remote{
		client:  client,
		url:     fmt.Sprintf("%s/v1/projects/%s/database/query", base, config.ProjectRef),
		retries: retries,
		backoff: backoff,
	}
}

func (r *Remote) Execute(ctx context.Context, query string) ([]Row, error) {
	ctx, span := tracer.Start(ctx, "Execute")
	defer span.End()
	span.SetAttributes(attribute.Int("query_len", len(query)))

	for attempt := 0; attempt < r.retries; attempt++ {
		var rows []Row
		res, err := r.client.R().
			SetContext(ctx).
			SetBody(map[string]string{"query": query}).
			SetResult(&rows).
			Post(r.url)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}

		switch res.StatusCode() {
		case 201:
			return rows, nil
		case 429:
			if attempt == r.retries-1 {
				err := fmt.Errorf("rate limited after %d attempts", r.retries)
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return nil, err
			}
			wait := r.backoff * time.Duration(attempt+1)
			slog.WarnContext(ctx, "rate limited, backing off", "wait", wait)
			select {
			case <-time.After(wait):
				continue
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		err = fmt.Errorf("sql endpoint returned %d: %s", res.StatusCode(), truncate(res.String(), 500))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return nil, fmt.Errorf("rate limited after %d attempts", r.retries)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
