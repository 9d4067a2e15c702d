package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"gemtracks/internal/cache"
	"gemtracks/internal/components/assert"
	"gemtracks/internal/components/telemetry"
	"gemtracks/lib/restyutil"
	"sync/atomic"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("gemtracks.internal.fetcher")

const (
	report_fetcher_fetch_page = "fetcher.fetch-page"
	report_fetcher_fetch_api  = "fetcher.fetch-api"
	report_fetcher_fetch_live = "fetcher.fetch-live"
	report_fetcher_persist    = "fetcher.persist"
)

// ErrUnexpectedStatus is returned when upstream answers with a non-2xx status,
// such responses are never cached.
var ErrUnexpectedStatus = errors.New("unexpected status")

// ErrCorruptEntry is returned when a cached payload does not have the shape
// the caller asked for. The entry is left untouched.
var ErrCorruptEntry = errors.New("corrupt cache entry")

type Options struct {
	UserAgent string
	Timeout   time.Duration
	// RequestsPerSecond <= 0 disables rate limiting.
	RequestsPerSecond float64
	CloudflareBypass  bool
}

func DefaultOptions() Options {
	return Options{
		UserAgent:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
		Timeout:           time.Second * 30,
		RequestsPerSecond: 2,
	}
}

type Stats struct {
	Hits   int64
	Misses int64
	Live   int64
}

// Fetcher makes GET requests through a cache.Store, for a given identity at
// most one request is ever made during the lifetime of the store.
type Fetcher struct {
	http  *resty.Client
	store *cache.Store
	tel   telemetry.API

	hits   atomic.Int64
	misses atomic.Int64
	live   atomic.Int64
}

func New(store *cache.Store, opts Options, tel telemetry.API) *Fetcher {
	assert.NotNil(store, "store")
	assert.NotNil(tel, "tel")

	tel = telemetry.NewScopedAPI("fetcher", tel)

	httpClient := resty.New()
	if opts.UserAgent != "" {
		httpClient.SetHeader("user-agent", opts.UserAgent)
	}
	if opts.Timeout > 0 {
		httpClient.SetTimeout(opts.Timeout)
	}
	if opts.CloudflareBypass {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}

	if opts.RequestsPerSecond > 0 {
		// burst >= 1 just means that no requests will be dropped
		rateLimiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
		httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return rateLimiter.Wait(req.Context())
		})
	}

	telemetry.InstrumentResty(httpClient, tel)

	return &Fetcher{
		http:  httpClient,
		store: store,
		tel:   tel,
	}
}

// SetInstrumentOutput dumps every HTTP exchange into out.
func (f *Fetcher) SetInstrumentOutput(out restyutil.InstrumentOutput) {
	restyutil.InstrumentClient(f.http, tracer, out)
}

func (f *Fetcher) Stats() Stats {
	return Stats{
		Hits:   f.hits.Load(),
		Misses: f.misses.Load(),
		Live:   f.live.Load(),
	}
}

func (f *Fetcher) get(ctx context.Context, link string, params map[string]string) ([]byte, error) {
	req := f.http.R().SetContext(ctx)
	if len(params) > 0 {
		req.SetQueryParams(params)
	}
	res, err := req.Get(link)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", link, err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("get %s: %w: %s", link, ErrUnexpectedStatus, res.Status())
	}
	return res.Body(), nil
}

// persist stores value under key. A failure to write the cache file is
// reported but not returned, the entry is still served from memory.
func (f *Fetcher) persist(key string, value json.RawMessage) json.RawMessage {
	stored, err := f.store.Put(key, value)
	if err != nil {
		f.tel.ReportBroken(report_fetcher_persist, err, key)
	}
	if stored == nil {
		return value
	}
	return stored
}

// FetchPage returns the body of the page at link as text.
func (f *Fetcher) FetchPage(ctx context.Context, link string) (string, error) {
	ctx, span := tracer.Start(ctx, "FetchPage")
	defer span.End()

	key, err := PageIdentity(link)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create cache key")
		return "", fmt.Errorf("fetch page: %w", err)
	}
	span.SetAttributes(attribute.String("custom.cache_key", key))

	cached, ok := f.store.Get(key)
	if ok {
		f.hits.Add(1)
		span.SetAttributes(attribute.Bool("custom.cache_hit", true))

		var page string
		err = json.Unmarshal(cached, &page)
		if err != nil {
			f.tel.ReportBroken(report_fetcher_fetch_page, fmt.Errorf("%w: %w", ErrCorruptEntry, err), key)
			return "", fmt.Errorf("fetch page %s: %w", link, ErrCorruptEntry)
		}
		return page, nil
	}

	f.misses.Add(1)
	span.SetAttributes(attribute.Bool("custom.cache_hit", false))

	body, err := f.get(ctx, link, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		f.tel.ReportWarning(report_fetcher_fetch_page, err)
		return "", err
	}

	encoded, err := json.Marshal(string(body))
	if err != nil {
		return "", fmt.Errorf("fetch page %s: %w", link, err)
	}
	stored := f.persist(key, encoded)

	var page string
	err = json.Unmarshal(stored, &page)
	if err != nil {
		return "", fmt.Errorf("fetch page %s: %w", link, ErrCorruptEntry)
	}
	return page, nil
}

// FetchAPI requests link with the given query params, decodes the response as
// JSON and unmarshals the cached document into out.
func (f *Fetcher) FetchAPI(ctx context.Context, link string, params map[string]string, out any) error {
	ctx, span := tracer.Start(ctx, "FetchAPI")
	defer span.End()

	key, err := APIIdentity(link, params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create cache key")
		return fmt.Errorf("fetch api: %w", err)
	}
	span.SetAttributes(attribute.String("custom.cache_key", key))

	document, ok := f.store.Get(key)
	if ok {
		f.hits.Add(1)
		span.SetAttributes(attribute.Bool("custom.cache_hit", true))
	} else {
		f.misses.Add(1)
		span.SetAttributes(attribute.Bool("custom.cache_hit", false))

		body, err := f.get(ctx, link, params)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "request failed")
			f.tel.ReportWarning(report_fetcher_fetch_api, err)
			return err
		}
		if !json.Valid(body) {
			err = fmt.Errorf("fetch api %s: response is not valid json", link)
			f.tel.ReportWarning(report_fetcher_fetch_api, err, key)
			return err
		}
		document = f.persist(key, body)
	}

	err = json.Unmarshal(document, out)
	if err != nil {
		return fmt.Errorf("fetch api %s: decode: %w", link, err)
	}
	return nil
}

// FetchLive requests link bypassing the cache entirely.
func (f *Fetcher) FetchLive(ctx context.Context, link string) (string, error) {
	ctx, span := tracer.Start(ctx, "FetchLive")
	defer span.End()

	f.live.Add(1)
	body, err := f.get(ctx, link, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		f.tel.ReportWarning(report_fetcher_fetch_live, err)
		return "", err
	}
	return string(body), nil
}

// FetchLiveAPI is FetchAPI without the cache.
func (f *Fetcher) FetchLiveAPI(ctx context.Context, link string, params map[string]string, out any) error {
	ctx, span := tracer.Start(ctx, "FetchLiveAPI")
	defer span.End()

	f.live.Add(1)
	body, err := f.get(ctx, link, params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		f.tel.ReportWarning(report_fetcher_fetch_live, err)
		return err
	}
	err = json.Unmarshal(body, out)
	if err != nil {
		return fmt.Errorf("fetch api %s: decode: %w", link, err)
	}
	return nil
}
