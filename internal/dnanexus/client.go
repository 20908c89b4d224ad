package dnanexus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/StanfordBioinformatics/trajectoread-monitor/internal/components/telemetry"
	"github.com/StanfordBioinformatics/trajectoread-monitor/lib/restyutil"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"golang.org/x/time/rate"
)

const (
	report_client_find_records   = "client.find-records"
	report_client_describe       = "client.describe-record"
	report_client_find_one_file  = "client.find-one-file"
	report_client_read_file      = "client.read-file"
	report_client_api_call       = "client.api-call"
	defaultBaseUrl               = "https://api.dnanexus.com"
	findPageLimit                = 1000
	downloadUrlDurationInSeconds = 300
)

var tracer = otel.Tracer("seqstats.internal.dnanexus")

type Options struct {
	// BaseUrl defaults to https://api.dnanexus.com
	BaseUrl string
	Token   string
	// RequestsPerSecond limits API calls, 0 means unlimited.
	RequestsPerSecond float64
	Timeout           time.Duration
	// InstrumentOutput receives full HTTP messages when debug logging is on, it may be nil.
	InstrumentOutput restyutil.InstrumentOutput
}

// Client is a minimal client of the DNAnexus API, covering the calls
// needed to find records, describe them and read report files.
type Client struct {
	api      *resty.Client
	download *resty.Client
	tel      telemetry.API
}

func NewClient(opts Options, tel telemetry.API) *Client {
	tel = telemetry.NewScopedAPI("dnanexus", tel)

	baseUrl := opts.BaseUrl
	if baseUrl == "" {
		baseUrl = defaultBaseUrl
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = time.Minute
	}

	api := resty.New()
	api.SetBaseURL(baseUrl)
	api.SetTimeout(timeout)
	api.SetHeader("content-type", "application/json")
	if opts.Token != "" {
		api.SetAuthToken(opts.Token)
	}

	if opts.RequestsPerSecond > 0 {
		// max burst >= 1 just means that no requests will be dropped
		rateLimiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
		api.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return rateLimiter.Wait(req.Context())
		})
	}

	// download urls are pre-signed, they must not receive the api token
	download := resty.New()
	download.SetTimeout(timeout)

	for _, c := range []*resty.Client{api, download} {
		restyutil.InstrumentClient(c, tracer, opts.InstrumentOutput)
		telemetry.InstrumentResty(c, tel)
	}

	return &Client{api: api, download: download, tel: tel}
}

func apiCall[O any](ctx context.Context, c *Client, path string, body any, output *O) error {
	res, err := c.api.R().
		SetContext(ctx).
		SetBody(body).
		Post(path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	if res.IsError() {
		apiErr := &APIError{StatusCode: res.StatusCode(), Type: "HTTPError", Message: res.Status()}
		var parsed errorResponse
		if json.Unmarshal(res.Body(), &parsed) == nil && parsed.Error.Type != "" {
			apiErr.Type = parsed.Error.Type
			apiErr.Message = parsed.Error.Message
		}
		c.tel.ReportDebug(report_client_api_call, path, apiErr)
		return apiErr
	}

	err = json.Unmarshal(res.Body(), output)
	if err != nil {
		return fmt.Errorf("%s: unmarshal json: %w", path, err)
	}
	return nil
}

type findScope struct {
	Project string `json:"project"`
	Folder  string `json:"folder,omitempty"`
	Recurse bool   `json:"recurse"`
}

type timeRange struct {
	After  int64 `json:"after,omitempty"`
	Before int64 `json:"before,omitempty"`
}

type nameGlob struct {
	Glob string `json:"glob"`
}

type findRequest struct {
	Class    string          `json:"class"`
	Typename string          `json:"typename,omitempty"`
	Name     *nameGlob       `json:"name,omitempty"`
	Scope    findScope       `json:"scope"`
	Created  *timeRange      `json:"created,omitempty"`
	Starting json.RawMessage `json:"starting,omitempty"`
	Limit    int             `json:"limit,omitempty"`
}

type findResponse struct {
	Results []ObjectRef     `json:"results"`
	Next    json.RawMessage `json:"next"`
}

func hasNext(next json.RawMessage) bool {
	return len(next) > 0 && string(next) != "null"
}

// FindRecords returns every record matching the query, following pagination.
func (c *Client) FindRecords(ctx context.Context, query RecordQuery) ([]ObjectRef, error) {
	ctx, span := tracer.Start(ctx, "FindRecords")
	defer span.End()

	req := findRequest{
		Class:    "record",
		Typename: query.TypeName,
		Scope: findScope{
			Project: query.Project,
			Folder:  query.Folder,
			Recurse: true,
		},
		Limit: findPageLimit,
	}
	if !query.CreatedAfter.IsZero() || !query.CreatedBefore.IsZero() {
		req.Created = &timeRange{}
		if !query.CreatedAfter.IsZero() {
			req.Created.After = query.CreatedAfter.UnixMilli()
		}
		if !query.CreatedBefore.IsZero() {
			req.Created.Before = query.CreatedBefore.UnixMilli()
		}
	}

	var results []ObjectRef
	for {
		var res findResponse
		err := apiCall(ctx, c, "/system/findDataObjects", req, &res)
		if err != nil {
			span.RecordError(err)
			c.tel.ReportBroken(report_client_find_records, err, query.Project, query.TypeName)
			return nil, err
		}
		results = append(results, res.Results...)
		if !hasNext(res.Next) {
			break
		}
		req.Starting = res.Next
	}

	c.tel.ReportDebug(report_client_find_records, query.Project, len(results))
	return results, nil
}

type describeRequest struct {
	Project    string `json:"project,omitempty"`
	Details    bool   `json:"details"`
	Properties bool   `json:"properties"`
}

// DescribeRecord returns the details and properties of a record.
func (c *Client) DescribeRecord(ctx context.Context, ref ObjectRef) (RecordDescription, error) {
	ctx, span := tracer.Start(ctx, "DescribeRecord")
	defer span.End()

	var desc RecordDescription
	err := apiCall(ctx, c, fmt.Sprintf("/%s/describe", ref.ID), describeRequest{
		Project:    ref.Project,
		Details:    true,
		Properties: true,
	}, &desc)
	if err != nil {
		span.RecordError(err)
		c.tel.ReportWarning(report_client_describe, err, ref.ID)
		return RecordDescription{}, err
	}
	return desc, nil
}

// FindOneFile returns the first file matching the query, more than one
// match is fine, none is ErrNotFound.
func (c *Client) FindOneFile(ctx context.Context, query FileQuery) (ObjectRef, error) {
	ctx, span := tracer.Start(ctx, "FindOneFile")
	defer span.End()

	var res findResponse
	err := apiCall(ctx, c, "/system/findDataObjects", findRequest{
		Class: "file",
		Name:  &nameGlob{Glob: query.NameGlob},
		Scope: findScope{
			Project: query.Project,
			Folder:  query.Folder,
			Recurse: true,
		},
		Limit: 1,
	}, &res)
	if err != nil {
		span.RecordError(err)
		c.tel.ReportWarning(report_client_find_one_file, err, query.Project, query.Folder)
		return ObjectRef{}, err
	}
	if len(res.Results) == 0 {
		return ObjectRef{}, fmt.Errorf(
			"%w: no file matching %s in %s:%s",
			ErrNotFound, query.NameGlob, query.Project, query.Folder,
		)
	}
	return res.Results[0], nil
}

type downloadRequest struct {
	Project  string `json:"project,omitempty"`
	Duration int    `json:"duration"`
}

type downloadResponse struct {
	Url     string            `json:"url"`
	Headers map[string]string `json:"headers"`
}

// ReadFile downloads the whole contents of a file.
func (c *Client) ReadFile(ctx context.Context, ref ObjectRef) (string, error) {
	ctx, span := tracer.Start(ctx, "ReadFile")
	defer span.End()

	var link downloadResponse
	err := apiCall(ctx, c, fmt.Sprintf("/%s/download", ref.ID), downloadRequest{
		Project:  ref.Project,
		Duration: downloadUrlDurationInSeconds,
	}, &link)
	if err != nil {
		span.RecordError(err)
		c.tel.ReportWarning(report_client_read_file, err, ref.ID)
		return "", err
	}

	res, err := c.download.R().
		SetContext(ctx).
		SetHeaders(link.Headers).
		Get(link.Url)
	if err != nil {
		span.RecordError(err)
		c.tel.ReportWarning(report_client_read_file, fmt.Errorf("fetch: %w", err), ref.ID)
		return "", err
	}
	if res.IsError() {
		err := &APIError{StatusCode: res.StatusCode(), Type: "DownloadError", Message: res.Status()}
		c.tel.ReportWarning(report_client_read_file, err, ref.ID)
		return "", err
	}

	return string(res.Body()), nil
}
