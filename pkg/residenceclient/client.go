package residenceclient

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

// ResidenceRepository is the residence API as seen by a client.
type ResidenceRepository interface {
	GetAll(ctx context.Context, params ListParams) (*Page, error)
	GetByID(ctx context.Context, id int64) (*Residence, error)
	Create(ctx context.Context, in CreateResidenceInput) (*Residence, error)
	Update(ctx context.Context, id int64, patch ResidenceUpdate) (*Residence, error)
	Delete(ctx context.Context, id int64) error
	AssignResident(ctx context.Context, id int64, in AssignResidentInput) (*Residence, error)
	GetReassignmentHistory(ctx context.Context, id int64) ([]ReassignmentHistory, error)
}

// APIError is the decoded error body of a non-2xx response.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"error,omitempty"`
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%d %s: %s (%s)", e.StatusCode, e.Code, e.Message, e.Detail)
	}
	return fmt.Sprintf("%d %s: %s", e.StatusCode, e.Code, e.Message)
}

type mutationResponse struct {
	Message   string     `json:"message"`
	Residence *Residence `json:"residence"`
}

type Options struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	RetryCount int
}

type Client struct {
	httpClient *resty.Client
}

var _ ResidenceRepository = (*Client)(nil)

// New builds a client for the residence API. Only GET requests are retried;
// mutations are sent once.
func New(opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 15 * time.Second
	}
	client := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.RetryCount).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if r == nil || r.Request == nil || r.Request.Method != http.MethodGet {
				return false
			}
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		}).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if opts.Token != "" {
		client.SetAuthToken(opts.Token)
	}
	return &Client{httpClient: client}
}

func (c *Client) GetAll(ctx context.Context, params ListParams) (*Page, error) {
	req := c.httpClient.R().SetContext(ctx)
	if params.Estado != "" {
		req.SetQueryParam("estado", params.Estado)
	}
	if params.Bloque != "" {
		req.SetQueryParam("bloque", params.Bloque)
	}
	if params.Search != "" {
		req.SetQueryParam("search", params.Search)
	}
	if params.Page > 0 {
		req.SetQueryParam("page", strconv.Itoa(params.Page))
	}
	if params.Limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(params.Limit))
	}

	var page Page
	if err := do(req.SetResult(&page), http.MethodGet, "/residences"); err != nil {
		return nil, err
	}
	if page.Data == nil {
		page.Data = []Residence{}
	}
	return &page, nil
}

func (c *Client) GetByID(ctx context.Context, id int64) (*Residence, error) {
	var res Residence
	if err := do(c.httpClient.R().SetContext(ctx).SetResult(&res), http.MethodGet, residencePath(id)); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Create(ctx context.Context, in CreateResidenceInput) (*Residence, error) {
	return c.mutate(ctx, http.MethodPost, "/residences", in)
}

func (c *Client) Update(ctx context.Context, id int64, patch ResidenceUpdate) (*Residence, error) {
	return c.mutate(ctx, http.MethodPut, residencePath(id), patch)
}

func (c *Client) Delete(ctx context.Context, id int64) error {
	return do(c.httpClient.R().SetContext(ctx), http.MethodDelete, residencePath(id))
}

func (c *Client) AssignResident(ctx context.Context, id int64, in AssignResidentInput) (*Residence, error) {
	return c.mutate(ctx, http.MethodPost, residencePath(id)+"/assign", in)
}

func (c *Client) GetReassignmentHistory(ctx context.Context, id int64) ([]ReassignmentHistory, error) {
	var out []ReassignmentHistory
	if err := do(c.httpClient.R().SetContext(ctx).SetResult(&out), http.MethodGet, residencePath(id)+"/history"); err != nil {
		return nil, err
	}
	if out == nil {
		out = []ReassignmentHistory{}
	}
	return out, nil
}

func (c *Client) mutate(ctx context.Context, method, path string, body any) (*Residence, error) {
	var out mutationResponse
	req := c.httpClient.R().SetContext(ctx).SetBody(body).SetResult(&out)
	if err := do(req, method, path); err != nil {
		return nil, err
	}
	if out.Residence == nil {
		return nil, fmt.Errorf("%s %s: response carried no residence", method, path)
	}
	return out.Residence, nil
}

func do(req *resty.Request, method, path string) error {
	apiErr := &APIError{}
	resp, err := req.SetError(apiErr).Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		apiErr.StatusCode = resp.StatusCode()
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode())
		}
		return apiErr
	}
	return nil
}

func residencePath(id int64) string {
	return "/residences/" + strconv.FormatInt(id, 10)
}
