// Package charityapi provides token-authenticated access to the charity
// directory GraphQL API (sites, organizations, AI update mutations).
package charityapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/tackle-hunger/charity-cli/internal/resilience"
)

// Endpoints per deployment environment.
const (
	EndpointProduction = "https://api.sboc.us/graphql"
	EndpointStaging    = "https://stagingapi.sboc.us/graphql"
	EndpointDev        = "https://devapi.sboc.us/graphql"
)

// EndpointFor maps an environment name to its GraphQL endpoint. Unknown
// environments fall back to dev.
func EndpointFor(env string) string {
	switch env {
	case "production":
		return EndpointProduction
	case "staging":
		return EndpointStaging
	default:
		return EndpointDev
	}
}

// Client defines the directory API operations used by the remediation and
// audit workflows.
type Client interface {
	SitesForAI(ctx context.Context, limit, offset int) ([]Site, error)
	OrganizationForAI(ctx context.Context, id string) (*Organization, error)
	OrganizationsForAI(ctx context.Context, minimal bool) ([]Organization, error)
	UpdateSiteFromAI(ctx context.Context, siteID string, input SiteInput) error
	UpdateOrganizationFromAI(ctx context.Context, orgID string, input OrganizationInput) error
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the GraphQL endpoint.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit sets a per-second request rate limit with a burst equal to
// the integer portion of rps.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		}
	}
}

// WithRetryPolicy overrides the retry policy for queries. Mutations are
// retried only on transport-level failures regardless of policy, since a
// failed-looking mutation may still have committed remotely.
func WithRetryPolicy(p resilience.Policy) Option {
	return func(c *httpClient) {
		c.retry = p
	}
}

type httpClient struct {
	token   string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.Policy
}

// NewClient creates a directory API client authenticating with the given
// ai-scraping token. The default endpoint is the dev environment.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		token:   token,
		baseURL: EndpointDev,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		retry: resilience.DefaultPolicy(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors,omitempty"`
}

// execute posts one GraphQL document and returns the raw data payload.
// HTTP 429/5xx are wrapped as transient so the retry layer can see them.
func (c *httpClient) execute(ctx context.Context, operation, query string, variables map[string]any) (json.RawMessage, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "charityapi: rate limit")
		}
	}

	body, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, eris.Wrapf(err, "charityapi: marshal %s", operation)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrapf(err, "charityapi: create request %s", operation)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("ai-scraping-token", c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "charityapi: send %s", operation)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, eris.Wrapf(err, "charityapi: read response %s", operation)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := eris.Errorf("charityapi: %s: unexpected status %d", operation, resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	var gqlResp graphQLResponse
	if err := json.Unmarshal(respBody, &gqlResp); err != nil {
		return nil, eris.Wrapf(err, "charityapi: unmarshal response %s", operation)
	}
	if len(gqlResp.Errors) > 0 {
		return nil, eris.Errorf("charityapi: %s: graphql error: %s", operation, gqlResp.Errors[0].Message)
	}

	return gqlResp.Data, nil
}

// query executes a read operation with the configured retry policy.
func (c *httpClient) query(ctx context.Context, operation, doc string, variables map[string]any) (json.RawMessage, error) {
	p := c.retry
	p.OnRetry = resilience.RetryLogger(operation)
	return resilience.DoVal(ctx, p, func(ctx context.Context) (json.RawMessage, error) {
		return c.execute(ctx, operation, doc, variables)
	})
}

// mutate executes a write operation. Retries happen only when the request
// never completed at the transport level; an HTTP-level failure may mean
// the write committed, and re-running the workflow is the safe recovery.
func (c *httpClient) mutate(ctx context.Context, operation, doc string, variables map[string]any) (json.RawMessage, error) {
	p := c.retry
	p.OnRetry = resilience.RetryLogger(operation)
	p.ShouldRetry = transportTransient
	return resilience.DoVal(ctx, p, func(ctx context.Context) (json.RawMessage, error) {
		return c.execute(ctx, operation, doc, variables)
	})
}

// transportTransient reports whether err is transient at the connection
// level, excluding HTTP-status-derived transients.
func transportTransient(err error) bool {
	var te *resilience.TransientError
	if errors.As(err, &te) {
		return false
	}
	return resilience.IsTransient(err)
}

const siteFields = `
    id
    name
    streetAddress
    addressLine2
    city
    state
    zip
    organizationId
    status
    publicPhone
    publicEmail
    website
    description
    serviceArea
    ein`

const sitesForAIQuery = `
query getSitesForAI($limit: Int!, $offset: Int!) {
    sitesForAI(limit: $limit, offset: $offset) {` + siteFields + `
    }
}`

// SitesForAI fetches up to limit sites from the AI work queue.
func (c *httpClient) SitesForAI(ctx context.Context, limit, offset int) ([]Site, error) {
	data, err := c.query(ctx, "sitesForAI", sitesForAIQuery, map[string]any{
		"limit":  limit,
		"offset": offset,
	})
	if err != nil {
		return nil, err
	}

	var out struct {
		Sites []Site `json:"sitesForAI"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, eris.Wrap(err, "charityapi: decode sitesForAI")
	}
	return out.Sites, nil
}

const organizationForAIQuery = `
query getOrganizationForAI($organizationId: ID!) {
    organizationForAI(id: $organizationId) {
        id
        name
        streetAddress
        addressLine2
        city
        state
        zip
        sites {` + siteFields + `
        }
    }
}`

// OrganizationForAI fetches one organization with its sites embedded.
func (c *httpClient) OrganizationForAI(ctx context.Context, id string) (*Organization, error) {
	data, err := c.query(ctx, "organizationForAI", organizationForAIQuery, map[string]any{
		"organizationId": id,
	})
	if err != nil {
		return nil, err
	}

	var out struct {
		Organization *Organization `json:"organizationForAI"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, eris.Wrap(err, "charityapi: decode organizationForAI")
	}
	if out.Organization == nil {
		return nil, eris.Errorf("charityapi: organization %s not found", id)
	}
	return out.Organization, nil
}

const organizationsForAIQuery = `
query getOrganizationsForAI {
    organizationsForAI {
        id
        name
        streetAddress
        addressLine2
        city
        state
        zip
        publicEmail
        publicPhone
        website
        description
        ein
        sites {` + siteFields + `
        }
    }
}`

const organizationsForAIMinimalQuery = `
query getOrganizationsForAIMinimal {
    organizationsForAI {
        id
        name
        city
        state
        sites {
            id
            name
            city
            state
            status
        }
    }
}`

// OrganizationsForAI fetches all organizations. The minimal form returns
// only identity fields and is much cheaper on large directories.
func (c *httpClient) OrganizationsForAI(ctx context.Context, minimal bool) ([]Organization, error) {
	doc := organizationsForAIQuery
	if minimal {
		doc = organizationsForAIMinimalQuery
	}
	data, err := c.query(ctx, "organizationsForAI", doc, nil)
	if err != nil {
		return nil, err
	}

	var out struct {
		Organizations []Organization `json:"organizationsForAI"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, eris.Wrap(err, "charityapi: decode organizationsForAI")
	}
	return out.Organizations, nil
}

const updateSiteMutation = `
mutation updateSiteFromAI($siteId: String!, $input: siteInputForAIUpdate!) {
    updateSiteFromAI(siteId: $siteId, input: $input) {
        id
    }
}`

// UpdateSiteFromAI applies a partial update to one site.
func (c *httpClient) UpdateSiteFromAI(ctx context.Context, siteID string, input SiteInput) error {
	if siteID == "" {
		return eris.New("charityapi: site id is required")
	}
	if input.ModifiedBy == "" {
		return eris.New("charityapi: modifiedBy is required")
	}

	data, err := c.mutate(ctx, "updateSiteFromAI", updateSiteMutation, map[string]any{
		"siteId": siteID,
		"input":  input,
	})
	if err != nil {
		return err
	}

	var out struct {
		Updated *struct {
			ID string `json:"id"`
		} `json:"updateSiteFromAI"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return eris.Wrap(err, "charityapi: decode updateSiteFromAI")
	}
	if out.Updated == nil {
		return eris.Errorf("charityapi: update site %s returned no record", siteID)
	}
	return nil
}

const updateOrganizationMutation = `
mutation updateOrganizationFromAI($organizationId: String!, $input: organizationInputUpdate!) {
    updateOrganizationFromAI(organizationId: $organizationId, input: $input) {
        id
    }
}`

// UpdateOrganizationFromAI applies a partial update to one organization.
func (c *httpClient) UpdateOrganizationFromAI(ctx context.Context, orgID string, input OrganizationInput) error {
	if orgID == "" {
		return eris.New("charityapi: organization id is required")
	}
	if input.ModifiedBy == "" {
		return eris.New("charityapi: modifiedBy is required")
	}

	data, err := c.mutate(ctx, "updateOrganizationFromAI", updateOrganizationMutation, map[string]any{
		"organizationId": orgID,
		"input":          input,
	})
	if err != nil {
		return err
	}

	var out struct {
		Updated *struct {
			ID string `json:"id"`
		} `json:"updateOrganizationFromAI"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return eris.Wrap(err, "charityapi: decode updateOrganizationFromAI")
	}
	if out.Updated == nil {
		return eris.Errorf("charityapi: update organization %s returned no record", orgID)
	}
	return nil
}
