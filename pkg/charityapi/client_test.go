package charityapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tackle-hunger/charity-cli/internal/resilience"
)

func fastRetry() resilience.Policy {
	return resilience.Policy{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
		Multiplier:     1,
		JitterFraction: 0,
	}
}

func TestSitesForAI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "test-token", r.Header.Get("ai-scraping-token"))

		var req struct {
			Query     string         `json:"query"`
			Variables map[string]any `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req.Query, "sitesForAI")
		assert.Equal(t, float64(25), req.Variables["limit"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": {"sitesForAI": [
			{"id": "s1", "name": "Pantry One", "streetAddress": "PO Box 55", "city": "Springfield", "state": "IL", "zip": "62701", "organizationId": "o1"},
			{"id": "s2", "name": "Pantry Two", "streetAddress": "100 Main St", "city": "Springfield", "state": "IL", "zip": "62701", "organizationId": "o1"}
		]}}`))
	}))
	defer srv.Close()

	client := NewClient("test-token", WithBaseURL(srv.URL))
	sites, err := client.SitesForAI(context.Background(), 25, 0)
	require.NoError(t, err)
	require.Len(t, sites, 2)
	assert.Equal(t, "s1", sites[0].ID)
	assert.Equal(t, "PO Box 55", sites[0].StreetAddress)
	assert.Equal(t, "o1", sites[1].OrganizationID)
}

func TestOrganizationForAI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data": {"organizationForAI": {
			"id": "o1", "name": "Helping Hands", "streetAddress": "PO Box 1",
			"sites": [{"id": "s1", "name": "Pantry", "streetAddress": "100 Main St", "organizationId": "o1"}]
		}}}`))
	}))
	defer srv.Close()

	client := NewClient("tok", WithBaseURL(srv.URL))
	org, err := client.OrganizationForAI(context.Background(), "o1")
	require.NoError(t, err)
	assert.Equal(t, "Helping Hands", org.Name)
	require.Len(t, org.Sites, 1)
	assert.Equal(t, "s1", org.Sites[0].ID)
}

func TestOrganizationForAINotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data": {"organizationForAI": null}}`))
	}))
	defer srv.Close()

	client := NewClient("tok", WithBaseURL(srv.URL))
	_, err := client.OrganizationForAI(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestGraphQLErrorSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"errors": [{"message": "not authorized"}]}`))
	}))
	defer srv.Close()

	client := NewClient("bad-token", WithBaseURL(srv.URL))
	_, err := client.SitesForAI(context.Background(), 10, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not authorized")
}

func TestQueryRetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"data": {"sitesForAI": []}}`))
	}))
	defer srv.Close()

	client := NewClient("tok", WithBaseURL(srv.URL), WithRetryPolicy(fastRetry()))
	sites, err := client.SitesForAI(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.Empty(t, sites)
	assert.Equal(t, int32(3), calls.Load())
}

func TestMutationNotRetriedOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient("tok", WithBaseURL(srv.URL), WithRetryPolicy(fastRetry()))
	err := client.UpdateSiteFromAI(context.Background(), "s1", SiteInput{ModifiedBy: "tester"})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "a 500 on a mutation may have committed; must not retry")
}

func TestUpdateSiteFromAI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query     string `json:"query"`
			Variables struct {
				SiteID string          `json:"siteId"`
				Input  json.RawMessage `json:"input"`
			} `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req.Query, "updateSiteFromAI")
		assert.Equal(t, "s1", req.Variables.SiteID)

		var input map[string]any
		require.NoError(t, json.Unmarshal(req.Variables.Input, &input))
		assert.Equal(t, "100 Main St", input["streetAddress"])
		assert.Equal(t, "AI_Copilot_Assistant", input["modifiedBy"])

		_, _ = w.Write([]byte(`{"data": {"updateSiteFromAI": {"id": "s1"}}}`))
	}))
	defer srv.Close()

	street := "100 Main St"
	client := NewClient("tok", WithBaseURL(srv.URL))
	err := client.UpdateSiteFromAI(context.Background(), "s1", SiteInput{
		StreetAddress: &street,
		ModifiedBy:    "AI_Copilot_Assistant",
	})
	require.NoError(t, err)
}

func TestUpdateValidation(t *testing.T) {
	client := NewClient("tok")

	err := client.UpdateSiteFromAI(context.Background(), "", SiteInput{ModifiedBy: "x"})
	require.Error(t, err)

	err = client.UpdateSiteFromAI(context.Background(), "s1", SiteInput{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "modifiedBy")

	err = client.UpdateOrganizationFromAI(context.Background(), "", OrganizationInput{ModifiedBy: "x"})
	require.Error(t, err)
}

func TestEndpointFor(t *testing.T) {
	assert.Equal(t, EndpointProduction, EndpointFor("production"))
	assert.Equal(t, EndpointStaging, EndpointFor("staging"))
	assert.Equal(t, EndpointDev, EndpointFor("dev"))
	assert.Equal(t, EndpointDev, EndpointFor(""))
}
