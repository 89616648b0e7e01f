package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ledgerhandler "landledger/internal/ledgersync/handler"
	"landledger/internal/ledgersync/journal"
	"landledger/internal/ledgersync/lease"
	ledgerservice "landledger/internal/ledgersync/service"
	listingstore "landledger/internal/listings/store"
	"landledger/internal/platform/config"
	httpmetrics "landledger/internal/platform/metrics"
	recordstore "landledger/internal/records/store"
	"landledger/internal/registry/simulator"
	"landledger/pkg/testutil"
)

// registered once per binary; the collectors live in the default registry
var routerMetrics = httpmetrics.New()

func newTestRouter(t *testing.T, adminToken string, checks ...healthCheck) http.Handler {
	t.Helper()
	records := recordstore.NewInMemory()
	svc, err := ledgerservice.New(ledgerservice.Deps{
		Chain:    simulator.New(simulatedAdmin),
		Records:  records,
		Owners:   records,
		Census:   records,
		Listings: listingstore.NewInMemory(),
		Leases:   lease.NewInMemory(),
		Journal:  journal.NewInMemory(),
	}, ledgerservice.Config{}, ledgerservice.WithLogger(slog.New(slog.DiscardHandler)))
	require.NoError(t, err)

	cfg := config.Config{Server: config.Server{AdminToken: adminToken, AllowedOrigins: []string{"http://localhost:3000"}}}
	logger := slog.New(slog.DiscardHandler)
	return newRouter(cfg, logger, ledgerhandler.New(svc, logger), routerMetrics, checks)
}

func TestRouter(t *testing.T) {
	testutil.Given(t, "a router over in-memory stores and the simulator", func(t *testing.T) {
		router := newTestRouter(t, "secret")

		testutil.When(t, "listing the marketplace", func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/api/listings", nil))

			testutil.Then(t, "an empty list is returned with a request id", func(t *testing.T) {
				assert.Equal(t, http.StatusOK, rr.Code)
				assert.JSONEq(t, `{"listings":[]}`, rr.Body.String())
				assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
			})
		})

		testutil.When(t, "an unregistered wallet asks to verify a land", func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/api/verify", map[string]string{
				"userAddress": "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
				"landId":      "Plot-1",
			}))

			testutil.Then(t, "the request is forbidden", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "forbidden")
			})
		})

		testutil.When(t, "the reconciliation journal is read without a token", func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/admin/reconciliations", nil))

			testutil.Then(t, "the caller is rejected", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
			})
		})

		testutil.When(t, "the reconciliation journal is read with the token", func(t *testing.T) {
			req := testutil.NewJSONRequest(t, http.MethodGet, "/admin/reconciliations", nil)
			req.Header.Set("X-Admin-Token", "secret")
			rr := testutil.DoRequest(router, req)

			testutil.Then(t, "the open entries are listed", func(t *testing.T) {
				assert.Equal(t, http.StatusOK, rr.Code)
				assert.JSONEq(t, `{"entries":[]}`, rr.Body.String())
			})
		})
	})

	testutil.Given(t, "no admin token is configured", func(t *testing.T) {
		router := newTestRouter(t, "")

		testutil.Then(t, "the operator routes are not mounted", func(t *testing.T) {
			req := testutil.NewJSONRequest(t, http.MethodGet, "/admin/reconciliations", nil)
			req.Header.Set("X-Admin-Token", "")
			rr := testutil.DoRequest(router, req)
			assert.Equal(t, http.StatusNotFound, rr.Code)
		})
	})
}

func TestHealthz(t *testing.T) {
	healthy := healthCheck{name: "records", check: func(context.Context) error { return nil }}
	down := healthCheck{name: "redis", check: func(context.Context) error { return errors.New("connection refused") }}

	rr := testutil.DoRequest(newTestRouter(t, "", healthy), testutil.NewJSONRequest(t, http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = testutil.DoRequest(newTestRouter(t, "", healthy, down), testutil.NewJSONRequest(t, http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "redis unavailable")
}
