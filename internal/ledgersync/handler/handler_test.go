package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"landledger/internal/ledgersync/handler/mocks"
	"landledger/internal/ledgersync/models"
	listingmodels "landledger/internal/listings/models"
	registrymodels "landledger/internal/registry/models"
	id "landledger/pkg/domain"
	dErrors "landledger/pkg/domain-errors"
	"landledger/pkg/platform/middleware/admin"
)

//go:generate mockgen -source=handler.go -destination=mocks/service_mock.go -package=mocks Service

const (
	sellerHex = "0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"
	seller    = id.Address("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	buyer     = id.Address("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	txHash    = id.TxHash("0x1111111111111111111111111111111111111111111111111111111111111111")
)

type LedgerHandlerSuite struct {
	suite.Suite
	ctx context.Context
}

func TestLedgerHandlerSuite(t *testing.T) {
	suite.Run(t, new(LedgerHandlerSuite))
}

func (s *LedgerHandlerSuite) SetupSuite() {
	s.ctx = context.Background()
}

func newTestHandler(t *testing.T) (*Handler, *mocks.MockService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	mockService := mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(mockService, logger), mockService
}

func jsonRequest(method, target string, body any) *http.Request {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(method, target, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decode[T any](s *LedgerHandlerSuite, w *httptest.ResponseRecorder) T {
	var out T
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

// =============================================================================
// Verify
// =============================================================================

func (s *LedgerHandlerSuite) TestHandleVerify() {
	s.Run("mints and returns the transaction hash", func() {
		h, svc := newTestHandler(s.T())
		svc.EXPECT().Verify(gomock.Any(), models.VerifyRequest{Wallet: seller, Land: "Plot-1"}).
			Return(models.VerifyResult{TxHash: txHash, Block: 7}, nil)

		w := httptest.NewRecorder()
		h.HandleVerify(w, jsonRequest(http.MethodPost, "/api/verify", map[string]string{
			"userAddress": sellerHex,
			"landId":      " Plot-1 ",
		}))

		s.Equal(http.StatusOK, w.Code)
		resp := decode[VerifyResponse](s, w)
		s.True(resp.Success)
		s.Equal(txHash.String(), resp.TxHash)
	})

	s.Run("explicit land type is passed through", func() {
		h, svc := newTestHandler(s.T())
		svc.EXPECT().Verify(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req models.VerifyRequest) (models.VerifyResult, error) {
				s.Require().NotNil(req.LandType)
				s.Equal(registrymodels.LandTypeAgricultural, *req.LandType)
				return models.VerifyResult{TxHash: txHash}, nil
			})

		w := httptest.NewRecorder()
		h.HandleVerify(w, jsonRequest(http.MethodPost, "/api/verify", map[string]any{
			"userAddress": sellerHex,
			"landId":      "Plot-1",
			"landType":    2,
		}))
		s.Equal(http.StatusOK, w.Code)
	})

	s.Run("malformed address never reaches the service", func() {
		h, _ := newTestHandler(s.T())
		w := httptest.NewRecorder()
		h.HandleVerify(w, jsonRequest(http.MethodPost, "/api/verify", map[string]string{
			"userAddress": "not-a-wallet",
			"landId":      "Plot-1",
		}))
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("unknown fields are rejected", func() {
		h, _ := newTestHandler(s.T())
		w := httptest.NewRecorder()
		h.HandleVerify(w, jsonRequest(http.MethodPost, "/api/verify", map[string]string{
			"userAddress": sellerHex,
			"landId":      "Plot-1",
			"owner":       "me",
		}))
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("guard failure maps to forbidden with its message", func() {
		h, svc := newTestHandler(s.T())
		svc.EXPECT().Verify(gomock.Any(), gomock.Any()).
			Return(models.VerifyResult{}, dErrors.New(dErrors.CodeForbidden, "Wallet is not registered on the blockchain."))

		w := httptest.NewRecorder()
		h.HandleVerify(w, jsonRequest(http.MethodPost, "/api/verify", map[string]string{
			"userAddress": sellerHex,
			"landId":      "Plot-1",
		}))

		s.Equal(http.StatusForbidden, w.Code)
		resp := decode[map[string]any](s, w)
		s.Equal("forbidden", resp["error"])
		s.Equal("Wallet is not registered on the blockchain.", resp["error_description"])
	})

	s.Run("already digitized is forbidden", func() {
		h, svc := newTestHandler(s.T())
		svc.EXPECT().Verify(gomock.Any(), gomock.Any()).
			Return(models.VerifyResult{}, dErrors.New(dErrors.CodeAlreadyDone, "Land is already digitized on the blockchain.").
				WithDetail("land_id", "Plot-1"))

		w := httptest.NewRecorder()
		h.HandleVerify(w, jsonRequest(http.MethodPost, "/api/verify", map[string]string{
			"userAddress": sellerHex,
			"landId":      "Plot-1",
		}))

		s.Equal(http.StatusForbidden, w.Code)
		resp := decode[map[string]any](s, w)
		s.Equal("forbidden", resp["error"])
		s.Equal("Land is already digitized on the blockchain.", resp["error_description"])
		details, ok := resp["details"].(map[string]any)
		s.Require().True(ok)
		s.Equal("already_done", details["reason"])
		s.Equal("Plot-1", details["land_id"])
	})

	for name, code := range map[string]dErrors.Code{
		"chain rejection is an internal error":  dErrors.CodeChainRejected,
		"finality timeout is an internal error": dErrors.CodeFinalityTimeout,
	} {
		s.Run(name, func() {
			h, svc := newTestHandler(s.T())
			svc.EXPECT().Verify(gomock.Any(), gomock.Any()).
				Return(models.VerifyResult{}, dErrors.New(code, "mint did not settle"))

			w := httptest.NewRecorder()
			h.HandleVerify(w, jsonRequest(http.MethodPost, "/api/verify", map[string]string{
				"userAddress": sellerHex,
				"landId":      "Plot-1",
			}))

			s.Equal(http.StatusInternalServerError, w.Code)
			resp := decode[map[string]any](s, w)
			s.Equal("internal_error", resp["error"])
			s.NotContains(w.Body.String(), "mint did not settle")
		})
	}
}

// =============================================================================
// Listings
// =============================================================================

func (s *LedgerHandlerSuite) TestHandleCreateListing() {
	s.Run("decimal prices are converted exactly", func() {
		h, svc := newTestHandler(s.T())
		svc.EXPECT().CreateListing(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req models.CreateListingRequest) (models.ListingResult, error) {
				s.Equal("1000000000000000000", req.PriceMin.String())
				s.Equal("2500000000000000000", req.PriceMax.String())
				s.Equal(seller, req.Seller)
				return models.ListingResult{Listing: listingmodels.Listing{
					Land: req.Land, Seller: req.Seller, PriceMin: req.PriceMin, PriceMax: req.PriceMax,
					Contact: req.Contact, Status: listingmodels.StatusListed,
				}}, nil
			})

		w := httptest.NewRecorder()
		h.HandleCreateListing(w, jsonRequest(http.MethodPost, "/api/listings", map[string]any{
			"sellerAddress": sellerHex,
			"landId":        "Plot-1",
			"contactNumber": "0300-1234567",
			"priceMin":      "1",
			"priceMax":      "2.5",
		}))

		s.Equal(http.StatusCreated, w.Code)
		resp := decode[ListingActionResponse](s, w)
		s.Equal("2.5", resp.Listing.PriceMax)
		s.Equal("listed", resp.Listing.Status)
		s.NotNil(resp.Listing.Photos)
	})

	s.Run("too many photos is invalid", func() {
		h, _ := newTestHandler(s.T())
		w := httptest.NewRecorder()
		h.HandleCreateListing(w, jsonRequest(http.MethodPost, "/api/listings", map[string]any{
			"sellerAddress": sellerHex,
			"landId":        "Plot-1",
			"contactNumber": "0300",
			"priceMin":      "1",
			"priceMax":      "2",
			"photos":        []string{"a", "b", "c", "d"},
		}))
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("repeated photos are collapsed before the limit applies", func() {
		h, svc := newTestHandler(s.T())
		svc.EXPECT().CreateListing(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req models.CreateListingRequest) (models.ListingResult, error) {
				s.Equal([]string{"ipfs://a", "ipfs://b", "ipfs://c"}, req.Photos)
				return models.ListingResult{Listing: listingmodels.Listing{Land: req.Land, Photos: req.Photos}}, nil
			})

		w := httptest.NewRecorder()
		h.HandleCreateListing(w, jsonRequest(http.MethodPost, "/api/listings", map[string]any{
			"sellerAddress": sellerHex,
			"landId":        "Plot-1",
			"contactNumber": "0300",
			"priceMin":      "1",
			"priceMax":      "2",
			"photos":        []string{"ipfs://a", " ipfs://b", "ipfs://a", "ipfs://c"},
		}))
		s.Equal(http.StatusCreated, w.Code)
	})

	s.Run("float exponent prices are invalid", func() {
		h, _ := newTestHandler(s.T())
		w := httptest.NewRecorder()
		h.HandleCreateListing(w, jsonRequest(http.MethodPost, "/api/listings", map[string]any{
			"sellerAddress": sellerHex,
			"landId":        "Plot-1",
			"contactNumber": "0300",
			"priceMin":      "1e18",
			"priceMax":      "2",
		}))
		s.Equal(http.StatusBadRequest, w.Code)
	})
}

func (s *LedgerHandlerSuite) TestHandleLockPrice() {
	h, svc := newTestHandler(s.T())
	svc.EXPECT().LockPrice(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req models.LockPriceRequest) (models.ListingResult, error) {
			s.Equal(id.LandID("Plot-1"), req.Land)
			s.Equal("1500000000000000000", req.Price.String())
			return models.ListingResult{TxHash: txHash, Listing: listingmodels.Listing{
				Land: req.Land, Seller: req.Seller, FinalPrice: req.Price, Status: listingmodels.StatusOnChain,
			}}, nil
		})

	req := jsonRequest(http.MethodPost, "/api/listings/Plot-1/lock", map[string]string{
		"sellerAddress": sellerHex,
		"finalPrice":    "1.5",
	})
	w := httptest.NewRecorder()
	h.HandleLockPrice(w, withURLParam(req, "landID", "Plot-1"))

	s.Equal(http.StatusOK, w.Code)
	resp := decode[ListingActionResponse](s, w)
	s.Equal("1.5", resp.Listing.FinalPrice)
	s.Equal("1500000000000000000", resp.Listing.FinalPriceWei)
	s.Equal("on_chain", resp.Listing.Status)
}

func (s *LedgerHandlerSuite) TestHandleLockPrice_ChainRejectionKeepsBadGateway() {
	h, svc := newTestHandler(s.T())
	svc.EXPECT().LockPrice(gomock.Any(), gomock.Any()).
		Return(models.ListingResult{}, dErrors.New(dErrors.CodeChainRejected, "Not the seller"))

	req := jsonRequest(http.MethodPost, "/api/listings/Plot-1/lock", map[string]string{
		"sellerAddress": sellerHex,
		"finalPrice":    "1.5",
	})
	w := httptest.NewRecorder()
	h.HandleLockPrice(w, withURLParam(req, "landID", "Plot-1"))

	s.Equal(http.StatusBadGateway, w.Code)
	resp := decode[map[string]any](s, w)
	s.Equal("chain_rejected", resp["error"])
	s.Equal("Not the seller", resp["error_description"])
}

func (s *LedgerHandlerSuite) TestHandleCancelListing_AlreadyDone() {
	h, svc := newTestHandler(s.T())
	svc.EXPECT().CancelListing(gomock.Any(), models.CancelRequest{Seller: seller, Land: "Plot-1"}).
		Return(models.ListingResult{AlreadyDone: true, Listing: listingmodels.Listing{Land: "Plot-1", Status: listingmodels.StatusListed}}, nil)

	req := jsonRequest(http.MethodPost, "/api/listings/Plot-1/cancel", map[string]string{"sellerAddress": sellerHex})
	w := httptest.NewRecorder()
	h.HandleCancelListing(w, withURLParam(req, "landID", "Plot-1"))

	s.Equal(http.StatusOK, w.Code)
	resp := decode[ListingActionResponse](s, w)
	s.True(resp.AlreadyDone)
	s.Empty(resp.TxHash)
}

func (s *LedgerHandlerSuite) TestHandleListListings() {
	s.Run("status filter is parsed", func() {
		h, svc := newTestHandler(s.T())
		svc.EXPECT().Listings(gomock.Any(), listingmodels.StatusOnChain).Return(nil, nil)

		w := httptest.NewRecorder()
		h.HandleListListings(w, httptest.NewRequest(http.MethodGet, "/api/listings?status=ON_CHAIN", nil))

		s.Equal(http.StatusOK, w.Code)
		s.JSONEq(`{"listings":[]}`, w.Body.String())
	})

	s.Run("unknown status is invalid", func() {
		h, _ := newTestHandler(s.T())
		w := httptest.NewRecorder()
		h.HandleListListings(w, httptest.NewRequest(http.MethodGet, "/api/listings?status=pending", nil))
		s.Equal(http.StatusBadRequest, w.Code)
	})
}

// =============================================================================
// Purchase
// =============================================================================

func (s *LedgerHandlerSuite) TestHandlePurchase() {
	s.Run("successful purchase reports price in both units", func() {
		h, svc := newTestHandler(s.T())
		price := id.WeiFromInt64(1_500_000_000_000_000_000)
		svc.EXPECT().Purchase(gomock.Any(), models.PurchaseRequest{Buyer: buyer, Land: "Plot-1"}).
			Return(models.PurchaseResult{TxHash: txHash, Block: 12, Price: price, Listing: listingmodels.Listing{Status: listingmodels.StatusSold}}, nil)

		req := jsonRequest(http.MethodPost, "/api/listings/Plot-1/purchase", map[string]string{"buyerAddress": buyer.String()})
		w := httptest.NewRecorder()
		h.HandlePurchase(w, withURLParam(req, "landID", "Plot-1"))

		s.Equal(http.StatusOK, w.Code)
		resp := decode[PurchaseResponse](s, w)
		s.Equal("1.5", resp.Price)
		s.Equal("1500000000000000000", resp.PriceWei)
		s.Equal("sold", resp.Listing.Status)
	})

	s.Run("price mismatch carries both prices", func() {
		h, svc := newTestHandler(s.T())
		svc.EXPECT().Purchase(gomock.Any(), gomock.Any()).Return(models.PurchaseResult{},
			dErrors.New(dErrors.CodePriceMismatch, "listing price does not match the on-chain price").
				WithDetail("listing_price", "1500000000000000000").
				WithDetail("chain_price", "1500000000000000001"))

		req := jsonRequest(http.MethodPost, "/api/listings/Plot-1/purchase", map[string]string{"buyerAddress": buyer.String()})
		w := httptest.NewRecorder()
		h.HandlePurchase(w, withURLParam(req, "landID", "Plot-1"))

		s.Equal(http.StatusForbidden, w.Code)
		resp := decode[map[string]any](s, w)
		s.Equal("price_mismatch", resp["error"])
		details := resp["details"].(map[string]any)
		s.Equal("1500000000000000001", details["chain_price"])
	})

	s.Run("pending reconciliation is accepted with the transaction", func() {
		h, svc := newTestHandler(s.T())
		svc.EXPECT().Purchase(gomock.Any(), gomock.Any()).Return(models.PurchaseResult{},
			dErrors.New(dErrors.CodeReconciliationPending, "payment succeeded, reconciliation pending").
				WithDetail("tx_hash", txHash.String()).
				WithDetail("failed_stores", "records"))

		req := jsonRequest(http.MethodPost, "/api/listings/Plot-1/purchase", map[string]string{"buyerAddress": buyer.String()})
		w := httptest.NewRecorder()
		h.HandlePurchase(w, withURLParam(req, "landID", "Plot-1"))

		s.Equal(http.StatusAccepted, w.Code)
		s.Contains(w.Body.String(), `"failed_stores":"records"`)
	})

	s.Run("internal errors hide their message", func() {
		h, svc := newTestHandler(s.T())
		svc.EXPECT().Purchase(gomock.Any(), gomock.Any()).
			Return(models.PurchaseResult{}, dErrors.New(dErrors.CodeInternal, "dial tcp 10.0.0.5:5432"))

		req := jsonRequest(http.MethodPost, "/api/listings/Plot-1/purchase", map[string]string{"buyerAddress": buyer.String()})
		w := httptest.NewRecorder()
		h.HandlePurchase(w, withURLParam(req, "landID", "Plot-1"))

		s.Equal(http.StatusInternalServerError, w.Code)
		s.NotContains(w.Body.String(), "10.0.0.5")
	})
}

// =============================================================================
// Transfer and queries
// =============================================================================

func (s *LedgerHandlerSuite) TestHandleTransfer_SameOwnerIsInvalid() {
	h, _ := newTestHandler(s.T())
	req := jsonRequest(http.MethodPost, "/api/lands/Plot-1/transfer", map[string]string{
		"ownerAddress":    sellerHex,
		"newOwnerAddress": seller.String(),
	})
	w := httptest.NewRecorder()
	h.HandleTransfer(w, withURLParam(req, "landID", "Plot-1"))
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *LedgerHandlerSuite) TestHandleHistory() {
	h, svc := newTestHandler(s.T())
	svc.EXPECT().History(gomock.Any(), id.LandID("Plot-1")).Return([]models.HistoryEntry{
		{Kind: registrymodels.EventTransfer, From: seller.String(), To: buyer, Price: id.WeiFromInt64(2_000_000_000_000_000_000), TxHash: txHash, Block: 20},
		{Kind: registrymodels.EventMint, From: "GOVT", To: seller, Block: 10},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/lands/Plot-1/history", nil)
	w := httptest.NewRecorder()
	h.HandleHistory(w, withURLParam(req, "landID", "Plot-1"))

	s.Equal(http.StatusOK, w.Code)
	resp := decode[HistoryResponse](s, w)
	s.Require().Len(resp.History, 2)
	s.Equal("TRANSFER", resp.History[0].Event)
	s.Equal("2", resp.History[0].Price)
	s.Equal("MINT", resp.History[1].Event)
	s.Equal("GOVT", resp.History[1].From)
	s.Empty(resp.History[1].Price)
}

func (s *LedgerHandlerSuite) TestHandleLandView_InvalidLandID() {
	h, _ := newTestHandler(s.T())
	req := httptest.NewRequest(http.MethodGet, "/api/lands/x", nil)
	w := httptest.NewRecorder()
	h.HandleLandView(w, withURLParam(req, "landID", strings.Repeat("x", 65)))
	s.Equal(http.StatusBadRequest, w.Code)
}

// =============================================================================
// Admin
// =============================================================================

func (s *LedgerHandlerSuite) TestAdminRoutesRequireToken() {
	h, svc := newTestHandler(s.T())
	entryID := uuid.New()
	svc.EXPECT().Replay(gomock.Any(), entryID).
		Return(models.JournalEntry{ID: entryID, State: models.EntryResolved, Attempts: 2}, nil)

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(admin.RequireAdminToken("secret-token", slog.New(slog.NewTextHandler(io.Discard, nil))))
		h.RegisterAdmin(r)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/reconciliations/"+entryID.String()+"/replay", nil))
	s.Equal(http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/admin/reconciliations/"+entryID.String()+"/replay", nil)
	req.Header.Set("X-Admin-Token", "secret-token")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	s.Equal(http.StatusOK, w.Code)
	resp := decode[ReconciliationResponse](s, w)
	s.Equal("resolved", resp.State)
}

func (s *LedgerHandlerSuite) TestHandleReplay_InvalidID() {
	h, _ := newTestHandler(s.T())
	req := httptest.NewRequest(http.MethodPost, "/admin/reconciliations/nope/replay", nil)
	w := httptest.NewRecorder()
	h.HandleReplay(w, withURLParam(req, "id", "nope"))
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *LedgerHandlerSuite) TestHandleListReconciliations_LimitBounds() {
	h, svc := newTestHandler(s.T())
	svc.EXPECT().OpenReconciliations(gomock.Any(), 10).Return([]models.JournalEntry{{
		ID: uuid.New(), Kind: models.WorkflowPurchase, State: models.EntryPending,
		FailedStores: []models.Store{models.StoreRecords},
	}}, nil)

	w := httptest.NewRecorder()
	h.HandleListReconciliations(w, httptest.NewRequest(http.MethodGet, "/admin/reconciliations?limit=10", nil))
	s.Equal(http.StatusOK, w.Code)
	resp := decode[ReconciliationsResponse](s, w)
	s.Require().Len(resp.Entries, 1)
	s.Equal([]string{"records"}, resp.Entries[0].FailedStores)

	w = httptest.NewRecorder()
	h.HandleListReconciliations(w, httptest.NewRequest(http.MethodGet, "/admin/reconciliations?limit=0", nil))
	s.Equal(http.StatusBadRequest, w.Code)
}
