package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"landledger/internal/ledgersync/models"
	listingmodels "landledger/internal/listings/models"
	id "landledger/pkg/domain"
	dErrors "landledger/pkg/domain-errors"
	"landledger/pkg/platform/httputil"
	"landledger/pkg/requestcontext"
)

// Service is the synchronization core as seen by the transport.
type Service interface {
	Verify(ctx context.Context, req models.VerifyRequest) (models.VerifyResult, error)
	Register(ctx context.Context, req models.RegisterRequest) (models.RegisterResult, error)
	CreateListing(ctx context.Context, req models.CreateListingRequest) (models.ListingResult, error)
	LockPrice(ctx context.Context, req models.LockPriceRequest) (models.ListingResult, error)
	CancelListing(ctx context.Context, req models.CancelRequest) (models.ListingResult, error)
	Purchase(ctx context.Context, req models.PurchaseRequest) (models.PurchaseResult, error)
	Transfer(ctx context.Context, req models.TransferRequest) (models.TransferResult, error)
	Listings(ctx context.Context, status listingmodels.Status) ([]listingmodels.Listing, error)
	LandView(ctx context.Context, land id.LandID) (models.LandView, error)
	History(ctx context.Context, land id.LandID) ([]models.HistoryEntry, error)
	Portfolio(ctx context.Context, wallet id.Address) ([]models.PortfolioEntry, error)
	OpenReconciliations(ctx context.Context, limit int) ([]models.JournalEntry, error)
	Replay(ctx context.Context, entryID uuid.UUID) (models.JournalEntry, error)
}

// Handler wires the ledger endpoints to the synchronization core.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the public endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/verify", h.HandleVerify)
	r.Post("/api/identities", h.HandleRegisterIdentity)
	r.Get("/api/identities/{wallet}/lands", h.HandlePortfolio)
	r.Post("/api/listings", h.HandleCreateListing)
	r.Get("/api/listings", h.HandleListListings)
	r.Post("/api/listings/{landID}/lock", h.HandleLockPrice)
	r.Post("/api/listings/{landID}/cancel", h.HandleCancelListing)
	r.Post("/api/listings/{landID}/purchase", h.HandlePurchase)
	r.Get("/api/lands/{landID}", h.HandleLandView)
	r.Get("/api/lands/{landID}/history", h.HandleHistory)
	r.Post("/api/lands/{landID}/transfer", h.HandleTransfer)
}

// RegisterAdmin mounts the operator endpoints. The caller guards the router.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/admin/reconciliations", h.HandleListReconciliations)
	r.Post("/admin/reconciliations/{id}/replay", h.HandleReplay)
}

// HandleVerify handles POST /api/verify.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[VerifyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	res, err := h.service.Verify(ctx, req.ToModel())
	if err != nil {
		h.fail(ctx, w, "verify", verifyError(err))
		return
	}
	h.logger.InfoContext(ctx, "land verified",
		"request_id", requestID,
		"land_id", req.LandID,
		"tx_hash", res.TxHash.String(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, VerifyResponse{Success: true, TxHash: res.TxHash.String(), BlockNumber: res.Block})
}

// HandleRegisterIdentity handles POST /api/identities.
func (h *Handler) HandleRegisterIdentity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[RegisterIdentityRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	res, err := h.service.Register(ctx, req.ToModel())
	if err != nil {
		h.fail(ctx, w, "register identity", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, RegisterResponse{
		Success:      true,
		TxHash:       res.TxHash.String(),
		NameMismatch: res.NameMismatch,
		CensusName:   res.CensusName,
	})
}

// HandlePortfolio handles GET /api/identities/{wallet}/lands.
func (h *Handler) HandlePortfolio(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	wallet, err := id.ParseAddress(chi.URLParam(r, "wallet"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	lands, err := h.service.Portfolio(ctx, wallet)
	if err != nil {
		h.fail(ctx, w, "portfolio", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromPortfolio(wallet, lands))
}

// HandleCreateListing handles POST /api/listings.
func (h *Handler) HandleCreateListing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CreateListingRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	res, err := h.service.CreateListing(ctx, req.ToModel())
	if err != nil {
		h.fail(ctx, w, "create listing", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromListingResult(res))
}

// HandleListListings handles GET /api/listings?status=.
func (h *Handler) HandleListListings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var status listingmodels.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed, err := listingmodels.ParseStatus(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		status = parsed
	}
	listings, err := h.service.Listings(ctx, status)
	if err != nil {
		h.fail(ctx, w, "list listings", err)
		return
	}
	out := ListingsResponse{Listings: make([]ListingResponse, 0, len(listings))}
	for _, l := range listings {
		out.Listings = append(out.Listings, FromListing(l))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

// HandleLockPrice handles POST /api/listings/{landID}/lock.
func (h *Handler) HandleLockPrice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	land, ok := h.landParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[LockPriceRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	res, err := h.service.LockPrice(ctx, models.LockPriceRequest{Seller: req.ParsedSeller(), Land: land, Price: req.ParsedPrice()})
	if err != nil {
		h.fail(ctx, w, "lock price", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromListingResult(res))
}

// HandleCancelListing handles POST /api/listings/{landID}/cancel.
func (h *Handler) HandleCancelListing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	land, ok := h.landParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[CancelListingRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	res, err := h.service.CancelListing(ctx, models.CancelRequest{Seller: req.ParsedSeller(), Land: land})
	if err != nil {
		h.fail(ctx, w, "cancel listing", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromListingResult(res))
}

// HandlePurchase handles POST /api/listings/{landID}/purchase.
func (h *Handler) HandlePurchase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()
	land, ok := h.landParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[PurchaseRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	res, err := h.service.Purchase(ctx, models.PurchaseRequest{Buyer: req.ParsedBuyer(), Land: land})
	if err != nil {
		h.fail(ctx, w, "purchase", err)
		return
	}
	h.logger.InfoContext(ctx, "land purchased",
		"request_id", requestID,
		"land_id", land.String(),
		"tx_hash", res.TxHash.String(),
		"price_wei", res.Price.String(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromPurchase(res))
}

// HandleLandView handles GET /api/lands/{landID}.
func (h *Handler) HandleLandView(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	land, ok := h.landParam(w, r)
	if !ok {
		return
	}
	view, err := h.service.LandView(ctx, land)
	if err != nil {
		h.fail(ctx, w, "land view", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromLandView(view))
}

// HandleHistory handles GET /api/lands/{landID}/history.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	land, ok := h.landParam(w, r)
	if !ok {
		return
	}
	entries, err := h.service.History(ctx, land)
	if err != nil {
		h.fail(ctx, w, "history", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromHistory(land, entries))
}

// HandleTransfer handles POST /api/lands/{landID}/transfer.
func (h *Handler) HandleTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	land, ok := h.landParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[TransferRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	res, err := h.service.Transfer(ctx, models.TransferRequest{
		Owner:    req.ParsedOwner(),
		NewOwner: req.ParsedNewOwner(),
		Land:     land,
	})
	if err != nil {
		h.fail(ctx, w, "transfer", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromTransfer(res))
}

// HandleListReconciliations handles GET /admin/reconciliations?limit=.
func (h *Handler) HandleListReconciliations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "limit must be between 1 and 500"))
			return
		}
		limit = n
	}
	entries, err := h.service.OpenReconciliations(ctx, limit)
	if err != nil {
		h.fail(ctx, w, "list reconciliations", err)
		return
	}
	out := ReconciliationsResponse{Entries: make([]ReconciliationResponse, 0, len(entries))}
	for _, e := range entries {
		out.Entries = append(out.Entries, FromJournalEntry(e))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

// HandleReplay handles POST /admin/reconciliations/{id}/replay.
func (h *Handler) HandleReplay(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entryID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "reconciliation id must be a uuid"))
		return
	}
	entry, err := h.service.Replay(ctx, entryID)
	if err != nil {
		h.fail(ctx, w, "replay reconciliation", err)
		return
	}
	h.logger.InfoContext(ctx, "reconciliation replayed",
		"request_id", requestcontext.RequestID(ctx),
		"journal_id", entryID.String(),
		"state", string(entry.State),
	)
	httputil.WriteJSON(w, http.StatusOK, FromJournalEntry(entry))
}

func (h *Handler) landParam(w http.ResponseWriter, r *http.Request) (id.LandID, bool) {
	land, err := id.ParseLandID(chi.URLParam(r, "landID"))
	if err != nil {
		httputil.WriteError(w, err)
		return "", false
	}
	return land, true
}

// fail logs at error level only for failures the caller cannot fix.
// verifyError folds a verify failure into the endpoint's 400/403/500 contract.
// Already digitized is a refusal; chain rejection and finality timeout are
// environment failures.
func verifyError(err error) error {
	de, ok := dErrors.As(err)
	if !ok {
		return err
	}
	switch de.Code {
	case dErrors.CodeAlreadyDone:
		out := dErrors.Wrap(err, dErrors.CodeForbidden, de.Message)
		for k, v := range de.Details {
			out.WithDetail(k, v)
		}
		return out.WithDetail("reason", string(de.Code))
	case dErrors.CodeChainRejected, dErrors.CodeFinalityTimeout, dErrors.CodeTimeout:
		return dErrors.Wrap(err, dErrors.CodeInternal, de.Message)
	}
	return err
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, op string, err error) {
	attrs := []any{
		"request_id", requestcontext.RequestID(ctx),
		"operation", op,
		"error", err,
	}
	if dErrors.ToHTTPStatus(dErrors.CodeOf(err)) >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, "request failed", attrs...)
	} else {
		h.logger.WarnContext(ctx, "request rejected", attrs...)
	}
	httputil.WriteError(w, err)
}
