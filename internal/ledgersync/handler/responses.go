package handler

import (
	"time"

	"landledger/internal/ledgersync/models"
	listingmodels "landledger/internal/listings/models"
	id "landledger/pkg/domain"
)

// Amounts are rendered twice: as a decimal coin string for display and as
// the exact smallest-unit integer for clients that sign transactions.

type VerifyResponse struct {
	Success     bool   `json:"success"`
	TxHash      string `json:"txHash"`
	BlockNumber uint64 `json:"blockNumber,omitempty"`
}

type RegisterResponse struct {
	Success      bool   `json:"success"`
	TxHash       string `json:"txHash"`
	NameMismatch bool   `json:"nameMismatch"`
	CensusName   string `json:"censusName,omitempty"`
}

type ListingResponse struct {
	LandID        string    `json:"landId"`
	SellerAddress string    `json:"sellerAddress"`
	LandType      string    `json:"landType,omitempty"`
	Description   string    `json:"description,omitempty"`
	Location      string    `json:"location,omitempty"`
	ContactNumber string    `json:"contactNumber"`
	PriceMin      string    `json:"priceMin"`
	PriceMax      string    `json:"priceMax"`
	FinalPrice    string    `json:"finalPrice,omitempty"`
	FinalPriceWei string    `json:"finalPriceWei,omitempty"`
	Photos        []string  `json:"photos"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type ListingsResponse struct {
	Listings []ListingResponse `json:"listings"`
}

type ListingActionResponse struct {
	Success     bool            `json:"success"`
	TxHash      string          `json:"txHash,omitempty"`
	AlreadyDone bool            `json:"alreadyDone,omitempty"`
	Listing     ListingResponse `json:"listing"`
}

type PurchaseResponse struct {
	Success     bool            `json:"success"`
	TxHash      string          `json:"txHash"`
	BlockNumber uint64          `json:"blockNumber"`
	Price       string          `json:"price"`
	PriceWei    string          `json:"priceWei"`
	Listing     ListingResponse `json:"listing"`
}

type OwnerResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	WalletAddress string `json:"walletAddress"`
}

type TransferResponse struct {
	Success     bool          `json:"success"`
	TxHash      string        `json:"txHash"`
	BlockNumber uint64        `json:"blockNumber"`
	NewOwner    OwnerResponse `json:"newOwner"`
}

type ChainListingResponse struct {
	Active        bool       `json:"active"`
	SellerAddress string     `json:"sellerAddress"`
	Price         string     `json:"price"`
	PriceWei      string     `json:"priceWei"`
	Deadline      *time.Time `json:"deadline,omitempty"`
}

type GovtRecordResponse struct {
	OwnerLegalID string `json:"ownerLegalId"`
	Location     string `json:"location,omitempty"`
	AreaSqFt     int64  `json:"areaSqFt,omitempty"`
}

type LandViewResponse struct {
	LandID       string                `json:"landId"`
	Minted       bool                  `json:"minted"`
	Owner        string                `json:"owner,omitempty"`
	LegalID      string                `json:"legalId,omitempty"`
	DocumentHash string                `json:"documentHash,omitempty"`
	LandType     string                `json:"landType,omitempty"`
	Status       string                `json:"status,omitempty"`
	VerifiedAt   *time.Time            `json:"verifiedAt,omitempty"`
	ChainListing *ChainListingResponse `json:"chainListing,omitempty"`
	Listing      *ListingResponse      `json:"listing,omitempty"`
	GovtRecord   *GovtRecordResponse   `json:"govtRecord,omitempty"`
}

type HistoryEntryResponse struct {
	Event       string `json:"event"`
	From        string `json:"from"`
	To          string `json:"to"`
	Price       string `json:"price,omitempty"`
	TxHash      string `json:"txHash"`
	BlockNumber uint64 `json:"blockNumber"`
}

type HistoryResponse struct {
	LandID  string                 `json:"landId"`
	History []HistoryEntryResponse `json:"history"`
}

type PortfolioLandResponse struct {
	LandID        string `json:"landId"`
	Location      string `json:"location,omitempty"`
	AreaSqFt      int64  `json:"areaSqFt,omitempty"`
	Minted        bool   `json:"minted"`
	ListingStatus string `json:"listingStatus,omitempty"`
}

type PortfolioResponse struct {
	WalletAddress string                  `json:"walletAddress"`
	Lands         []PortfolioLandResponse `json:"lands"`
}

type ReconciliationResponse struct {
	ID           string    `json:"id"`
	Workflow     string    `json:"workflow"`
	LandID       string    `json:"landId"`
	TxHash       string    `json:"txHash"`
	State        string    `json:"state"`
	FailedStores []string  `json:"failedStores,omitempty"`
	Attempts     int       `json:"attempts"`
	LastError    string    `json:"lastError,omitempty"`
	Alerted      bool      `json:"alerted"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type ReconciliationsResponse struct {
	Entries []ReconciliationResponse `json:"entries"`
}

func FromListing(l listingmodels.Listing) ListingResponse {
	out := ListingResponse{
		LandID:        l.Land.String(),
		SellerAddress: l.Seller.String(),
		LandType:      l.LandType,
		Description:   l.Description,
		Location:      l.Location,
		ContactNumber: l.Contact,
		PriceMin:      l.PriceMin.Ether(),
		PriceMax:      l.PriceMax.Ether(),
		Photos:        l.Photos,
		Status:        l.Status.String(),
		CreatedAt:     l.CreatedAt,
		UpdatedAt:     l.UpdatedAt,
	}
	if out.Photos == nil {
		out.Photos = []string{}
	}
	if !l.FinalPrice.IsZero() {
		out.FinalPrice = l.FinalPrice.Ether()
		out.FinalPriceWei = l.FinalPrice.String()
	}
	return out
}

func FromListingResult(res models.ListingResult) ListingActionResponse {
	return ListingActionResponse{
		Success:     true,
		TxHash:      res.TxHash.String(),
		AlreadyDone: res.AlreadyDone,
		Listing:     FromListing(res.Listing),
	}
}

func FromPurchase(res models.PurchaseResult) PurchaseResponse {
	return PurchaseResponse{
		Success:     true,
		TxHash:      res.TxHash.String(),
		BlockNumber: res.Block,
		Price:       res.Price.Ether(),
		PriceWei:    res.Price.String(),
		Listing:     FromListing(res.Listing),
	}
}

func FromTransfer(res models.TransferResult) TransferResponse {
	return TransferResponse{
		Success:     true,
		TxHash:      res.TxHash.String(),
		BlockNumber: res.Block,
		NewOwner: OwnerResponse{
			ID:            res.Owner.ID.String(),
			Name:          res.Owner.Name,
			WalletAddress: res.Owner.Wallet.String(),
		},
	}
}

func FromLandView(v models.LandView) LandViewResponse {
	out := LandViewResponse{LandID: v.Record.Land.String(), Minted: v.Record.Minted()}
	if out.Minted {
		verifiedAt := v.Record.VerifiedAt
		out.Owner = v.Record.Owner.String()
		out.LegalID = v.Record.LegalID.String()
		out.DocumentHash = v.Record.DocumentHash
		out.LandType = v.Record.LandType.String()
		out.Status = v.Record.Status.String()
		if !verifiedAt.IsZero() {
			out.VerifiedAt = &verifiedAt
		}
	}
	if v.ChainListing.Active {
		cl := &ChainListingResponse{
			Active:        true,
			SellerAddress: v.ChainListing.Seller.String(),
			Price:         v.ChainListing.Price.Ether(),
			PriceWei:      v.ChainListing.Price.String(),
		}
		if !v.ChainListing.Deadline.IsZero() {
			deadline := v.ChainListing.Deadline
			cl.Deadline = &deadline
		}
		out.ChainListing = cl
	}
	if v.Listing != nil {
		l := FromListing(*v.Listing)
		out.Listing = &l
	}
	if v.Govt != nil {
		if out.LandID == "" {
			out.LandID = v.Govt.Land.String()
		}
		out.GovtRecord = &GovtRecordResponse{
			OwnerLegalID: v.Govt.OwnerLegalID.String(),
			Location:     v.Govt.Location,
			AreaSqFt:     v.Govt.AreaSqFt,
		}
	}
	return out
}

func FromHistory(land id.LandID, entries []models.HistoryEntry) HistoryResponse {
	out := HistoryResponse{LandID: land.String(), History: make([]HistoryEntryResponse, 0, len(entries))}
	for _, e := range entries {
		item := HistoryEntryResponse{
			Event:       string(e.Kind),
			From:        e.From,
			To:          e.To.String(),
			TxHash:      e.TxHash.String(),
			BlockNumber: e.Block,
		}
		if !e.Price.IsZero() {
			item.Price = e.Price.Ether()
		}
		out.History = append(out.History, item)
	}
	return out
}

func FromPortfolio(wallet id.Address, lands []models.PortfolioEntry) PortfolioResponse {
	out := PortfolioResponse{WalletAddress: wallet.String(), Lands: make([]PortfolioLandResponse, 0, len(lands))}
	for _, l := range lands {
		out.Lands = append(out.Lands, PortfolioLandResponse{
			LandID:        l.Record.Land.String(),
			Location:      l.Record.Location,
			AreaSqFt:      l.Record.AreaSqFt,
			Minted:        l.Minted,
			ListingStatus: l.ListingStatus.String(),
		})
	}
	return out
}

func FromJournalEntry(e models.JournalEntry) ReconciliationResponse {
	out := ReconciliationResponse{
		ID:        e.ID.String(),
		Workflow:  e.Kind.String(),
		LandID:    e.Land.String(),
		TxHash:    e.TxHash.String(),
		State:     string(e.State),
		Attempts:  e.Attempts,
		LastError: e.LastError,
		Alerted:   e.Alerted,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
	for _, st := range e.FailedStores {
		out.FailedStores = append(out.FailedStores, string(st))
	}
	return out
}
