package handler

import (
	"strings"

	"landledger/internal/ledgersync/models"
	listingmodels "landledger/internal/listings/models"
	registrymodels "landledger/internal/registry/models"
	id "landledger/pkg/domain"
	dErrors "landledger/pkg/domain-errors"
	platformstrings "landledger/pkg/platform/strings"
)

const (
	maxNameLength        = 100
	maxDescriptionLength = 2000
	maxLocationLength    = 200
	maxContactLength     = 32
	maxDocumentLength    = 128
)

// VerifyRequest is the body of POST /api/verify.
type VerifyRequest struct {
	UserAddress  string `json:"userAddress"`
	LandID       string `json:"landId"`
	DocumentHash string `json:"documentHash,omitempty"`
	LandType     *uint8 `json:"landType,omitempty"`

	parsedWallet   id.Address
	parsedLand     id.LandID
	parsedLandType *registrymodels.LandType
}

func (r *VerifyRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.DocumentHash) > maxDocumentLength {
		return dErrors.New(dErrors.CodeValidation, "documentHash must be at most 128 characters")
	}
	wallet, err := id.ParseAddress(r.UserAddress)
	if err != nil {
		return err
	}
	land, err := id.ParseLandID(r.LandID)
	if err != nil {
		return err
	}
	if r.LandType != nil {
		lt, err := registrymodels.ParseLandType(*r.LandType)
		if err != nil {
			return err
		}
		r.parsedLandType = &lt
	}
	r.parsedWallet, r.parsedLand = wallet, land
	r.DocumentHash = strings.TrimSpace(r.DocumentHash)
	r.LandID = land.String()
	return nil
}

func (r *VerifyRequest) ToModel() models.VerifyRequest {
	return models.VerifyRequest{
		Wallet:       r.parsedWallet,
		Land:         r.parsedLand,
		DocumentHash: r.DocumentHash,
		LandType:     r.parsedLandType,
	}
}

// RegisterIdentityRequest is the body of POST /api/identities.
type RegisterIdentityRequest struct {
	WalletAddress string `json:"walletAddress"`
	Name          string `json:"name"`
	LegalID       string `json:"legalId"`

	parsedWallet  id.Address
	parsedLegalID id.LegalID
}

func (r *RegisterIdentityRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if len(r.Name) > maxNameLength {
		return dErrors.New(dErrors.CodeValidation, "name must be at most 100 characters")
	}
	wallet, err := id.ParseAddress(r.WalletAddress)
	if err != nil {
		return err
	}
	legalID, err := id.ParseLegalID(r.LegalID)
	if err != nil {
		return err
	}
	r.parsedWallet, r.parsedLegalID = wallet, legalID
	return nil
}

func (r *RegisterIdentityRequest) ToModel() models.RegisterRequest {
	return models.RegisterRequest{Wallet: r.parsedWallet, Name: r.Name, LegalID: r.parsedLegalID}
}

// CreateListingRequest is the body of POST /api/listings. Prices are decimal
// coin amounts such as "1.5".
type CreateListingRequest struct {
	SellerAddress string   `json:"sellerAddress"`
	LandID        string   `json:"landId"`
	Description   string   `json:"description"`
	Location      string   `json:"location"`
	ContactNumber string   `json:"contactNumber"`
	PriceMin      string   `json:"priceMin"`
	PriceMax      string   `json:"priceMax"`
	Photos        []string `json:"photos,omitempty"`

	parsedSeller   id.Address
	parsedLand     id.LandID
	parsedPriceMin id.Wei
	parsedPriceMax id.Wei
}

func (r *CreateListingRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Photos = platformstrings.DedupeAndTrim(r.Photos)
	switch {
	case len(r.Description) > maxDescriptionLength:
		return dErrors.New(dErrors.CodeValidation, "description must be at most 2000 characters")
	case len(r.Location) > maxLocationLength:
		return dErrors.New(dErrors.CodeValidation, "location must be at most 200 characters")
	case len(r.ContactNumber) > maxContactLength:
		return dErrors.New(dErrors.CodeValidation, "contactNumber must be at most 32 characters")
	case len(r.Photos) > listingmodels.MaxPhotos:
		return dErrors.New(dErrors.CodeValidation, "at most 3 photos may be attached")
	}
	seller, err := id.ParseAddress(r.SellerAddress)
	if err != nil {
		return err
	}
	land, err := id.ParseLandID(r.LandID)
	if err != nil {
		return err
	}
	lo, err := id.ParseEther(r.PriceMin)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "priceMin: "+err.Error())
	}
	hi, err := id.ParseEther(r.PriceMax)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "priceMax: "+err.Error())
	}
	r.parsedSeller, r.parsedLand = seller, land
	r.parsedPriceMin, r.parsedPriceMax = lo, hi
	return nil
}

func (r *CreateListingRequest) ToModel() models.CreateListingRequest {
	return models.CreateListingRequest{
		Seller:      r.parsedSeller,
		Land:        r.parsedLand,
		Description: r.Description,
		Location:    r.Location,
		Contact:     r.ContactNumber,
		PriceMin:    r.parsedPriceMin,
		PriceMax:    r.parsedPriceMax,
		Photos:      r.Photos,
	}
}

// LockPriceRequest is the body of POST /api/listings/{landID}/lock.
type LockPriceRequest struct {
	SellerAddress string `json:"sellerAddress"`
	FinalPrice    string `json:"finalPrice"`

	parsedSeller id.Address
	parsedPrice  id.Wei
}

func (r *LockPriceRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	seller, err := id.ParseAddress(r.SellerAddress)
	if err != nil {
		return err
	}
	price, err := id.ParseEther(r.FinalPrice)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "finalPrice: "+err.Error())
	}
	if price.Sign() <= 0 {
		return dErrors.New(dErrors.CodeValidation, "finalPrice must be positive")
	}
	r.parsedSeller, r.parsedPrice = seller, price
	return nil
}

func (r *LockPriceRequest) ParsedSeller() id.Address { return r.parsedSeller }

func (r *LockPriceRequest) ParsedPrice() id.Wei { return r.parsedPrice }

// CancelListingRequest is the body of POST /api/listings/{landID}/cancel.
type CancelListingRequest struct {
	SellerAddress string `json:"sellerAddress"`

	parsedSeller id.Address
}

func (r *CancelListingRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	seller, err := id.ParseAddress(r.SellerAddress)
	if err != nil {
		return err
	}
	r.parsedSeller = seller
	return nil
}

func (r *CancelListingRequest) ParsedSeller() id.Address { return r.parsedSeller }

// PurchaseRequest is the body of POST /api/listings/{landID}/purchase. The
// payment is never taken from the client; it is the locked listing price.
type PurchaseRequest struct {
	BuyerAddress string `json:"buyerAddress"`

	parsedBuyer id.Address
}

func (r *PurchaseRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	buyer, err := id.ParseAddress(r.BuyerAddress)
	if err != nil {
		return err
	}
	r.parsedBuyer = buyer
	return nil
}

func (r *PurchaseRequest) ParsedBuyer() id.Address { return r.parsedBuyer }

// TransferRequest is the body of POST /api/lands/{landID}/transfer.
type TransferRequest struct {
	OwnerAddress    string `json:"ownerAddress"`
	NewOwnerAddress string `json:"newOwnerAddress"`

	parsedOwner    id.Address
	parsedNewOwner id.Address
}

func (r *TransferRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	owner, err := id.ParseAddress(r.OwnerAddress)
	if err != nil {
		return err
	}
	newOwner, err := id.ParseAddress(r.NewOwnerAddress)
	if err != nil {
		return err
	}
	if owner.Equal(newOwner) {
		return dErrors.New(dErrors.CodeValidation, "newOwnerAddress must differ from ownerAddress")
	}
	r.parsedOwner, r.parsedNewOwner = owner, newOwner
	return nil
}

func (r *TransferRequest) ParsedOwner() id.Address { return r.parsedOwner }

func (r *TransferRequest) ParsedNewOwner() id.Address { return r.parsedNewOwner }
