package ethereum

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// registryABI is the subset of the land registry contract this service calls.
const registryABI = `[
  {"type":"function","name":"users","stateMutability":"view",
   "inputs":[{"name":"","type":"address"}],
   "outputs":[{"name":"name","type":"string"},{"name":"cnic","type":"string"},{"name":"isRegistered","type":"bool"}]},
  {"type":"function","name":"getLandRecord","stateMutability":"view",
   "inputs":[{"name":"landId","type":"string"}],
   "outputs":[{"name":"","type":"tuple","components":[
     {"name":"currentOwner","type":"address"},{"name":"cnic","type":"string"},{"name":"landId","type":"string"},
     {"name":"ipfsHash","type":"string"},{"name":"landType","type":"uint8"},{"name":"status","type":"uint8"},
     {"name":"verifiedAt","type":"uint256"}]}]},
  {"type":"function","name":"landListings","stateMutability":"view",
   "inputs":[{"name":"","type":"string"}],
   "outputs":[{"name":"price","type":"uint256"},{"name":"seller","type":"address"},{"name":"isActive","type":"bool"},{"name":"deadline","type":"uint256"}]},
  {"type":"function","name":"registerUser","stateMutability":"nonpayable",
   "inputs":[{"name":"_name","type":"string"},{"name":"_cnic","type":"string"}],"outputs":[]},
  {"type":"function","name":"storeVerifiedLandRecord","stateMutability":"nonpayable",
   "inputs":[{"name":"owner","type":"address"},{"name":"landId","type":"string"},{"name":"ipfsHash","type":"string"},{"name":"lType","type":"uint8"}],"outputs":[]},
  {"type":"function","name":"listLandForSale","stateMutability":"nonpayable",
   "inputs":[{"name":"landId","type":"string"},{"name":"price","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"cancelListing","stateMutability":"nonpayable",
   "inputs":[{"name":"landId","type":"string"}],"outputs":[]},
  {"type":"function","name":"buyLand","stateMutability":"payable",
   "inputs":[{"name":"landId","type":"string"}],"outputs":[]},
  {"type":"function","name":"transferLandOwnership","stateMutability":"nonpayable",
   "inputs":[{"name":"landId","type":"string"},{"name":"newOwner","type":"address"},{"name":"salePrice","type":"uint256"}],"outputs":[]},
  {"type":"event","name":"LandMinted","anonymous":false,
   "inputs":[{"name":"owner","type":"address","indexed":true},{"name":"landId","type":"string","indexed":false},
             {"name":"lType","type":"uint8","indexed":false},{"name":"tokenId","type":"uint256","indexed":false}]},
  {"type":"event","name":"LandTransferred","anonymous":false,
   "inputs":[{"name":"landId","type":"string","indexed":false},{"name":"from","type":"address","indexed":true},
             {"name":"to","type":"address","indexed":true},{"name":"price","type":"uint256","indexed":false}]}
]`

const (
	methodUsers          = "users"
	methodGetLandRecord  = "getLandRecord"
	methodLandListings   = "landListings"
	methodRegisterUser   = "registerUser"
	methodStoreVerified  = "storeVerifiedLandRecord"
	methodListForSale    = "listLandForSale"
	methodCancelListing  = "cancelListing"
	methodBuyLand        = "buyLand"
	methodTransferLand   = "transferLandOwnership"
	eventLandMinted      = "LandMinted"
	eventLandTransferred = "LandTransferred"
)

// ParsedABI returns the parsed registry ABI.
func ParsedABI() (abi.ABI, error) {
	return abi.JSON(strings.NewReader(registryABI))
}
