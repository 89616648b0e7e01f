package ethereum

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/crypto"

	id "landledger/pkg/domain"
)

// Keyring holds the administrative signer and the custodial signers for
// user-initiated writes. Each signer has a submission mutex so concurrent
// workflows never race for the same pending nonce.
type Keyring struct {
	chainID *big.Int
	admin   id.Address
	keys    map[id.Address]*ecdsa.PrivateKey
	locks   map[id.Address]*sync.Mutex
}

// NewKeyring parses hex private keys (with or without 0x).
func NewKeyring(chainID int64, adminKey string, signerKeys []string) (*Keyring, error) {
	k := &Keyring{
		chainID: big.NewInt(chainID),
		keys:    make(map[id.Address]*ecdsa.PrivateKey),
		locks:   make(map[id.Address]*sync.Mutex),
	}
	admin, err := k.add(adminKey)
	if err != nil {
		return nil, fmt.Errorf("admin key: %w", err)
	}
	k.admin = admin
	for i, raw := range signerKeys {
		if _, err := k.add(raw); err != nil {
			return nil, fmt.Errorf("signer key %d: %w", i, err)
		}
	}
	return k, nil
}

func (k *Keyring) add(raw string) (id.Address, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(raw), "0x"))
	if err != nil {
		return "", err
	}
	addr := id.AddressFromCommon(crypto.PubkeyToAddress(key.PublicKey))
	k.keys[addr] = key
	if _, ok := k.locks[addr]; !ok {
		k.locks[addr] = &sync.Mutex{}
	}
	return addr, nil
}

// Admin is the verification backend address that signs mints.
func (k *Keyring) Admin() id.Address { return k.admin }

// Has reports whether the keyring can sign for addr.
func (k *Keyring) Has(addr id.Address) bool {
	_, ok := k.keys[id.Address(strings.ToLower(addr.String()))]
	return ok
}

// transactor builds signing options for addr and returns the signer's submission lock.
func (k *Keyring) transactor(addr id.Address) (*bind.TransactOpts, *sync.Mutex, error) {
	addr = id.Address(strings.ToLower(addr.String()))
	key, ok := k.keys[addr]
	if !ok {
		return nil, nil, fmt.Errorf("no custodial signer for %s", addr)
	}
	opts, err := bind.NewKeyedTransactorWithChainID(key, k.chainID)
	if err != nil {
		return nil, nil, err
	}
	return opts, k.locks[addr], nil
}
