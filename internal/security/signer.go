// Package security provides cryptographic signing of route calculations so
// downstream consumers can verify a result came from this engine untampered.
package security

import (
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sirupsen/logrus"

	"github.com/yourorg/stableroute-engine/internal/model"
)

// SignedResult wraps a route calculation with its provenance signature.
type SignedResult struct {
	Result    *model.RouteCalculation `json:"result"`
	Signature string                  `json:"signature"`
	Signer    string                  `json:"signer"`
	SignedAt  int64                   `json:"signed_at"`
}

// Signer signs serialized route calculations with a secp256k1 key. The key is
// loaded from SIGNING_KEY (hex) or generated per process when unset, since
// the engine keeps no state across restarts.
type Signer struct {
	key     *ecdsa.PrivateKey
	address string
}

// NewSigner creates a Signer.
func NewSigner() (*Signer, error) {
	var (
		key *ecdsa.PrivateKey
		err error
	)

	if raw := os.Getenv("SIGNING_KEY"); raw != "" {
		key, err = crypto.HexToECDSA(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse SIGNING_KEY: %w", err)
		}
	} else {
		key, err = crypto.GenerateKey()
		if err != nil {
			return nil, fmt.Errorf("failed to generate signing key: %w", err)
		}
	}

	address := crypto.PubkeyToAddress(key.PublicKey).Hex()
	logrus.Infof("Result signer initialized, signer address %s", address)

	return &Signer{key: key, address: address}, nil
}

// Address returns the signer's public address for out-of-band verification.
func (s *Signer) Address() string {
	return s.address
}

// Sign wraps a calculation with a signature over its canonical JSON form.
func (s *Signer) Sign(calc *model.RouteCalculation) (*SignedResult, error) {
	digest, err := digest(calc)
	if err != nil {
		return nil, err
	}

	sig, err := crypto.Sign(digest, s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign result: %w", err)
	}

	return &SignedResult{
		Result:    calc,
		Signature: hexutil.Encode(sig),
		Signer:    s.address,
		SignedAt:  time.Now().Unix(),
	}, nil
}

// Verify checks that a signed result's signature matches its payload and the
// claimed signer address.
func Verify(sr *SignedResult) (bool, error) {
	digest, err := digest(sr.Result)
	if err != nil {
		return false, err
	}

	sig, err := hexutil.Decode(sr.Signature)
	if err != nil {
		return false, fmt.Errorf("invalid signature encoding: %w", err)
	}

	pub, err := crypto.SigToPub(digest, sig)
	if err != nil {
		return false, fmt.Errorf("failed to recover public key: %w", err)
	}

	return crypto.PubkeyToAddress(*pub).Hex() == sr.Signer, nil
}

// digest hashes the calculation's JSON form with keccak256.
func digest(calc *model.RouteCalculation) ([]byte, error) {
	payload, err := json.Marshal(calc)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize result: %w", err)
	}
	return crypto.Keccak256(payload), nil
}
