package solana

import (
	"strings"

	"github.com/pkg/errors"
)

// Commitment is the RPC config object selecting the bank state a request
// is evaluated against.
type Commitment struct {
	Commitment string `json:"commitment"`
}

func (c Commitment) String() string {
	return c.Commitment
}

const (
	confirmationStatusProcessed = "processed"
	confirmationStatusConfirmed = "confirmed"
	confirmationStatusFinalized = "finalized"
)

var (
	CommitmentProcessed = Commitment{Commitment: confirmationStatusProcessed}
	CommitmentConfirmed = Commitment{Commitment: confirmationStatusConfirmed}
	CommitmentFinalized = Commitment{Commitment: confirmationStatusFinalized}
)

// ParseCommitment maps a commitment name to its Commitment.
func ParseCommitment(name string) (Commitment, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case confirmationStatusProcessed:
		return CommitmentProcessed, nil
	case confirmationStatusConfirmed:
		return CommitmentConfirmed, nil
	case confirmationStatusFinalized:
		return CommitmentFinalized, nil
	}

	return Commitment{}, errors.Errorf("unknown commitment level %q", name)
}
