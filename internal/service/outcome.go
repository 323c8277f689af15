package service

import (
	"helium-ledger/pkg/address"
	"helium-ledger/pkg/heliumapi"
	"helium-ledger/pkg/wallet/types"
)

// State of a signing flow. Done, InsufficientBalance, UserDenied and Incomplete are terminal.
type State int

const (
	FetchingAccount State = iota
	CheckingBalance
	FetchingFeeSchedule
	AwaitingDeviceApproval
	Decoding
	Submitting
	Done
	InsufficientBalance
	UserDenied
	// Incomplete is a transfer that still lacks the counter-party signature; the envelope
	// is handed over out of band.
	Incomplete
)

var stateNames = [...]string{
	FetchingAccount:        "fetching_account",
	CheckingBalance:        "checking_balance",
	FetchingFeeSchedule:    "fetching_fee_schedule",
	AwaitingDeviceApproval: "awaiting_device_approval",
	Decoding:               "decoding",
	Submitting:             "submitting",
	Done:                   "done",
	InsufficientBalance:    "insufficient_balance",
	UserDenied:             "user_denied",
	Incomplete:             "incomplete",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Outcome is the terminal result of a flow. User denial and insufficient balance are
// outcomes, not errors.
type Outcome struct {
	State   State           `json:"state"`
	Network address.Network `json:"network"`
	Txn     types.Txn       `json:"-"`
	// Hash is the submission handle returned by the API.
	Hash string `json:"hash,omitempty"`
	// TxnHash is computed locally from the signed record.
	TxnHash  string `json:"txn_hash,omitempty"`
	Envelope string `json:"envelope,omitempty"`

	Balance   types.Amount `json:"balance,omitempty"`
	Requested types.Amount `json:"requested,omitempty"`
}

type PayRequest struct {
	Payee  address.Address
	Amount types.Amount
}

type StakeRequest struct {
	Validator address.Address
	Stake     types.Amount
}

type UnstakeRequest struct {
	Validator address.Address
	// StakeAmount defaults to the validator's current stake when nil.
	StakeAmount        *types.Amount
	StakeReleaseHeight uint64
	// Fee overrides the computed fee when non-nil.
	Fee *uint64
}

type TransferRequest struct {
	OldAddress address.Address
	NewAddress address.Address
	// Owners default to the device account when nil.
	OldOwner *address.Address
	NewOwner *address.Address
	// Payment from the new owner to the old owner.
	Payment     types.Amount
	StakeAmount *types.Amount
}

// AccountBalance is one row of a balance query.
type AccountBalance struct {
	Account uint8              `json:"account"`
	Address address.Address    `json:"address"`
	State   *heliumapi.Account `json:"state,omitempty"`
	Err     error              `json:"-"`
}
