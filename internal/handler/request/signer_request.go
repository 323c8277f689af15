package request

// Amounts are decimal strings in whole tokens ("12.5"), addresses base58check. Address
// fields are checked by the helium_address binding rule.

type PayRequest struct {
	Payee  string `json:"payee" binding:"required,helium_address"`
	Amount string `json:"amount" binding:"required"`
}

type StakeRequest struct {
	Address string `json:"address" binding:"required,helium_address"`
	Stake   string `json:"stake" binding:"required"`
}

type UnstakeRequest struct {
	Address            string  `json:"address" binding:"required,helium_address"`
	StakeAmount        string  `json:"stake_amount"`
	StakeReleaseHeight uint64  `json:"stake_release_height" binding:"required"`
	Fee                *uint64 `json:"fee"`
}

type TransferRequest struct {
	OldAddress  string `json:"old_address" binding:"required,helium_address"`
	NewAddress  string `json:"new_address" binding:"required,helium_address"`
	OldOwner    string `json:"old_owner" binding:"helium_address"`
	NewOwner    string `json:"new_owner" binding:"helium_address"`
	Payment     string `json:"payment"`
	StakeAmount string `json:"stake_amount"`
}

type AcceptTransferRequest struct {
	Envelope string `json:"envelope" binding:"required"`
}
