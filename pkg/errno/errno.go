package errno

import "errors"

// Errno defines the error code logic
type Errno struct {
	Code    int
	Message string
}

func (e Errno) Error() string {
	return e.Message
}

// Is matches on Code so that a copied or re-worded Errno still satisfies errors.Is.
func (e Errno) Is(target error) bool {
	var t Errno
	if errors.As(target, &t) {
		return t.Code == e.Code
	}
	return false
}

// Decode tries to convert an error to Errno
func Decode(err error) (int, string) {
	if err == nil {
		return OK.Code, OK.Message
	}

	var typed Errno
	if errors.As(err, &typed) {
		// 保留包装链上的上下文信息
		return typed.Code, err.Error()
	}
	var ptr *Errno
	if errors.As(err, &ptr) && ptr != nil {
		return ptr.Code, err.Error()
	}
	return InternalServerError.Code, err.Error()
}

// Common Errors
var (
	OK                  = Errno{Code: 0, Message: "Success"}
	InternalServerError = Errno{Code: 10001, Message: "Internal server error"}
	ErrBind             = Errno{Code: 10002, Message: "Error occurred while binding the request body to the struct"}
)

// Transport errors (11000+): fatal to the current operation, never retried.
var (
	ErrCouldNotFindLedger = Errno{Code: 11001, Message: "Could not find ledger. Is it disconnected or locked?"}
	ErrAppNotRunning      = Errno{Code: 11002, Message: "Ledger is connected but Helium application does not appear to be running"}
	ErrVersion            = Errno{Code: 11003, Message: "Error getting version. App must be waiting for a command."}
	ErrUpgradeRequired    = Errno{Code: 11004, Message: "Upgrade the Helium Ledger App to use this command"}
)

// Validation errors (20000+): reported before any device interaction when detectable.
var (
	ErrMalformedAddress = Errno{Code: 20101, Message: "Malformed address"}
	ErrChecksumMismatch = Errno{Code: 20102, Message: "Address checksum mismatch"}
	ErrBadEncoding      = Errno{Code: 20103, Message: "Bad address encoding"}
	ErrUnknownKeyType   = Errno{Code: 20104, Message: "Unsupported key type"}
	ErrEncodingOverflow = Errno{Code: 20201, Message: "Instruction payload exceeds device frame capacity"}
	ErrDecodingFailed   = Errno{Code: 20202, Message: "Decoding Error"}
	ErrInvalidEnvelope  = Errno{Code: 20203, Message: "Invalid transaction envelope"}
	ErrInvalidAmount    = Errno{Code: 20301, Message: "Invalid amount"}
	ErrNotParticipant   = Errno{Code: 20401, Message: "Selected Ledger account is neither current nor new owner of validator"}
	ErrInvalidSignature = Errno{Code: 20402, Message: "Device returned an invalid signature"}
	ErrTxnMismatch      = Errno{Code: 20403, Message: "Device returned a different transaction than requested"}
)

// Remote service errors (30000+): surfaced verbatim, no automatic retry.
var (
	ErrGettingFees = Errno{Code: 30001, Message: "Getting Fees"}
	ErrRemote      = Errno{Code: 30002, Message: "Helium API Error"}
)
