package service

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"helium-ledger/pkg/address"
	"helium-ledger/pkg/apdu"
	"helium-ledger/pkg/errno"
	"helium-ledger/pkg/fee"
	"helium-ledger/pkg/ledger"
	"helium-ledger/pkg/logger"
	"helium-ledger/pkg/monitor"
	"helium-ledger/pkg/wallet/types"
)

var _ SignerService = (*Signer)(nil)

// Options for a Signer.
type Options struct {
	// Account is the device account index used for every operation.
	Account uint8
	// DeviceTimeout bounds each device exchange, including the wait for the user. Zero means
	// no bound beyond the caller's context.
	DeviceTimeout time.Duration
	// OnProposal is called with the final unsigned record just before the device prompt.
	OnProposal func(types.Txn)
}

// Signer runs the preflight, device round-trip and submission of every operation.
type Signer struct {
	transport ledger.Transport
	apis      APIFactory
	opts      Options
}

func NewSigner(transport ledger.Transport, apis APIFactory, opts Options) *Signer {
	return &Signer{transport: transport, apis: apis, opts: opts}
}

// exchange opens a session for a single instruction.
func (s *Signer) exchange(ctx context.Context, fn func(context.Context, ledger.Session) error) error {
	if s.opts.DeviceTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.DeviceTimeout)
		defer cancel()
	}
	return ledger.WithSession(ctx, s.transport, func(sess ledger.Session) error {
		return fn(ctx, sess)
	})
}

func (s *Signer) Version(ctx context.Context) (apdu.Version, error) {
	var v apdu.Version
	err := s.exchange(ctx, func(ctx context.Context, sess ledger.Session) error {
		var err error
		v, err = ledger.GetVersion(ctx, sess)
		return err
	})
	return v, err
}

// requireVersion gates features added in app v2: account indexes other than 0 and the
// validator instructions.
func (s *Signer) requireVersion(ctx context.Context, validator bool) error {
	v, err := s.Version(ctx)
	if err != nil {
		return err
	}
	if v.SupportsAccounts() {
		return nil
	}
	switch {
	case validator:
		return fmt.Errorf("%w: validator commands need v2, device runs %s", errno.ErrUpgradeRequired, v)
	case s.opts.Account != 0:
		return fmt.Errorf("%w: account %d needs v2, device runs %s", errno.ErrUpgradeRequired, s.opts.Account, v)
	}
	return nil
}

func (s *Signer) Address(ctx context.Context, display bool) (address.Address, error) {
	return s.addressOf(ctx, s.opts.Account, display)
}

func (s *Signer) addressOf(ctx context.Context, account uint8, display bool) (address.Address, error) {
	var a address.Address
	err := s.exchange(ctx, func(ctx context.Context, sess ledger.Session) error {
		var err error
		a, err = ledger.GetAddress(ctx, sess, account, display)
		return err
	})
	return a, err
}

// Balance looks up the selected account, or with scan every account from 0 up to and
// including the selected one. Per-account lookup failures are reported in the row.
func (s *Signer) Balance(ctx context.Context, scan bool) ([]AccountBalance, error) {
	if err := s.requireVersion(ctx, false); err != nil {
		return nil, err
	}
	first := s.opts.Account
	if scan {
		first = 0
	}

	var rows []AccountBalance
	for acct := int(first); acct <= int(s.opts.Account); acct++ {
		a, err := s.addressOf(ctx, uint8(acct), !scan)
		if err != nil {
			return nil, err
		}
		row := AccountBalance{Account: uint8(acct), Address: a}
		row.State, row.Err = s.apis(a.Network).GetAccount(ctx, a)
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *Signer) Pay(ctx context.Context, req PayRequest) (*Outcome, error) {
	if err := s.requireVersion(ctx, false); err != nil {
		return nil, err
	}
	f := s.newFlow(types.KindPayment)

	f.enter(FetchingAccount)
	payer, err := s.Address(ctx, false)
	if err != nil {
		return f.fail(err)
	}
	api := s.apis(payer.Network)
	acc, err := api.GetAccount(ctx, payer)
	if err != nil {
		return f.fail(err)
	}

	f.enter(CheckingBalance)
	if acc.Balance < req.Amount {
		return f.finish(&Outcome{State: InsufficientBalance, Network: payer.Network, Balance: acc.Balance, Requested: req.Amount})
	}

	txn := &types.Payment{
		Payer:  payer.Bin(),
		Payee:  req.Payee.Bin(),
		Amount: req.Amount.Bones(),
		Nonce:  acc.SpeculativeNonce + 1,
	}
	return s.signAndSubmit(ctx, f, api, payer, txn, nil)
}

func (s *Signer) StakeValidator(ctx context.Context, req StakeRequest) (*Outcome, error) {
	if err := s.requireVersion(ctx, true); err != nil {
		return nil, err
	}
	f := s.newFlow(types.KindStakeValidator)

	f.enter(FetchingAccount)
	owner, err := s.Address(ctx, false)
	if err != nil {
		return f.fail(err)
	}
	api := s.apis(owner.Network)
	acc, err := api.GetAccount(ctx, owner)
	if err != nil {
		return f.fail(err)
	}

	f.enter(CheckingBalance)
	if acc.Balance < req.Stake {
		return f.finish(&Outcome{State: InsufficientBalance, Network: owner.Network, Balance: acc.Balance, Requested: req.Stake})
	}

	txn := &types.StakeValidator{
		Address: req.Validator.Bin(),
		Owner:   owner.Bin(),
		Stake:   req.Stake.Bones(),
	}
	return s.signAndSubmit(ctx, f, api, owner, txn, nil)
}

func (s *Signer) UnstakeValidator(ctx context.Context, req UnstakeRequest) (*Outcome, error) {
	if err := s.requireVersion(ctx, true); err != nil {
		return nil, err
	}
	f := s.newFlow(types.KindUnstakeValidator)

	f.enter(FetchingAccount)
	owner, err := s.Address(ctx, false)
	if err != nil {
		return f.fail(err)
	}
	api := s.apis(owner.Network)
	stake, err := s.stakeAmount(ctx, api, req.Validator, req.StakeAmount)
	if err != nil {
		return f.fail(err)
	}

	txn := &types.UnstakeValidator{
		Address:            req.Validator.Bin(),
		Owner:              owner.Bin(),
		StakeAmount:        stake.Bones(),
		StakeReleaseHeight: req.StakeReleaseHeight,
	}
	return s.signAndSubmit(ctx, f, api, owner, txn, req.Fee)
}

// stakeAmount returns the explicit amount or the validator's current stake.
func (s *Signer) stakeAmount(ctx context.Context, api API, validator address.Address, explicit *types.Amount) (types.Amount, error) {
	if explicit != nil {
		return *explicit, nil
	}
	v, err := api.GetValidator(ctx, validator)
	if err != nil {
		return 0, err
	}
	return v.Stake, nil
}

// applyFee stores the manual fee when given, otherwise the one computed from the chain vars.
func (s *Signer) applyFee(ctx context.Context, f *flow, api API, txn types.Txn, manual *uint64) error {
	f.enter(FetchingFeeSchedule)
	if manual != nil {
		txn.SetFee(*manual)
		return nil
	}
	cfg, err := api.GetFeeConfig(ctx)
	if err != nil {
		if !errors.Is(err, errno.ErrGettingFees) {
			err = fmt.Errorf("%w: %w", errno.ErrGettingFees, err)
		}
		return err
	}
	if err := fee.Apply(txn, cfg); err != nil {
		return fmt.Errorf("%w: %w", errno.ErrGettingFees, err)
	}
	return nil
}

func (s *Signer) signAndSubmit(ctx context.Context, f *flow, api API, signer address.Address, txn types.Txn, manualFee *uint64) (*Outcome, error) {
	if err := s.applyFee(ctx, f, api, txn, manualFee); err != nil {
		return f.fail(err)
	}

	signed, denied, err := s.sign(ctx, f, txn)
	if err != nil {
		return f.fail(err)
	}
	if denied {
		return f.finish(&Outcome{State: UserDenied, Network: signer.Network, Txn: txn})
	}
	if err := verifySigned(txn, signed, signer); err != nil {
		return f.fail(err)
	}
	return s.submit(ctx, f, api, signer.Network, signed)
}

// sign sends txn to the device. denied reports an on-device rejection.
func (s *Signer) sign(ctx context.Context, f *flow, txn types.Txn) (signed types.Txn, denied bool, err error) {
	req, err := apdu.ForTxn(txn)
	if err != nil {
		return nil, false, err
	}
	// the instruction must fit a single frame before the user is asked anything
	if _, err := req.Instruction(s.opts.Account); err != nil {
		return nil, false, err
	}
	if s.opts.OnProposal != nil {
		s.opts.OnProposal(txn)
	}

	f.enter(AwaitingDeviceApproval)
	err = s.exchange(ctx, func(ctx context.Context, sess ledger.Session) error {
		_, err := ledger.Do(ctx, sess, req, s.opts.Account)
		return err
	})
	if errors.Is(err, ledger.ErrDenied) {
		return nil, true, nil
	}
	if err != nil {
		return nil, false, err
	}
	f.enter(Decoding)
	return req.Signed(), false, nil
}

func (s *Signer) submit(ctx context.Context, f *flow, api API, network address.Network, signed types.Txn) (*Outcome, error) {
	f.enter(Submitting)
	txnHash, err := types.Hash(signed)
	if err != nil {
		return f.fail(err)
	}
	pending, err := api.Submit(ctx, signed)
	if err != nil {
		return f.fail(err)
	}
	monitor.SubmittedAmountTotal.WithLabelValues(signed.Kind().String(), network.String()).Add(float64(amountOf(signed)))
	return f.finish(&Outcome{State: Done, Network: network, Txn: signed, Hash: pending.Hash, TxnHash: txnHash})
}

// verifySigned checks that the device signed what was asked and that every signature the
// device filled verifies against signer.
func verifySigned(requested, signed types.Txn, signer address.Address) error {
	want, err := types.SigningBytes(requested)
	if err != nil {
		return err
	}
	got, err := types.SigningBytes(signed)
	if err != nil {
		return err
	}
	if !bytes.Equal(want, got) {
		return errno.ErrTxnMismatch
	}

	pub := ed25519.PublicKey(signer.Bytes())
	filled := 0
	for _, sig := range signed.SignatureFields() {
		if len(*sig) == 0 {
			continue
		}
		filled++
		if !ed25519.Verify(pub, got, *sig) {
			return errno.ErrInvalidSignature
		}
	}
	if filled == 0 {
		return fmt.Errorf("%w: no signature returned", errno.ErrInvalidSignature)
	}
	return nil
}

func amountOf(txn types.Txn) uint64 {
	switch t := txn.(type) {
	case *types.Payment:
		return t.Amount
	case *types.StakeValidator:
		return t.Stake
	case *types.TransferValidatorStake:
		return t.StakeAmount
	case *types.UnstakeValidator:
		return t.StakeAmount
	}
	return 0
}

// flow tracks one operation through its states for logging and metrics.
type flow struct {
	kind  types.Kind
	state State
	start time.Time
	log   *zap.Logger
}

func (s *Signer) newFlow(kind types.Kind) *flow {
	return &flow{
		kind:  kind,
		start: time.Now(),
		log:   logger.Named("signer").With(zap.Stringer("kind", kind), zap.Uint8("account", s.opts.Account)),
	}
}

func (f *flow) enter(st State) {
	f.state = st
	f.log.Debug("state", zap.Stringer("state", st))
}

func (f *flow) finish(out *Outcome) (*Outcome, error) {
	f.enter(out.State)
	monitor.FlowOutcomesTotal.WithLabelValues(f.kind.String(), out.State.String()).Inc()
	monitor.FlowDuration.WithLabelValues(f.kind.String()).Observe(time.Since(f.start).Seconds())
	if out.State == Done {
		f.log.Info("transaction submitted", zap.String("hash", out.Hash), zap.Stringer("network", out.Network))
	}
	return out, nil
}

func (f *flow) fail(err error) (*Outcome, error) {
	f.log.Error("flow failed", zap.Stringer("state", f.state), zap.Error(err))
	monitor.FlowOutcomesTotal.WithLabelValues(f.kind.String(), "error").Inc()
	return nil, err
}
