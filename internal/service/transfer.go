package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"helium-ledger/pkg/address"
	"helium-ledger/pkg/errno"
	"helium-ledger/pkg/wallet/types"
)

// Validator stake transfers name an old owner and a new owner, each possibly holding a
// different device. The initiator signs with CreateTransfer; unless both roles belong to
// the same account the result is an envelope the counter-party completes with
// AcceptTransfer. The device returns one signature per instruction, in the old owner slot
// when the account holds both roles.
//
// Envelopes carry no expiry. A stale one (e.g. after the validator stake changed) is
// signed and submitted as is and rejected by the chain, not here.

// roles of the device account in a transfer.
type roles struct {
	asOld, asNew bool
}

func rolesOf(me address.Address, txn *types.TransferValidatorStake) (roles, error) {
	oldOwner, err := address.FromBin(txn.OldOwner)
	if err != nil {
		return roles{}, fmt.Errorf("old_owner: %w", err)
	}
	newOwner, err := address.FromBin(txn.NewOwner)
	if err != nil {
		return roles{}, fmt.Errorf("new_owner: %w", err)
	}
	return roles{asOld: me.Equal(oldOwner), asNew: me.Equal(newOwner)}, nil
}

// merge copies the device signature into the caller's role fields of dst. The other role's
// field is never touched.
func (r roles) merge(dst, signed *types.TransferValidatorStake) {
	switch {
	case r.asOld && r.asNew:
		dst.OldOwnerSignature = append([]byte(nil), signed.OldOwnerSignature...)
		dst.NewOwnerSignature = append([]byte(nil), signed.OldOwnerSignature...)
	case r.asOld:
		dst.OldOwnerSignature = append([]byte(nil), signed.OldOwnerSignature...)
	case r.asNew:
		dst.NewOwnerSignature = append([]byte(nil), signed.NewOwnerSignature...)
	}
}

func (s *Signer) CreateTransfer(ctx context.Context, req TransferRequest) (*Outcome, error) {
	if err := s.requireVersion(ctx, true); err != nil {
		return nil, err
	}
	f := s.newFlow(types.KindTransferValidatorStake)

	f.enter(FetchingAccount)
	me, err := s.Address(ctx, false)
	if err != nil {
		return f.fail(err)
	}
	oldOwner, newOwner := me, me
	if req.OldOwner != nil {
		oldOwner = *req.OldOwner
	}
	if req.NewOwner != nil {
		newOwner = *req.NewOwner
	}
	if !me.Equal(oldOwner) && !me.Equal(newOwner) {
		return f.fail(fmt.Errorf("%w: %s", errno.ErrNotParticipant, me))
	}

	api := s.apis(oldOwner.Network)
	stake, err := s.stakeAmount(ctx, api, req.OldAddress, req.StakeAmount)
	if err != nil {
		return f.fail(err)
	}

	txn := &types.TransferValidatorStake{
		OldAddress:    req.OldAddress.Bin(),
		NewAddress:    req.NewAddress.Bin(),
		OldOwner:      oldOwner.Bin(),
		NewOwner:      newOwner.Bin(),
		StakeAmount:   stake.Bones(),
		PaymentAmount: req.Payment.Bones(),
	}
	if err := s.applyFee(ctx, f, api, txn, nil); err != nil {
		return f.fail(err)
	}

	out, signed, err := s.signTransfer(ctx, f, txn, me)
	if out != nil || err != nil {
		return out, err
	}
	r := roles{asOld: me.Equal(oldOwner), asNew: me.Equal(newOwner)}
	merged := txn.Clone().(*types.TransferValidatorStake)
	r.merge(merged, signed)

	if merged.FullySigned() {
		return s.submit(ctx, f, api, oldOwner.Network, merged)
	}
	return s.handOff(f, merged, oldOwner.Network)
}

func (s *Signer) AcceptTransfer(ctx context.Context, envelope string) (*Outcome, error) {
	decoded, err := types.DecodeEnvelope(envelope)
	if err != nil {
		return nil, err
	}
	input, ok := decoded.(*types.TransferValidatorStake)
	if !ok {
		return nil, fmt.Errorf("%w: envelope holds %s, not a stake transfer", errno.ErrInvalidEnvelope, decoded.Kind())
	}
	oldOwner, err := address.FromBin(input.OldOwner)
	if err != nil {
		return nil, fmt.Errorf("%w: old_owner: %w", errno.ErrInvalidEnvelope, err)
	}
	if err := s.requireVersion(ctx, true); err != nil {
		return nil, err
	}
	f := s.newFlow(types.KindTransferValidatorStake)

	f.enter(FetchingAccount)
	me, err := s.Address(ctx, false)
	if err != nil {
		return f.fail(err)
	}
	r, err := rolesOf(me, input)
	if err != nil {
		return f.fail(fmt.Errorf("%w: %w", errno.ErrInvalidEnvelope, err))
	}
	// the caller must hold a role whose signature is still missing
	if !((r.asOld && len(input.OldOwnerSignature) == 0) || (r.asNew && len(input.NewOwnerSignature) == 0)) {
		return f.fail(fmt.Errorf("%w: %s", errno.ErrNotParticipant, me))
	}

	out, signed, err := s.signTransfer(ctx, f, input, me)
	if out != nil || err != nil {
		return out, err
	}
	merged := input.Clone().(*types.TransferValidatorStake)
	r.merge(merged, signed)

	if !merged.FullySigned() {
		f.log.Warn("transfer still lacks a signature after accept")
		return s.handOff(f, merged, oldOwner.Network)
	}
	return s.submit(ctx, f, s.apis(oldOwner.Network), oldOwner.Network, merged)
}

// signTransfer gets the device signature for txn. A non-nil Outcome means the user denied.
func (s *Signer) signTransfer(ctx context.Context, f *flow, txn *types.TransferValidatorStake, me address.Address) (*Outcome, *types.TransferValidatorStake, error) {
	signed, denied, err := s.sign(ctx, f, txn)
	if err != nil {
		out, err := f.fail(err)
		return out, nil, err
	}
	if denied {
		out, _ := f.finish(&Outcome{State: UserDenied, Network: me.Network, Txn: txn})
		return out, nil, nil
	}
	if err := verifySigned(txn, signed, me); err != nil {
		out, err := f.fail(err)
		return out, nil, err
	}
	return nil, signed.(*types.TransferValidatorStake), nil
}

// handOff ends a flow with a partially signed transfer for the counter-party.
func (s *Signer) handOff(f *flow, txn *types.TransferValidatorStake, network address.Network) (*Outcome, error) {
	env, err := types.EncodeEnvelope(txn)
	if err != nil {
		return f.fail(err)
	}
	txnHash, err := types.Hash(txn)
	if err != nil {
		return f.fail(err)
	}
	f.log.Info("transfer awaiting counter-party signature", zap.String("txn_hash", txnHash))
	return f.finish(&Outcome{State: Incomplete, Network: network, Txn: txn, Envelope: env, TxnHash: txnHash})
}
