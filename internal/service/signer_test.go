package service

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helium-ledger/pkg/address"
	"helium-ledger/pkg/apdu"
	"helium-ledger/pkg/cache"
	"helium-ledger/pkg/errno"
	"helium-ledger/pkg/fee"
	"helium-ledger/pkg/heliumapi"
	"helium-ledger/pkg/ledger"
	"helium-ledger/pkg/wallet/types"
)

// fakeAPI is an in-memory remote service.
type fakeAPI struct {
	mu        sync.Mutex
	account   heliumapi.Account
	stake     types.Amount
	feeCfg    fee.Config
	feeErr    error
	calls     int
	submitted []types.Txn
}

func newFakeAPI(balance types.Amount, speculativeNonce uint64) *fakeAPI {
	return &fakeAPI{
		account: heliumapi.Account{Balance: balance, SpeculativeNonce: speculativeNonce},
		stake:   10_000 * types.BonesPerUnit,
		feeCfg:  fee.DefaultConfig(),
	}
}

func (f *fakeAPI) factory() APIFactory {
	return func(address.Network) API { return f }
}

func (f *fakeAPI) GetAccount(ctx context.Context, addr address.Address) (*heliumapi.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	acc := f.account
	acc.Address = addr.String()
	return &acc, nil
}

func (f *fakeAPI) GetValidator(ctx context.Context, addr address.Address) (*heliumapi.Validator, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return &heliumapi.Validator{Address: addr.String(), Stake: f.stake}, nil
}

func (f *fakeAPI) GetFeeConfig(ctx context.Context) (fee.Config, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.feeCfg, f.feeErr
}

func (f *fakeAPI) Submit(ctx context.Context, txn types.Txn) (*heliumapi.PendingTxn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.submitted = append(f.submitted, txn)
	h, err := types.Hash(txn)
	return &heliumapi.PendingTxn{Hash: h}, err
}

func (f *fakeAPI) Submitted() []types.Txn {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitted
}

func (f *fakeAPI) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// noSignTransport fails the test as soon as a sign instruction reaches the device.
type noSignTransport struct {
	t     *testing.T
	inner ledger.Transport
}

func (n noSignTransport) Open(ctx context.Context) (ledger.Session, error) {
	s, err := n.inner.Open(ctx)
	if err != nil {
		return nil, err
	}
	return noSignSession{t: n.t, Session: s}, nil
}

type noSignSession struct {
	t *testing.T
	ledger.Session
}

func (s noSignSession) Exchange(ctx context.Context, cmd apdu.Command) (apdu.Answer, error) {
	if cmd.INS != apdu.InsGetVersion && cmd.INS != apdu.InsGetPublicKey {
		s.t.Fatalf("unexpected device instruction %s", cmd)
	}
	return s.Session.Exchange(ctx, cmd)
}

func signCommands(dev *ledger.MockDevice) []apdu.Command {
	var out []apdu.Command
	for _, c := range dev.Commands() {
		if c.INS != apdu.InsGetVersion && c.INS != apdu.InsGetPublicKey {
			out = append(out, c)
		}
	}
	return out
}

func verify(t *testing.T, dev *ledger.MockDevice, account uint8, txn types.Txn, sig []byte) {
	t.Helper()
	msg, err := types.SigningBytes(txn)
	require.NoError(t, err)
	pub := dev.PrivateKey(account).Public().(ed25519.PublicKey)
	assert.True(t, ed25519.Verify(pub, msg, sig), "signature does not verify")
}

func TestPaySubmitsDeviceSignedRecord(t *testing.T) {
	dev := ledger.NewMockDevice(address.MainNet, 1)
	payee := ledger.NewMockDevice(address.MainNet, 2).Address(0)
	api := newFakeAPI(10*types.BonesPerUnit, 2_999_999)

	var proposed types.Txn
	signer := NewSigner(dev, api.factory(), Options{OnProposal: func(txn types.Txn) { proposed = txn.Clone() }})

	out, err := signer.Pay(context.Background(), PayRequest{Payee: payee, Amount: 10_000})
	require.NoError(t, err)
	require.Equal(t, Done, out.State)
	assert.Equal(t, address.MainNet, out.Network)
	assert.NotEmpty(t, out.Hash)
	assert.Equal(t, out.Hash, out.TxnHash)

	require.Len(t, api.Submitted(), 1)
	p := api.Submitted()[0].(*types.Payment)
	assert.Equal(t, dev.Address(0).Bin(), p.Payer)
	assert.Equal(t, payee.Bin(), p.Payee)
	assert.Equal(t, uint64(10_000), p.Amount)
	assert.Equal(t, uint64(3_000_000), p.Nonce)
	assert.Equal(t, uint64(30_000), p.Fee)
	verify(t, dev, 0, p, p.Signature)

	require.NotNil(t, proposed)
	assert.Empty(t, proposed.(*types.Payment).Signature)
	assert.Equal(t, uint64(30_000), proposed.GetFee())
}

func TestPayInsufficientBalanceNeverSigns(t *testing.T) {
	dev := ledger.NewMockDevice(address.MainNet, 1)
	api := newFakeAPI(5, 0)
	signer := NewSigner(noSignTransport{t: t, inner: dev}, api.factory(), Options{})

	out, err := signer.Pay(context.Background(), PayRequest{Payee: dev.Address(1), Amount: 6})
	require.NoError(t, err)
	assert.Equal(t, InsufficientBalance, out.State)
	assert.Equal(t, types.Amount(5), out.Balance)
	assert.Equal(t, types.Amount(6), out.Requested)
	assert.Empty(t, signCommands(dev))
	assert.Empty(t, api.Submitted())
}

func TestPayUserDenied(t *testing.T) {
	dev := ledger.NewMockDevice(address.MainNet, 1)
	dev.Deny = true
	api := newFakeAPI(10*types.BonesPerUnit, 0)
	signer := NewSigner(dev, api.factory(), Options{})

	out, err := signer.Pay(context.Background(), PayRequest{Payee: dev.Address(1), Amount: 1})
	require.NoError(t, err)
	assert.Equal(t, UserDenied, out.State)
	assert.Len(t, signCommands(dev), 1)
	assert.Empty(t, api.Submitted())

	opened, closed := dev.Sessions()
	assert.Equal(t, opened, closed)
}

func TestDeviceErrors(t *testing.T) {
	api := newFakeAPI(10*types.BonesPerUnit, 0)

	dev := ledger.NewMockDevice(address.MainNet, 1)
	dev.AppClosed = true
	_, err := NewSigner(dev, api.factory(), Options{}).Pay(context.Background(), PayRequest{Amount: 1})
	assert.True(t, errors.Is(err, errno.ErrAppNotRunning))

	dev = ledger.NewMockDevice(address.MainNet, 1)
	dev.OpenErr = errors.New("no device")
	_, err = NewSigner(dev, api.factory(), Options{}).Pay(context.Background(), PayRequest{Amount: 1})
	assert.True(t, errors.Is(err, errno.ErrCouldNotFindLedger))

	assert.Zero(t, api.Calls())
}

func TestFeeScheduleFailure(t *testing.T) {
	dev := ledger.NewMockDevice(address.MainNet, 1)
	api := newFakeAPI(10*types.BonesPerUnit, 0)
	api.feeErr = errors.New("vars unavailable")

	_, err := NewSigner(dev, api.factory(), Options{}).Pay(context.Background(), PayRequest{Payee: dev.Address(1), Amount: 1})
	assert.True(t, errors.Is(err, errno.ErrGettingFees))
	assert.Empty(t, signCommands(dev))
}

func TestVersionGating(t *testing.T) {
	dev := ledger.NewMockDevice(address.MainNet, 1)
	dev.Version = apdu.Version{Major: 1, Minor: 4}
	api := newFakeAPI(10*types.BonesPerUnit, 0)

	_, err := NewSigner(dev, api.factory(), Options{Account: 1}).Pay(context.Background(), PayRequest{Amount: 1})
	assert.True(t, errors.Is(err, errno.ErrUpgradeRequired))

	_, err = NewSigner(dev, api.factory(), Options{}).StakeValidator(context.Background(), StakeRequest{Stake: 1})
	assert.True(t, errors.Is(err, errno.ErrUpgradeRequired))

	_, err = NewSigner(dev, api.factory(), Options{}).Pay(context.Background(), PayRequest{Payee: dev.Address(1), Amount: 1})
	assert.NoError(t, err)
}

func TestStakeValidator(t *testing.T) {
	dev := ledger.NewMockDevice(address.TestNet, 1)
	validator := ledger.NewMockDevice(address.TestNet, 9).Address(0)
	api := newFakeAPI(20_000*types.BonesPerUnit, 0)
	signer := NewSigner(dev, api.factory(), Options{Account: 2})

	out, err := signer.StakeValidator(context.Background(), StakeRequest{Validator: validator, Stake: 10_000 * types.BonesPerUnit})
	require.NoError(t, err)
	require.Equal(t, Done, out.State)
	assert.Equal(t, address.TestNet, out.Network)

	s := out.Txn.(*types.StakeValidator)
	assert.Equal(t, dev.Address(2).Bin(), s.Owner)
	assert.Equal(t, validator.Bin(), s.Address)
	assert.NotZero(t, s.Fee)
	verify(t, dev, 2, s, s.OwnerSignature)

	out, err = signer.StakeValidator(context.Background(), StakeRequest{Validator: validator, Stake: 30_000 * types.BonesPerUnit})
	require.NoError(t, err)
	assert.Equal(t, InsufficientBalance, out.State)
}

func TestUnstakeDefaultsAndManualFee(t *testing.T) {
	dev := ledger.NewMockDevice(address.MainNet, 1)
	validator := ledger.NewMockDevice(address.MainNet, 9).Address(0)
	api := newFakeAPI(0, 0)
	signer := NewSigner(dev, api.factory(), Options{})

	manual := uint64(12_345)
	out, err := signer.UnstakeValidator(context.Background(), UnstakeRequest{
		Validator: validator, StakeReleaseHeight: 1_000_000, Fee: &manual,
	})
	require.NoError(t, err)
	require.Equal(t, Done, out.State)

	u := out.Txn.(*types.UnstakeValidator)
	assert.Equal(t, api.stake.Bones(), u.StakeAmount)
	assert.Equal(t, uint64(1_000_000), u.StakeReleaseHeight)
	assert.Equal(t, manual, u.Fee)
	verify(t, dev, 0, u, u.OwnerSignature)

	explicit := types.Amount(7)
	out, err = signer.UnstakeValidator(context.Background(), UnstakeRequest{
		Validator: validator, StakeAmount: &explicit, StakeReleaseHeight: 5,
	})
	require.NoError(t, err)
	u = out.Txn.(*types.UnstakeValidator)
	assert.Equal(t, uint64(7), u.StakeAmount)
	want, err := fee.Calculate(u, fee.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, want, u.Fee)
}

func TestBalanceScan(t *testing.T) {
	dev := ledger.NewMockDevice(address.MainNet, 1)
	api := newFakeAPI(42, 0)

	rows, err := NewSigner(dev, api.factory(), Options{Account: 2}).Balance(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for i, row := range rows {
		assert.Equal(t, uint8(i), row.Account)
		assert.True(t, dev.Address(uint8(i)).Equal(row.Address))
		require.NoError(t, row.Err)
		assert.Equal(t, types.Amount(42), row.State.Balance)
	}

	rows, err = NewSigner(dev, api.factory(), Options{Account: 2}).Balance(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, uint8(2), rows[0].Account)

	// display flag is only set for the single-account lookup
	cmds := dev.Commands()
	last := cmds[len(cmds)-1]
	assert.Equal(t, apdu.InsGetPublicKey, last.INS)
	assert.Equal(t, byte(1), last.P1)
}

func TestVerifySignedRejectsTampering(t *testing.T) {
	dev := ledger.NewMockDevice(address.MainNet, 1)
	me := dev.Address(0)
	requested := &types.Payment{Payer: me.Bin(), Payee: dev.Address(1).Bin(), Amount: 5, Fee: 30_000, Nonce: 1}
	msg, err := types.SigningBytes(requested)
	require.NoError(t, err)

	signed := requested.Clone().(*types.Payment)
	signed.Signature = ed25519.Sign(dev.PrivateKey(0), msg)
	require.NoError(t, verifySigned(requested, signed, me))

	other := signed.Clone().(*types.Payment)
	other.Amount = 6
	assert.True(t, errors.Is(verifySigned(requested, other, me), errno.ErrTxnMismatch))

	bad := signed.Clone().(*types.Payment)
	bad.Signature = bytes.Repeat([]byte{0x01}, types.SignatureSize)
	assert.True(t, errors.Is(verifySigned(requested, bad, me), errno.ErrInvalidSignature))
}

func TestFeeCacheServesRepeatLookups(t *testing.T) {
	dev := ledger.NewMockDevice(address.MainNet, 1)
	api := newFakeAPI(10*types.BonesPerUnit, 0)
	apis := WithFeeCache(api.factory(), cache.NewMemoryCache(time.Minute, time.Minute), time.Minute)
	signer := NewSigner(dev, apis, Options{})

	_, err := signer.Pay(context.Background(), PayRequest{Payee: dev.Address(1), Amount: 1})
	require.NoError(t, err)

	// later lookups no longer reach the remote service
	api.mu.Lock()
	api.feeErr = errors.New("vars unavailable")
	api.mu.Unlock()

	out, err := signer.Pay(context.Background(), PayRequest{Payee: dev.Address(1), Amount: 1})
	require.NoError(t, err)
	assert.Equal(t, Done, out.State)
}
