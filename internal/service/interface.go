package service

import (
	"context"
	"time"

	"helium-ledger/pkg/address"
	"helium-ledger/pkg/apdu"
	"helium-ledger/pkg/cache"
	"helium-ledger/pkg/fee"
	"helium-ledger/pkg/heliumapi"
	"helium-ledger/pkg/wallet/types"
)

// SignerService drives every device-signed operation.
type SignerService interface {
	// Version 读取设备上 Helium 应用的版本
	Version(ctx context.Context) (apdu.Version, error)
	// Address 读取当前账户地址, display 为 true 时设备屏幕同时显示地址
	Address(ctx context.Context, display bool) (address.Address, error)
	// Balance 查询当前账户 (scan 为 true 时查询 0..当前账户) 的余额
	Balance(ctx context.Context, scan bool) ([]AccountBalance, error)

	Pay(ctx context.Context, req PayRequest) (*Outcome, error)
	StakeValidator(ctx context.Context, req StakeRequest) (*Outcome, error)
	UnstakeValidator(ctx context.Context, req UnstakeRequest) (*Outcome, error)

	// CreateTransfer 发起验证人质押转移; 双方不同时返回待对方签名的信封
	CreateTransfer(ctx context.Context, req TransferRequest) (*Outcome, error)
	// AcceptTransfer 对方用自己的设备补签并提交
	AcceptTransfer(ctx context.Context, envelope string) (*Outcome, error)
}

// API is the remote ledger service used by one flow. Network selection happens before a
// flow starts, from the signer's address.
type API interface {
	GetAccount(ctx context.Context, addr address.Address) (*heliumapi.Account, error)
	GetValidator(ctx context.Context, addr address.Address) (*heliumapi.Validator, error)
	GetFeeConfig(ctx context.Context) (fee.Config, error)
	Submit(ctx context.Context, txn types.Txn) (*heliumapi.PendingTxn, error)
}

// APIFactory returns the API serving a network.
type APIFactory func(network address.Network) API

// HTTPAPIs builds an APIFactory over the HTTP client, one client per network.
func HTTPAPIs(urls heliumapi.URLs, timeout time.Duration) APIFactory {
	mainnet := heliumapi.NewClient(urls.ForNetwork(address.MainNet), timeout)
	testnet := heliumapi.NewClient(urls.ForNetwork(address.TestNet), timeout)
	return func(network address.Network) API {
		if network == address.TestNet {
			return testnet
		}
		return mainnet
	}
}

// WithFeeCache keeps each network's fee vars in c for ttl. Only the fee schedule is cached;
// account state and submissions always hit the API.
func WithFeeCache(apis APIFactory, c cache.Cache, ttl time.Duration) APIFactory {
	return func(network address.Network) API {
		return &cachedFees{API: apis(network), cache: c, ttl: ttl, key: "fee_config:" + network.String()}
	}
}

type cachedFees struct {
	API
	cache cache.Cache
	ttl   time.Duration
	key   string
}

func (c *cachedFees) GetFeeConfig(ctx context.Context) (fee.Config, error) {
	var cfg fee.Config
	if err := c.cache.Get(ctx, c.key, &cfg); err == nil {
		return cfg, nil
	}
	cfg, err := c.API.GetFeeConfig(ctx)
	if err != nil {
		return cfg, err
	}
	_ = c.cache.Set(ctx, c.key, cfg, c.ttl)
	return cfg, nil
}
