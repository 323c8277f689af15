package handler

import (
	"fmt"
	"strconv"

	"helium-ledger/internal/handler/request"
	"helium-ledger/internal/handler/response"
	"helium-ledger/internal/service"
	"helium-ledger/pkg/address"
	"helium-ledger/pkg/errno"
	"helium-ledger/pkg/validator"
	"helium-ledger/pkg/wallet/types"

	"github.com/gin-gonic/gin"
)

// SignerHandler exposes the device flows over HTTP. Every route ends in a device prompt or a
// device read, so requests are effectively serialized by the device lock.
type SignerHandler struct {
	svc service.SignerService
}

func NewSignerHandler(svc service.SignerService) *SignerHandler {
	return &SignerHandler{svc: svc}
}

// Version 查询设备上 Helium 应用版本
// @Summary App version
// @Tags Device
// @Produce json
// @Success 200 {object} response.Response
// @Router /api/v1/version [get]
func (h *SignerHandler) Version(c *gin.Context) {
	v, err := h.svc.Version(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"version": v.String(), "supports_accounts": v.SupportsAccounts()})
}

// Address 查询当前账户地址
// @Summary Account address
// @Tags Device
// @Produce json
// @Param display query bool false "show the address on the device"
// @Success 200 {object} response.Response
// @Router /api/v1/address [get]
func (h *SignerHandler) Address(c *gin.Context) {
	display, _ := strconv.ParseBool(c.DefaultQuery("display", "false"))
	a, err := h.svc.Address(c.Request.Context(), display)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"address": a, "network": a.Network})
}

type balanceRow struct {
	service.AccountBalance
	Error string `json:"error,omitempty"`
}

// Balance 查询余额
// @Summary Account balances
// @Tags Wallet
// @Produce json
// @Param scan query bool false "list every account up to the configured one"
// @Success 200 {object} response.Response
// @Router /api/v1/balance [get]
func (h *SignerHandler) Balance(c *gin.Context) {
	scan, _ := strconv.ParseBool(c.DefaultQuery("scan", "false"))
	rows, err := h.svc.Balance(c.Request.Context(), scan)
	if err != nil {
		response.Error(c, err)
		return
	}
	out := make([]balanceRow, 0, len(rows))
	for _, r := range rows {
		row := balanceRow{AccountBalance: r}
		if r.Err != nil {
			_, row.Error = errno.Decode(r.Err)
		}
		out = append(out, row)
	}
	response.Success(c, out)
}

// Pay 发起支付
// @Summary Sign and submit a payment
// @Tags Wallet
// @Accept json
// @Produce json
// @Param request body request.PayRequest true "Payment"
// @Success 200 {object} response.Response
// @Router /api/v1/pay [post]
func (h *SignerHandler) Pay(c *gin.Context) {
	var req request.PayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	payee, err := address.Parse(req.Payee)
	if err != nil {
		response.Error(c, err)
		return
	}
	amount, err := types.ParseAmount(req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.outcome(c)(h.svc.Pay(c.Request.Context(), service.PayRequest{Payee: payee, Amount: amount}))
}

// Stake 质押验证人
// @Summary Stake a validator
// @Tags Validator
// @Accept json
// @Produce json
// @Param request body request.StakeRequest true "Stake"
// @Success 200 {object} response.Response
// @Router /api/v1/validator/stake [post]
func (h *SignerHandler) Stake(c *gin.Context) {
	var req request.StakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	addr, err := address.Parse(req.Address)
	if err != nil {
		response.Error(c, err)
		return
	}
	stake, err := types.ParseAmount(req.Stake)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.outcome(c)(h.svc.StakeValidator(c.Request.Context(), service.StakeRequest{Validator: addr, Stake: stake}))
}

// Unstake 解除质押
// @Summary Unstake a validator
// @Tags Validator
// @Accept json
// @Produce json
// @Param request body request.UnstakeRequest true "Unstake"
// @Success 200 {object} response.Response
// @Router /api/v1/validator/unstake [post]
func (h *SignerHandler) Unstake(c *gin.Context) {
	var req request.UnstakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	addr, err := address.Parse(req.Address)
	if err != nil {
		response.Error(c, err)
		return
	}
	stake, err := optionalAmount(req.StakeAmount)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.outcome(c)(h.svc.UnstakeValidator(c.Request.Context(), service.UnstakeRequest{
		Validator:          addr,
		StakeAmount:        stake,
		StakeReleaseHeight: req.StakeReleaseHeight,
		Fee:                req.Fee,
	}))
}

// CreateTransfer 发起质押转移
// @Summary Create a validator stake transfer
// @Description Returns an envelope for the counter-party unless this account holds both roles
// @Tags Validator
// @Accept json
// @Produce json
// @Param request body request.TransferRequest true "Transfer"
// @Success 200 {object} response.Response
// @Router /api/v1/validator/transfer [post]
func (h *SignerHandler) CreateTransfer(c *gin.Context) {
	var req request.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	var (
		tr  service.TransferRequest
		err error
	)
	if tr.OldAddress, err = address.Parse(req.OldAddress); err != nil {
		response.Error(c, err)
		return
	}
	if tr.NewAddress, err = address.Parse(req.NewAddress); err != nil {
		response.Error(c, err)
		return
	}
	if tr.OldOwner, err = optionalAddress(req.OldOwner); err != nil {
		response.Error(c, err)
		return
	}
	if tr.NewOwner, err = optionalAddress(req.NewOwner); err != nil {
		response.Error(c, err)
		return
	}
	if req.Payment != "" {
		if tr.Payment, err = types.ParseAmount(req.Payment); err != nil {
			response.Error(c, err)
			return
		}
	}
	if tr.StakeAmount, err = optionalAmount(req.StakeAmount); err != nil {
		response.Error(c, err)
		return
	}
	h.outcome(c)(h.svc.CreateTransfer(c.Request.Context(), tr))
}

// AcceptTransfer 对方补签
// @Summary Accept a validator stake transfer envelope
// @Tags Validator
// @Accept json
// @Produce json
// @Param request body request.AcceptTransferRequest true "Envelope"
// @Success 200 {object} response.Response
// @Router /api/v1/validator/transfer/accept [post]
func (h *SignerHandler) AcceptTransfer(c *gin.Context) {
	var req request.AcceptTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	h.outcome(c)(h.svc.AcceptTransfer(c.Request.Context(), req.Envelope))
}

// outcome writes a flow result. Denial and insufficient balance are successful responses
// whose state says what happened.
func (h *SignerHandler) outcome(c *gin.Context) func(*service.Outcome, error) {
	return func(out *service.Outcome, err error) {
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, out)
	}
}

func optionalAddress(s string) (*address.Address, error) {
	if s == "" {
		return nil, nil
	}
	a, err := address.Parse(s)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func optionalAmount(s string) (*types.Amount, error) {
	if s == "" {
		return nil, nil
	}
	a, err := types.ParseAmount(s)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func bindError(c *gin.Context, err error) {
	response.Error(c, fmt.Errorf("%w: %s", errno.ErrBind, validator.GetErrorMsg(err)))
}
