package validator

import (
	"errors"
	"testing"

	"helium-ledger/pkg/address"
	"helium-ledger/pkg/ledger"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
)

type payload struct {
	Payee string `json:"payee" binding:"required,helium_address"`
	Owner string `json:"owner" binding:"helium_address"`
}

func TestHeliumAddressRule(t *testing.T) {
	Init()
	good := ledger.NewMockDevice(address.MainNet, 1).Address(0).String()

	assert.NoError(t, binding.Validator.ValidateStruct(&payload{Payee: good}))
	assert.NoError(t, binding.Validator.ValidateStruct(&payload{Payee: good, Owner: good}))

	last := "x"
	if good[len(good)-1] == 'x' {
		last = "y"
	}
	err := binding.Validator.ValidateStruct(&payload{Payee: good[:len(good)-1] + last, Owner: good})
	assert.Error(t, err)
	assert.Contains(t, GetErrorMsg(err), "Payee 不是有效的 Helium 地址")

	err = binding.Validator.ValidateStruct(&payload{})
	assert.Contains(t, GetErrorMsg(err), "Payee 不能为空")
}

func TestGetErrorMsgFallback(t *testing.T) {
	assert.Equal(t, "请求参数错误", GetErrorMsg(errors.New("eof")))
}
