package handlers

import (
	"github.com/fatflowers/extpay/internal/app/service/transaction"
	"github.com/fatflowers/extpay/internal/platform/shoper"
)

// RespOK is a success envelope for endpoints returning no specific data.
type RespOK struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

type RespHealth struct {
	Success bool              `json:"success"`
	Data    map[string]string `json:"data"`
}

type RespCreated struct {
	Success bool      `json:"success"`
	Data    CreatedID `json:"data"`
}

type RespPaymentMethods struct {
	Success bool                `json:"success"`
	Data    []PaymentMethodItem `json:"data"`
}

type RespPaymentChannels struct {
	Success bool                    `json:"success"`
	Data    []shoper.PaymentChannel `json:"data"`
}

type RespCurrencies struct {
	Success bool              `json:"success"`
	Data    []shoper.Currency `json:"data"`
}

// RespScanTransactions wraps ScanTransactionsResponse in the standard envelope.
type RespScanTransactions struct {
	Success bool                                 `json:"success"`
	Data    transaction.ScanTransactionsResponse `json:"data"`
}
