package shoper

import "encoding/json"

// Auth identifies the shop and the bearer token used for a call.
type Auth struct {
	ShopURL     string
	AccessToken string
}

type PaymentTranslation struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Active      bool   `json:"active"`
}

// Payment is a payment method configured on the shop.
type Payment struct {
	PaymentID    int                           `json:"payment_id,omitempty"`
	Order        int                           `json:"order,omitempty"`
	Active       bool                          `json:"active"`
	Visible      bool                          `json:"visible"`
	Notify       string                        `json:"notify,omitempty"`
	Currencies   []int                         `json:"currencies,omitempty"`
	Translations map[string]PaymentTranslation `json:"translations,omitempty"`
}

type PaymentChannelTranslation struct {
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	AdditionalInfo string `json:"additional_info,omitempty"`
}

// PaymentChannel is a selectable sub-option of a payment method.
type PaymentChannel struct {
	ChannelID            int                                  `json:"channel_id,omitempty"`
	PaymentID            int                                  `json:"payment_id"`
	ApplicationChannelID string                               `json:"application_channel_id"`
	Type                 string                               `json:"type,omitempty"`
	Currencies           []int                                `json:"currencies,omitempty"`
	Translations         map[string]PaymentChannelTranslation `json:"translations,omitempty"`
}

type Currency struct {
	CurrencyID int    `json:"currency_id"`
	Name       string `json:"name"`
	Order      int    `json:"order,omitempty"`
}

type listResponse[T any] struct {
	Count json.Number `json:"count"`
	Pages int         `json:"pages"`
	Page  int         `json:"page"`
	List  []T         `json:"list"`
}
