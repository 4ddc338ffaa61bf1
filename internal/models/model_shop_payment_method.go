package models

import "time"

// PaymentMethodState is the lifecycle state of a registration.
type PaymentMethodState string

const (
	PaymentMethodStateActive  PaymentMethodState = "active"
	PaymentMethodStateRemoved PaymentMethodState = "removed"
)

// ShopPaymentMethod binds a remote payment method id to a shop. At most one
// active (RemovedAt == nil) row exists per (shop, payment method id); the
// registry enforces this with check-then-reactivate-or-insert.
type ShopPaymentMethod struct {
	ID              string        `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	ShopID          int64         `gorm:"column:shop_id;not null;index:idx_shop_payment_methods_shop_method,priority:1" json:"shop_id"`
	PaymentMethodID int           `gorm:"column:payment_method_id;not null;index:idx_shop_payment_methods_shop_method,priority:2" json:"payment_method_id"`
	Transactions    []Transaction `gorm:"foreignKey:PaymentMethodID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt       time.Time     `gorm:"column:created_at" json:"created_at"`
	RemovedAt       *time.Time    `gorm:"column:removed_at;default:null" json:"removed_at"`
}

func (ShopPaymentMethod) TableName() string { return "shop_payment_methods" }

func (m *ShopPaymentMethod) State() PaymentMethodState {
	if m.RemovedAt != nil {
		return PaymentMethodStateRemoved
	}
	return PaymentMethodStateActive
}

func (m *ShopPaymentMethod) IsActive() bool {
	return m != nil && m.State() == PaymentMethodStateActive
}
