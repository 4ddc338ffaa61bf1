package models

import "time"

// ShopInstallation is an authenticated shop identified by its platform code.
type ShopInstallation struct {
	ID                 int64               `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Shop               string              `gorm:"column:shop;type:varchar(128);not null;uniqueIndex:unique_shop_app_installations_shop" json:"shop"`
	ShopURL            string              `gorm:"column:shop_url;type:varchar(255);not null;index" json:"shop_url"`
	ApplicationVersion int                 `gorm:"column:application_version;not null;default:0" json:"application_version"`
	AuthCode           string              `gorm:"column:auth_code;type:varchar(128);not null" json:"-"`
	Tokens             []ShopToken         `gorm:"foreignKey:ShopAppInstallationID;constraint:OnDelete:CASCADE" json:"-"`
	PaymentMethods     []ShopPaymentMethod `gorm:"foreignKey:ShopID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt          time.Time           `gorm:"column:created_at" json:"created_at"`
}

func (ShopInstallation) TableName() string { return "shop_app_installations" }

// ShopToken is OAuth credential material owned by one installation. At most
// one token per installation is active.
type ShopToken struct {
	ID                    int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ShopAppInstallationID int64     `gorm:"column:shop_app_installation_id;not null;index:idx_shop_app_tokens_active,priority:1" json:"shop_app_installation_id"`
	AccessToken           string    `gorm:"column:access_token;type:varchar(255);not null" json:"-"`
	RefreshToken          string    `gorm:"column:refresh_token;type:varchar(255);not null;default:''" json:"-"`
	ExpiresAt             time.Time `gorm:"column:expires_at;not null" json:"expires_at"`
	IsActive              bool      `gorm:"column:is_active;not null;default:false;index:idx_shop_app_tokens_active,priority:2" json:"is_active"`
	CreatedAt             time.Time `gorm:"column:created_at" json:"created_at"`
}

func (ShopToken) TableName() string { return "shop_app_tokens" }

// IsExpired reports whether the token expired strictly before now.
func (t *ShopToken) IsExpired(now time.Time) bool {
	return t == nil || now.After(t.ExpiresAt)
}
