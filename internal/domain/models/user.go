package models

import "github.com/shopspring/decimal"

// Role определяет права пользователя в магазине
type Role string

const (
	RoleCustomer Role = "customer"
	RoleReseller Role = "reseller"
	RoleAdmin    Role = "admin"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleCustomer, RoleReseller, RoleAdmin:
		return true
	}
	return false
}

// User представляет пользователя
type User struct {
	ID            int64
	Email         string
	PassHash      []byte
	Role          Role
	WalletBalance decimal.Decimal
	// SavedShipping заполняется, если пользователь попросил запомнить адрес при оформлении заказа
	SavedShipping *ShippingInfo
}
