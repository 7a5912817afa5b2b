package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// WalletTxKind - тип операции с кошельком
type WalletTxKind string

const (
	WalletTopUp    WalletTxKind = "topup"
	WalletPurchase WalletTxKind = "purchase"
)

// WalletTxStatus - статус операции. Пополнения ждут подтверждения администратора.
type WalletTxStatus string

const (
	WalletTxPending  WalletTxStatus = "Pending"
	WalletTxApproved WalletTxStatus = "Approved"
	WalletTxRejected WalletTxStatus = "Rejected"
)

// WalletTransaction представляет операцию с кошельком.
type WalletTransaction struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"userId"`
	Amount    decimal.Decimal `json:"amount"`
	Kind      WalletTxKind    `json:"kind"`
	Status    WalletTxStatus  `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
}
