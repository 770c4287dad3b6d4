package dto

import "github.com/shopspring/decimal"

// CommissionDTO is a commission credited by a payment
type CommissionDTO struct {
	Earner string          `json:"earner"`
	Level  int             `json:"level"`
	Amount decimal.Decimal `json:"amount"`
}

// PaymentOutcomeDTO is the result of verifying and applying a payment
type PaymentOutcomeDTO struct {
	Verified         bool            `json:"verified"`
	AlreadyPaid      bool            `json:"alreadyPaid"`
	Username         string          `json:"username"`
	Wallet           string          `json:"wallet"`
	TxHash           string          `json:"txHash,omitempty"`
	Commissions      []CommissionDTO `json:"commissions"`
	RotatorExpiresAt *int64          `json:"rotatorExpiresAt,omitempty"`
}

// WalletCheckDTO is the oracle-only answer for a wallet
type WalletCheckDTO struct {
	Wallet   string `json:"wallet"`
	HasPaid  bool   `json:"hasPaid"`
	TxHash   string `json:"txHash,omitempty"`
	Treasury string `json:"treasury,omitempty"`
	Required string `json:"required"`
}
