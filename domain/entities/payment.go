package entities

// PaymentVerification is the oracle's answer for a wallet
type PaymentVerification struct {
	Paid bool
	// AttributedUsername is the username recorded on chain, when the strategy exposes one
	AttributedUsername string
	// TxHash identifies the transfer that satisfied the fee, when known
	TxHash string
}

// PaymentResult is what a payment verification produced for a user
type PaymentResult struct {
	Verified    bool
	AlreadyPaid bool
	Username    string
	Wallet      string
	TxHash      string
	Commissions []*Commission
	Rotator     *RotatorEntry
}
