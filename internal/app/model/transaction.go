package model

// Transaction is a payment as reported by the gateway. Amount is in kobo.
type Transaction struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Amount    int64  `json:"amount"`
	Email     string `json:"email"`
	UserID    string `json:"userId,omitempty"`
}

const TransactionSuccess = "success"
