package transaction

import (
	"time"

	"github.com/MrJamesThe3rd/tripwise/internal/transaction"
)

type transactionResponse struct {
	Type        transaction.Type `json:"type"`
	PolicyID    string           `json:"policy_id"`
	Timestamp   time.Time        `json:"timestamp"`
	Description string           `json:"description"`
}

func toResponse(tx *transaction.Transaction) transactionResponse {
	return transactionResponse{
		Type:        tx.Type,
		PolicyID:    tx.PolicyID,
		Timestamp:   tx.Timestamp,
		Description: tx.Description,
	}
}

func toResponseList(txs []*transaction.Transaction) []transactionResponse {
	resp := make([]transactionResponse, len(txs))
	for i, tx := range txs {
		resp[i] = toResponse(tx)
	}

	return resp
}
