package interfaces

import (
	"context"

	"github.com/depotd/depotd/internal/models"
)

// QuoteClient is the external market-data capability. Failures surface as
// QuoteUnavailableError; symbol-variant retries are the client's concern,
// not the caller's.
type QuoteClient interface {
	FetchQuote(ctx context.Context, symbol string) (*models.Quote, error)
}
