package payment

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrBadTransactionID = errors.New("invalid transaction id format")

// NewMerchantTransactionID builds the correlation id echoed back by the
// gateway: TXN_<orderNumber>_<unix-ms>_<random>. The order number never
// contains underscores, so the id splits back cleanly.
func NewMerchantTransactionID(orderNumber string, now time.Time) string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	return fmt.Sprintf("TXN_%s_%d_%s", orderNumber, now.UnixMilli(), random)
}

// OrderNumberFromTransactionID recovers the originating order from a
// callback's merchant transaction id.
func OrderNumberFromTransactionID(txnID string) (string, error) {
	parts := strings.Split(txnID, "_")
	if len(parts) < 2 || parts[0] != "TXN" || parts[1] == "" {
		return "", ErrBadTransactionID
	}
	return parts[1], nil
}
