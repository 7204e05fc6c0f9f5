package app

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

func newUUID() string {
	return uuid.NewString()
}

// newBookingReference returns a short code guests can quote, e.g. BK1A2B3C4D.
func newBookingReference() string {
	id := uuid.New()
	return "BK" + strings.ToUpper(hex.EncodeToString(id[:4]))
}

// newTxRef builds txn_<random-hex>_<booking-reference>. The random part keeps
// references unique; the suffix keeps them traceable in logs.
func newTxRef(bookingReference string) string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		id := uuid.New()
		copy(b, id[:8])
	}
	return "txn_" + hex.EncodeToString(b) + "_" + bookingReference
}
