package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// Ambiguous characters (I, O, 1, 0) are left out so references can be read over the phone.
const refCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func randomString(charset string, n int) (string, error) {
	b := make([]byte, n)
	limit := big.NewInt(int64(len(charset)))
	for i := range b {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		b[i] = charset[idx.Int64()]
	}
	return string(b), nil
}

// generateOrderNumber returns ORD-YYYYMMDDhhmmss-XXXX.
func generateOrderNumber(now time.Time) (string, error) {
	suffix, err := randomString(refCharset, 4)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ORD-%s-%s", now.UTC().Format("20060102150405"), suffix), nil
}

func generateResetCode() (string, error) {
	return randomString("0123456789", 6)
}
