package utils

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// GenerateID generates a random ID for entities
func GenerateID() string {
	return uuid.NewString()
}

// GenerateReceiptNumber builds a human-readable receipt number from the
// creation time and a random suffix, e.g. RCP-20261017143005-K7Q2MZ.
func GenerateReceiptNumber(now time.Time) string {
	return ReceiptPrefix + "-" + now.UTC().Format("20060102150405") + "-" +
		generateRandomString(ReceiptCharset, ReceiptSuffix)
}

// generateRandomString generates a random string with given charset and length
func generateRandomString(charset string, length int) string {
	result := make([]byte, length)
	for i := range result {
		result[i] = charset[rand.Intn(len(charset))]
	}
	return string(result)
}
