package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// GenerateCaseNumber builds a human-readable case reference like
// EMC-20260831-4F2A. The random suffix keeps concurrent creations distinct;
// the unique index on case_number is the hard guarantee.
func GenerateCaseNumber() string {
	suffix := make([]byte, 2)
	rand.Read(suffix)
	return fmt.Sprintf("EMC-%s-%s", time.Now().Format("20060102"), strings.ToUpper(hex.EncodeToString(suffix)))
}
