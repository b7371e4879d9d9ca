package report

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"math/rand/v2"
	"time"
)

// NewID returns a 32-character hex scan report identifier derived from the
// current time, the scan target and a random component.
func NewID(target string) string {
	return newID(target, time.Now(), 1000+rand.IntN(9000))
}

func newID(target string, now time.Time, salt int) string {
	input := fmt.Sprintf("%s_%s_%d", now.Format("2006-01-02T15:04:05.000000"), target, salt)
	sum := md5.Sum([]byte(input))
	return hex.EncodeToString(sum[:])
}
