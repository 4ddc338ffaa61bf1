package lifecycle

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"

	"github.com/fatflowers/extpay/pkg/apperr"
)

const hashField = "hash"

var ErrInvalidHash = apperr.Unauthorized("invalid hash")

// SignValues computes the App Store hash: HMAC-SHA512 over the key=value
// pairs of every field except hash, sorted by key and joined with "&".
func SignValues(values url.Values, secret string) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		if k == hashField {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+values.Get(k))
	}
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(strings.Join(parts, "&")))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyHash checks the hash field of an App Store request.
func VerifyHash(values url.Values, secret string) error {
	provided := strings.ToLower(strings.TrimSpace(values.Get(hashField)))
	if provided == "" || secret == "" {
		return ErrInvalidHash
	}
	if !hmac.Equal([]byte(SignValues(values, secret)), []byte(provided)) {
		return ErrInvalidHash
	}
	return nil
}
