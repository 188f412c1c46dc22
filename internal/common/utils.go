package common

import (
	"crypto/rand"
	"encoding/base64"
)

// MakeRandBase64String generates an opaque random string from size bytes of
// crypto/rand output, encoded with URL-safe base64 so the value can travel
// in headers and query strings unescaped. The resulting string length is
// 4*ceil(size/3).
//
// Example:
//
//	s, err := MakeRandBase64String(24)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(s) // e.g., "9f2d4c3a5e6b1a7d..."
//
// It returns an error if the random number generator fails.
func MakeRandBase64String(size int) (string, error) {

	b := make([]byte, size)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}

	return base64.URLEncoding.EncodeToString(b), nil
}
