package identity

import (
	"crypto/rand"
	"math/big"
)

const (
	profileIDPrefix   = "BGMI-"
	profileIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	profileIDLength   = 5
)

// NewProfileID draws a public profile identifier that is not present in
// existing. The whole suffix is redrawn on collision; the loop has no upper
// bound and terminates almost surely.
func NewProfileID(existing map[string]struct{}) string {
	for {
		id := profileIDPrefix + randomSuffix()
		if _, taken := existing[id]; !taken {
			return id
		}
	}
}

func randomSuffix() string {
	b := make([]byte, profileIDLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(profileIDAlphabet))))
		if err != nil {
			panic(err)
		}
		b[i] = profileIDAlphabet[n.Int64()]
	}
	return string(b)
}
