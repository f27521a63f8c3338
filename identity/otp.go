package identity

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"time"
)

// OTPValidity is the window during which an issued code verifies.
const OTPValidity = 5 * time.Minute

// OTPRecord is the single outstanding one-time code for an email. Email is
// the primary key, so at most one live record exists per address.
type OTPRecord struct {
	Email     string    `gorm:"primaryKey" json:"email"`
	Code      string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (OTPRecord) TableName() string { return "otp_records" }

// NewOTPRecord draws a fresh 6-digit code for email, valid for OTPValidity
// from now.
func NewOTPRecord(email string, now time.Time) *OTPRecord {
	return &OTPRecord{
		Email:     NormalizeEmail(email),
		Code:      newOTPCode(),
		ExpiresAt: now.Add(OTPValidity),
	}
}

// newOTPCode returns a uniform 6-digit numeric code in [100000, 999999].
func newOTPCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		panic(err)
	}
	return strconv.FormatInt(n.Int64()+100000, 10)
}
