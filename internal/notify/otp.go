// Package notify generates one-time passwords and delivers SMS messages.
package notify

import (
	"crypto/rand"
	"math/big"
)

const (
	otpLength   = 6
	otpAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

type OTPGenerator interface {
	Generate() (string, error)
}

type RandomOTP struct{}

func (RandomOTP) Generate() (string, error) {
	buf := make([]byte, otpLength)
	max := big.NewInt(int64(len(otpAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = otpAlphabet[n.Int64()]
	}
	return string(buf), nil
}

// FixedOTP always returns Code.
type FixedOTP struct{ Code string }

func (f FixedOTP) Generate() (string, error) { return f.Code, nil }
