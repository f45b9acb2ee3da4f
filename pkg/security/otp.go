package security

import (
	"crypto/rand"
	"fmt"
)

var otpDigits = []rune("0123456789")

// GenerateOTPCode produces a random numeric code of the requested length,
// used for email verification and password reset flows.
func GenerateOTPCode(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("length must be positive")
	}

	result := make([]rune, length)
	for i := 0; i < length; i++ {
		idx, err := randInt(len(otpDigits))
		if err != nil {
			return "", err
		}
		result[i] = otpDigits[idx]
	}
	return string(result), nil
}

func randInt(max int) (int, error) {
	if max <= 0 {
		return 0, fmt.Errorf("invalid max %d", max)
	}
	var buff = make([]byte, 1)
	if _, err := rand.Read(buff); err != nil {
		return 0, err
	}
	return int(buff[0]) % max, nil
}
