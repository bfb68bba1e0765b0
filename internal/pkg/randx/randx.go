/*
Package randx provides identifiers for chat sessions and generated guest nicknames.

Nicknames use cryptographically secure Base62 characters; session ids are UUID v4.
*/
package randx

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const (
	// Base62Chars defines the character set used for Base62 encoding (0-9, A-Z, a-z).
	Base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// Base62Len is the total number of characters in the Base62 character set (62).
	Base62Len = int64(len(Base62Chars))

	// NicknamePrefix is the prefix of every generated guest nickname.
	NicknamePrefix = "User_"

	// NicknameRandomLength is the number of Base62 characters after NicknamePrefix.
	NicknameRandomLength = 6
)

// SessionID returns a UUID v4 string identifying one client session in logs.
func SessionID() string {
	return uuid.New().String()
}

// Nickname generates a random guest nickname such as "User_a8Kz2Q".
func Nickname() (string, error) {
	result := make([]byte, NicknameRandomLength)

	for i := 0; i < NicknameRandomLength; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(Base62Len))
		if err != nil {
			return "", fmt.Errorf("failed to generate random number for nickname: %v", err)
		}
		result[i] = Base62Chars[num.Int64()]
	}

	return NicknamePrefix + string(result), nil
}

// IsGeneratedNickname reports whether name has the shape produced by Nickname.
func IsGeneratedNickname(name string) bool {
	if !strings.HasPrefix(name, NicknamePrefix) {
		return false
	}

	raw := name[len(NicknamePrefix):]
	if len(raw) != NicknameRandomLength {
		return false
	}

	for _, char := range raw {
		if !strings.ContainsRune(Base62Chars, char) {
			return false
		}
	}

	return true
}
