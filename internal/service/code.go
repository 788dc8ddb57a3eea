package service

import (
	"context"
	"crypto/rand"
	"fmt"

	"watchwhat/internal/repository"
)

// Code alphabet leaves out 0/O and 1/I/L.
const codeChars = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const codeLen = 6

// generateSessionCode creates a 6-char code not used by any existing session.
func generateSessionCode(ctx context.Context, sessions repository.SessionRepo) (string, error) {
	for attempts := 0; attempts < 10; attempts++ {
		b := make([]byte, codeLen)
		if _, err := rand.Read(b); err != nil {
			return "", err
		}

		code := make([]byte, codeLen)
		for i := range code {
			code[i] = codeChars[int(b[i])%len(codeChars)]
		}
		codeStr := string(code)

		existing, err := sessions.GetByCode(ctx, codeStr)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return codeStr, nil
		}
	}

	return "", fmt.Errorf("failed to generate unique session code")
}
