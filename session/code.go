// session/code.go
package session

import (
	"math/rand"
	"strings"
	"sync"
	"time"
	"unicode"
)

// codeAlphabet leaves out 0/O/1/I so codes survive being read aloud.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const defaultCodeLength = 5

var (
	codeRngMutex sync.Mutex
	codeRng      = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// GenerateCode builds a human-shareable session code: an uppercase
// prefix derived from the game identifier plus a random suffix,
// e.g. "UNO-K7FQ2".
func GenerateCode(gameID string, suffixLen int) string {
	if suffixLen <= 0 {
		suffixLen = defaultCodeLength
	}

	base := sanitizePrefix(gameID)
	suffix := make([]byte, suffixLen)

	codeRngMutex.Lock()
	for i := range suffix {
		suffix[i] = codeAlphabet[codeRng.Intn(len(codeAlphabet))]
	}
	codeRngMutex.Unlock()

	return base + "-" + string(suffix)
}

func sanitizePrefix(gameID string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(gameID) {
		if unicode.IsUpper(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
		if b.Len() >= 8 {
			break
		}
	}
	if b.Len() == 0 {
		return "GAME"
	}
	return b.String()
}

// cleanName normalizes a player-supplied nickname.
func cleanName(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "Player"
	}
	runes := []rune(trimmed)
	if len(runes) > 18 {
		runes = runes[:18]
	}
	return string(runes)
}
