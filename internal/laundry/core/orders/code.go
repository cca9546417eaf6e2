package orders

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// CodeGenerator produces a fresh human-facing order code.
type CodeGenerator func() (string, error)

// UUIDCodeGenerator returns the first n hex digits of a random UUID in upper
// case, e.g. "3F9A1C07" for n = 8.
func UUIDCodeGenerator(n int) CodeGenerator {
	return func() (string, error) {
		id, err := uuid.NewRandom()
		if err != nil {
			return "", fmt.Errorf("orders: generate code: %w", err)
		}
		hex := strings.ReplaceAll(id.String(), "-", "")
		size := n
		if size <= 0 || size > len(hex) {
			size = len(hex)
		}
		return strings.ToUpper(hex[:size]), nil
	}
}
