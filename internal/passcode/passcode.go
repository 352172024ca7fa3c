// Package passcode generates the short numeric codes users share to
// address a room.
package passcode

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"
)

const (
	// Passcodes are five digit numerals.
	minPasscode = 10000
	maxPasscode = 99999

	defaultMaxAttempts = 1000
)

// ErrSpaceExhausted is returned when a unique passcode could not be found
// within the attempt budget.
var ErrSpaceExhausted = errors.New("passcode space exhausted")

// Directory answers whether a passcode is already assigned to a live room.
type Directory interface {
	PasscodeExists(passcode string) (bool, error)
}

type Generator struct {
	dir         Directory
	maxAttempts int
	// randInt is overridable in tests
	randInt func(n int) int
}

func NewGenerator(dir Directory) *Generator {
	return &Generator{
		dir:         dir,
		maxAttempts: defaultMaxAttempts,
		randInt:     rand.Intn,
	}
}

// Generate returns a passcode not currently present in the directory. It
// samples uniformly from the passcode range and re-samples on collision,
// failing with ErrSpaceExhausted after the attempt budget.
func (g *Generator) Generate() (string, error) {
	for i := 0; i < g.maxAttempts; i++ {
		code := strconv.Itoa(minPasscode + g.randInt(maxPasscode-minPasscode+1))

		exists, err := g.dir.PasscodeExists(code)
		if err != nil {
			return "", fmt.Errorf("check passcode: %w", err)
		}

		if !exists {
			return code, nil
		}
	}

	return "", ErrSpaceExhausted
}
