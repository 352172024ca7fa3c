package passcode

import (
	"errors"
	"regexp"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeDirectory struct {
	existing map[string]struct{}
	err      error
}

func (d *fakeDirectory) PasscodeExists(code string) (bool, error) {
	if d.err != nil {
		return false, d.err
	}

	_, ok := d.existing[code]
	return ok, nil
}

func TestGenerate_format(t *testing.T) {
	g := NewGenerator(&fakeDirectory{})

	pattern := regexp.MustCompile(`^[1-9][0-9]{4}$`)
	for i := 0; i < 100; i++ {
		code, err := g.Generate()
		assert.NoError(t, err, "expected no error generating passcode")
		assert.Regexp(t, pattern, code, "expected a 5 digit numeral, got %q", code)

		n, err := strconv.Atoi(code)
		assert.NoError(t, err)
		assert.GreaterOrEqual(t, n, minPasscode)
		assert.LessOrEqual(t, n, maxPasscode)
	}
}

func TestGenerate_retriesOnCollision(t *testing.T) {
	dir := &fakeDirectory{existing: map[string]struct{}{
		"10000": {},
		"10001": {},
	}}

	g := NewGenerator(dir)
	// force the first two samples to collide
	samples := []int{0, 1, 2}
	g.randInt = func(n int) int {
		next := samples[0]
		samples = samples[1:]
		return next
	}

	code, err := g.Generate()
	assert.NoError(t, err, "expected no error after collisions")
	assert.Equal(t, "10002", code, "expected first non-colliding passcode")
}

func TestGenerate_neverReturnsExisting(t *testing.T) {
	dir := &fakeDirectory{existing: make(map[string]struct{})}
	g := NewGenerator(dir)

	for i := 0; i < 50; i++ {
		code, err := g.Generate()
		assert.NoError(t, err)
		assert.NotContains(t, dir.existing, code, "expected generated passcode to be unique")
		dir.existing[code] = struct{}{}
	}
}

func TestGenerate_spaceExhausted(t *testing.T) {
	dir := &fakeDirectory{existing: map[string]struct{}{"10000": {}}}

	g := NewGenerator(dir)
	g.randInt = func(n int) int { return 0 }

	_, err := g.Generate()
	assert.ErrorIs(t, err, ErrSpaceExhausted, "expected exhaustion error when every sample collides")
}

func TestGenerate_directoryError(t *testing.T) {
	dirErr := errors.New("connection refused")
	g := NewGenerator(&fakeDirectory{err: dirErr})

	_, err := g.Generate()
	assert.ErrorIs(t, err, dirErr, "expected directory error to be surfaced")
}
