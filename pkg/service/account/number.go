package account

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// NumberGenerator produces candidate account numbers. Uniqueness is enforced
// by the store; callers retry on collision.
type NumberGenerator interface {
	Next(now time.Time) string
}

type randomNumbers struct {
	prefix string
}

// NewNumberGenerator returns a generator of numbers shaped
// <prefix>-<last 4 digits of the unix millis>-<6 random digits>.
func NewNumberGenerator(prefix string) NumberGenerator {
	if prefix == "" {
		prefix = "CM"
	}
	return randomNumbers{prefix: prefix}
}

func (g randomNumbers) Next(now time.Time) string {
	return fmt.Sprintf("%s-%04d-%06d", g.prefix, now.UnixMilli()%10000, rand.IntN(1_000_000))
}

// NumberGeneratorFunc adapts a function to NumberGenerator.
type NumberGeneratorFunc func(now time.Time) string

// Next implements NumberGenerator.
func (f NumberGeneratorFunc) Next(now time.Time) string { return f(now) }
