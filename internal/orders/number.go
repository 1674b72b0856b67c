package orders

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

const (
	orderNumberPrefix   = "NCH"
	orderNumberAttempts = 10
)

type numberChecker interface {
	OrderNumberExists(ctx context.Context, number string) (bool, error)
}

// NumberGenerator issues NCH-YYYYMMDD-XXXXX order numbers, redrawing the
// random part until the number is unused.
type NumberGenerator struct {
	intn func(n int) int
}

// NewNumberGenerator returns a generator; a nil intn uses math/rand/v2.
func NewNumberGenerator(intn func(n int) int) *NumberGenerator {
	if intn == nil {
		intn = rand.IntN
	}
	return &NumberGenerator{intn: intn}
}

func (g *NumberGenerator) Next(ctx context.Context, repo numberChecker, now time.Time) (string, error) {
	date := now.UTC().Format("20060102")
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		number := fmt.Sprintf("%s-%s-%05d", orderNumberPrefix, date, g.intn(100000))
		exists, err := repo.OrderNumberExists(ctx, number)
		if err != nil {
			return "", err
		}
		if !exists {
			return number, nil
		}
	}
	return "", fmt.Errorf("no free order number after %d attempts", orderNumberAttempts)
}
