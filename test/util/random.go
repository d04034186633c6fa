package testutil

import (
	"fmt"
	"math"
	"math/rand"
)

// RandomSwitch returns a function that picks an index with the given relative
// weights, ex. RandomSwitch(1, 4) picks `0` 20% of the time.
func RandomSwitch(weights ...int) func(rndm *rand.Rand) int {
	if len(weights) == 0 {
		panic("a random switch must have at least 1 probability")
	}

	var sum int
	for _, p := range weights {
		if p <= 0 {
			panic(fmt.Sprintf("invalid weight %d", p))
		}
		sum += p
	}

	return func(rndm *rand.Rand) int {
		value := rndm.Intn(sum)
		threshold := 0
		for i, w := range weights {
			threshold += w
			if value < threshold {
				return i
			}
		}
		panic(fmt.Sprintf("random value generated was out of bounds: %d", value))
	}
}

// RandomKey generates a random lowercase identifier.
func RandomKey(rndm *rand.Rand, length int) string {
	str := make([]rune, length)
	for i := range length {
		str[i] = 'a' + rune(rndm.Intn(26))
	}
	return string(str)
}

// RandomCount draws an audience sized count, log-uniform between 1 and max so
// that small and huge accounts are equally likely.
func RandomCount(rndm *rand.Rand, max int64) int64 {
	if max <= 1 {
		return max
	}
	exp := rndm.Float64() * math.Log(float64(max))
	return int64(math.Exp(exp))
}

// RandomPick returns a random element of items.
func RandomPick[T any](rndm *rand.Rand, items []T) T {
	return items[rndm.Intn(len(items))]
}
