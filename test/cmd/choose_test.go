package main

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChoose(t *testing.T) {
	r := rand.New(rand.NewSource(1))

	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, "", choose[string](r, nil))
	})

	t.Run("zero weights", func(t *testing.T) {
		assert.Equal(t, 0, choose(r, []weighted[int]{{Value: 5}}))
	})

	t.Run("single option", func(t *testing.T) {
		for i := 0; i < 10; i++ {
			assert.Equal(t, "a", choose(r, []weighted[string]{{"a", 3}, {"b", 0}}))
		}
	})

	t.Run("follows weights", func(t *testing.T) {
		counts := make(map[string]int)
		opts := []weighted[string]{{"low", 1}, {"high", 9}}
		for i := 0; i < 1000; i++ {
			counts[choose(r, opts)]++
		}
		assert.Greater(t, counts["high"], counts["low"]*3)
	})

	t.Run("repeatable", func(t *testing.T) {
		opts := []weighted[int]{{1, 1}, {2, 1}, {3, 1}, {4, 1}}
		a, b := rand.New(rand.NewSource(7)), rand.New(rand.NewSource(7))
		for i := 0; i < 20; i++ {
			assert.Equal(t, choose(a, opts), choose(b, opts))
		}
	})
}
