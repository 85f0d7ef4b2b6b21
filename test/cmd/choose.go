package main

import (
	"math/rand"
)

type weighted[T any] struct {
	Value  T
	Weight int
}

// choose picks an option with probability proportional to its weight.
// Options are walked in order so a seeded source gives repeatable runs.
func choose[T any](r *rand.Rand, options []weighted[T]) T {
	var sum int
	for _, o := range options {
		sum += o.Weight
	}
	if sum <= 0 {
		return *new(T)
	}
	i := r.Intn(sum)
	var s int
	for _, o := range options {
		s += o.Weight
		if s > i {
			return o.Value
		}
	}
	panic("shouldn't get here")
}
