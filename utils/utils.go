// Package utils provides utility functions for the application.
package utils

import (
	"math"
)

func ToPtr[T any](v T) *T {
	return &v
}

func IsTrue(b *bool) bool {
	return b != nil && *b
}

// Deref returns the pointed value or the zero value
func Deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// RoundMoney rounds an amount to two decimal places
func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

// RoundDistance rounds kilometres to metre precision
func RoundDistance(km float64) float64 {
	return math.Round(km*1000) / 1000
}
