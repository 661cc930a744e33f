package core

import "context"

// Aladin only publishes daily aggregates, which cannot be broken down per
// book. The file is recognized so the user gets a specific explanation
// instead of a detection failure.
type aladinAdapter struct{}

func (aladinAdapter) process(context.Context, string) ([]Record, error) {
	return nil, ErrUnsupportedPartnerFormat
}
