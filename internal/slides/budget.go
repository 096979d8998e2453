package slides

import (
	"errors"
	"fmt"
)

// Ellipsis marks a point that was cut to fit a budget.
const Ellipsis = "..."

// Budget bounds the size of a deck. It is passed by value into the parser and
// fitter so decks with different budgets can be built concurrently.
type Budget struct {
	MaxSlides          int `json:"max_slides" toml:"max_slides"`
	MaxBulletChars     int `json:"max_bullet_chars" toml:"max_bullet_chars"`
	MaxTotalChars      int `json:"max_total_chars" toml:"max_total_chars"`
	MinMeaningfulChars int `json:"min_meaningful_chars" toml:"min_meaningful_chars"`
}

// DefaultBudget returns the budget used for generated decks.
func DefaultBudget() Budget {
	return Budget{
		MaxSlides:          7,
		MaxBulletChars:     180,
		MaxTotalChars:      1500,
		MinMeaningfulChars: 40,
	}
}

// Normalize replaces unusable values with defaults. A zero Budget becomes
// DefaultBudget.
func (b Budget) Normalize() Budget {
	def := DefaultBudget()
	if b == (Budget{}) {
		return def
	}
	if b.MaxSlides <= 0 {
		b.MaxSlides = def.MaxSlides
	}
	if b.MaxBulletChars <= len(Ellipsis) {
		b.MaxBulletChars = def.MaxBulletChars
	}
	if b.MaxTotalChars <= 0 {
		b.MaxTotalChars = def.MaxTotalChars
	}
	if b.MinMeaningfulChars < 0 {
		b.MinMeaningfulChars = def.MinMeaningfulChars
	}
	return b
}

// Validate reports every unusable field. Callers use it on budgets that come
// from users; internal callers rely on Normalize.
func (b Budget) Validate() error {
	var errs []error
	if b.MaxSlides <= 0 {
		errs = append(errs, fmt.Errorf("max_slides must be positive, got %d", b.MaxSlides))
	}
	if b.MaxBulletChars <= len(Ellipsis) {
		errs = append(errs, fmt.Errorf("max_bullet_chars must exceed %d, got %d", len(Ellipsis), b.MaxBulletChars))
	}
	if b.MaxTotalChars <= 0 {
		errs = append(errs, fmt.Errorf("max_total_chars must be positive, got %d", b.MaxTotalChars))
	}
	if b.MinMeaningfulChars < 0 {
		errs = append(errs, fmt.Errorf("min_meaningful_chars must not be negative, got %d", b.MinMeaningfulChars))
	}
	return errors.Join(errs...)
}

// Merge overlays the positive fields of o onto b.
func (b Budget) Merge(o Budget) Budget {
	if o.MaxSlides > 0 {
		b.MaxSlides = o.MaxSlides
	}
	if o.MaxBulletChars > 0 {
		b.MaxBulletChars = o.MaxBulletChars
	}
	if o.MaxTotalChars > 0 {
		b.MaxTotalChars = o.MaxTotalChars
	}
	if o.MinMeaningfulChars > 0 {
		b.MinMeaningfulChars = o.MinMeaningfulChars
	}
	return b
}
