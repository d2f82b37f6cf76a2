// Package locale formats user-facing cooldown messages. Day counts in
// Russian need one of three noun forms depending on the number, so the
// grammar lives behind an interface instead of being baked into the
// registry.
package locale

import "fmt"

// Formatter renders the "try again later" message shown when a request
// lands inside the cooldown window.
type Formatter interface {
	RetryAfterDays(n int) string
}

// Russian applies the standard Russian plural rule for "день":
// 1, 21, 31 and so on take the singular, 2-4 (except 12-14) the paucal
// form, everything else the genitive plural.
type Russian struct{}

func (Russian) RetryAfterDays(n int) string {
	return fmt.Sprintf("Повторная заявка будет доступна через %d %s", n, russianDays(n))
}

func russianDays(n int) string {
	if n < 0 {
		n = -n
	}
	switch {
	case n%100 >= 12 && n%100 <= 14:
		return "дней"
	case n%10 == 1:
		return "день"
	case n%10 >= 2 && n%10 <= 4:
		return "дня"
	default:
		return "дней"
	}
}

// English is the fallback for non-Russian deployments.
type English struct{}

func (English) RetryAfterDays(n int) string {
	if n == 1 {
		return "You can submit another request in 1 day"
	}
	return fmt.Sprintf("You can submit another request in %d days", n)
}

// ForTag picks a formatter by language tag, defaulting to Russian to
// match the original site copy.
func ForTag(tag string) Formatter {
	if tag == "en" {
		return English{}
	}
	return Russian{}
}
