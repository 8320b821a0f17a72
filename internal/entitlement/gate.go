// Package entitlement decides what a user may do given their PRO status.
// The gate is read-only and side-effect free: it looks at entitlement
// state plus the calendar and answers allow/deny with a denial reason the
// caller can surface in an upsell prompt.
package entitlement

import "time"

// FreeCardLimit is the maximum number of cards a free user may hold.
const FreeCardLimit = 3

// GraceDays is the length of the window at the start of a calendar month
// during which a free user may still view the preceding month.
const GraceDays = 5

// Reason identifies which check denied an operation.
type Reason string

const (
	ReasonNone    Reason = ""
	ReasonHistory Reason = "history"
	ReasonCards   Reason = "cards"
)

// Decision is the outcome of a gate check.
type Decision struct {
	Allowed bool
	Reason  Reason
}

var allowed = Decision{Allowed: true}

// Gate evaluates entitlement checks against the current clock.
type Gate struct {
	now func() time.Time
}

// NewGate returns a gate using the real clock.
func NewGate() *Gate {
	return &Gate{now: time.Now}
}

// NewGateWithClock returns a gate with an injected clock, for tests.
func NewGateWithClock(now func() time.Time) *Gate {
	return &Gate{now: now}
}

// CanAddCard reports whether a user holding currentCount cards may create
// another one. PRO users have no cap.
func (g *Gate) CanAddCard(isPro bool, currentCount int) Decision {
	if isPro || currentCount < FreeCardLimit {
		return allowed
	}
	return Decision{Reason: ReasonCards}
}

// CanAccessMonth reports whether data for the calendar month containing
// target may be viewed.
//
// PRO users may view any month. Free users may always view the current
// month, and may view the immediately preceding month only while the
// number of whole days elapsed since the first of the current month is at
// most GraceDays. The elapsed-day count comes from the current real date,
// not from the month being requested. Every other month — older history
// or any future month — is denied. When the current month is January the
// preceding month is December of the previous year, so both month and
// year are compared.
func (g *Gate) CanAccessMonth(isPro bool, target time.Time) Decision {
	if isPro {
		return allowed
	}

	now := g.now()
	if target.Month() == now.Month() && target.Year() == now.Year() {
		return allowed
	}

	prevMonth := now.Month() - 1
	prevYear := now.Year()
	if now.Month() == time.January {
		prevMonth = time.December
		prevYear = now.Year() - 1
	}

	if target.Month() == prevMonth && target.Year() == prevYear {
		firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		elapsedDays := int(now.Sub(firstOfMonth).Hours() / 24)
		if elapsedDays <= GraceDays {
			return allowed
		}
	}

	return Decision{Reason: ReasonHistory}
}
