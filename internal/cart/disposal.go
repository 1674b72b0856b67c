package cart

import (
	"time"

	"github.com/angelmondragon/nexus-cards-backend/pkg/db/models"
)

// Disposal names who retires the stock claim of the lines being removed.
// The zero value is invalid so callers always choose.
type Disposal int

const (
	// DisposalRelease returns every line's claim to the ledger before deleting it.
	DisposalRelease Disposal = iota + 1
	// DisposalAlreadyRetired deletes lines whose claim was already consumed or released.
	DisposalAlreadyRetired
)

func (d Disposal) String() string {
	switch d {
	case DisposalRelease:
		return "release"
	case DisposalAlreadyRetired:
		return "already_retired"
	default:
		return "invalid"
	}
}

func (d Disposal) valid() bool {
	return d == DisposalRelease || d == DisposalAlreadyRetired
}

// ReservationState is the lifecycle position of a reservation record.
// Records only exist while ACTIVE or EXPIRED; the terminal states are reached on deletion.
type ReservationState string

const (
	ReservationActive   ReservationState = "ACTIVE"
	ReservationExpired  ReservationState = "EXPIRED"
	ReservationReleased ReservationState = "RELEASED"
	ReservationConsumed ReservationState = "CONSUMED"
)

// StateOf derives the state of a live record from its window.
func StateOf(item models.CartItem, now time.Time) ReservationState {
	if item.IsReservationExpired(now) {
		return ReservationExpired
	}
	return ReservationActive
}
