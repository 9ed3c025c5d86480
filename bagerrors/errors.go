package bagerrors

import (
	"errors"
	"strings"
)

// Builder (B) Errors
var (
	ErrMalformedTargets = errors.New("B1|MalformedTargets: Target list is empty, has a zero amount, a duplicate recipient or an amount overflow.")
	ErrInvalidWidth     = errors.New("B2|InvalidWidth: Batch width must be at least 2.")
)

// Resolver (U) Errors
var (
	ErrUnknownNode       = errors.New("U1|UnknownNode: Puzzle hash is not part of this commitment tree.")
	ErrTreeInconsistency = errors.New("U2|TreeInconsistency: Parent lookup does not lead back to the genesis coin.")
	ErrLedgerUnavailable = errors.New("U3|LedgerUnavailable: Ledger query failed or timed out; the unwind may be retried.")
	ErrRaceCondition     = errors.New("U4|RaceCondition: Lowest existing ancestor is already spent; somebody else might have unwound the bag.")
)

// Input (I) Errors
var (
	ErrTargetsFormat = errors.New("I1|TargetsFormat: Targets file record is not puzzle_hash,amount.")
	ErrNodeConfig    = errors.New("I2|NodeConfig: Node configuration is missing or unreadable.")
)

var all = []error{
	ErrMalformedTargets,
	ErrInvalidWidth,
	ErrUnknownNode,
	ErrTreeInconsistency,
	ErrLedgerUnavailable,
	ErrRaceCondition,
	ErrTargetsFormat,
	ErrNodeConfig,
}

// Sentinel returns the taxonomy error err wraps, or nil.
func Sentinel(err error) error {
	for _, s := range all {
		if errors.Is(err, s) {
			return s
		}
	}
	return nil
}

// IsTransient reports whether retrying the whole operation may succeed.
func IsTransient(err error) bool {
	return errors.Is(err, ErrLedgerUnavailable)
}

// GetErrorName extracts the name, e.g. "UnknownNode", from a taxonomy error.
func GetErrorName(err error) string {
	if err == nil {
		return "No Error"
	}
	s := Sentinel(err)
	if s == nil {
		return err.Error()
	}
	parts := strings.SplitN(s.Error(), "|", 2)
	return strings.SplitN(parts[1], ":", 2)[0]
}

// GetErrorCode extracts the code, e.g. "U1", from a taxonomy error.
func GetErrorCode(err error) string {
	s := Sentinel(err)
	if s == nil {
		return ""
	}
	return strings.SplitN(s.Error(), "|", 2)[0]
}
