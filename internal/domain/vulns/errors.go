package vulns

import "errors"

var (
	// ErrInvalidScoreRange is returned for a CVSS score outside [0,10].
	ErrInvalidScoreRange = errors.New("cvss score out of range [0,10]")
	// ErrUnknownAssetType is returned for an asset type outside the closed set.
	ErrUnknownAssetType = errors.New("unknown asset type")
	// ErrUnknownSeverity is returned for a severity or risk level outside the closed set.
	ErrUnknownSeverity = errors.New("unknown severity level")
	// ErrUnknownStatus is returned for a status outside the closed set.
	ErrUnknownStatus = errors.New("unknown vulnerability status")
	// ErrUnknownThreatLevel is returned for a threat feed level outside the closed set.
	ErrUnknownThreatLevel = errors.New("unknown threat level")
	// ErrInvalidBurndown is returned for a malformed burndown point.
	ErrInvalidBurndown = errors.New("invalid burndown point")
	// ErrNotFound is returned by providers when a record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrCorruptData marks stored data a provider could not turn into a valid
	// record. It is a server-side fault, not a validation error.
	ErrCorruptData = errors.New("corrupt stored data")
)

// IsValidation reports whether err comes from rejecting malformed input.
// Errors marked with ErrCorruptData are never validation errors even when
// they wrap one.
func IsValidation(err error) bool {
	if errors.Is(err, ErrCorruptData) {
		return false
	}
	return errors.Is(err, ErrInvalidScoreRange) ||
		errors.Is(err, ErrUnknownAssetType) ||
		errors.Is(err, ErrUnknownSeverity) ||
		errors.Is(err, ErrUnknownStatus) ||
		errors.Is(err, ErrUnknownThreatLevel) ||
		errors.Is(err, ErrInvalidBurndown)
}
