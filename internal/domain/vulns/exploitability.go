package vulns

import (
	"fmt"
	"math"
)

const (
	minCVSS = 0.0
	maxCVSS = 10.0

	maxExploitability = 100
)

func assetMultiplier(a AssetType) (float64, error) {
	switch a {
	case AssetAPI, AssetDatabase:
		return 1.5, nil
	case AssetInfrastructure:
		return 1.2, nil
	case AssetFrontend:
		return 1.0, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAssetType, string(a))
}

func patchMultiplier(patchAvailable bool) float64 {
	if patchAvailable {
		return 0.8
	}
	return 1.2
}

// ComputeExploitabilityIndex combines a CVSS score, the sensitivity of the
// affected asset and patch availability into an integer in [0,100].
//
// The raw value (cvss/10 * asset * patch * 100) is rounded half up and
// clamped; scores outside [0,10] are rejected rather than clamped.
func ComputeExploitabilityIndex(cvss float64, asset AssetType, patchAvailable bool) (int, error) {
	if math.IsNaN(cvss) || cvss < minCVSS || cvss > maxCVSS {
		return 0, fmt.Errorf("%w: %v", ErrInvalidScoreRange, cvss)
	}
	am, err := assetMultiplier(asset)
	if err != nil {
		return 0, err
	}
	raw := (cvss / 10) * am * patchMultiplier(patchAvailable) * 100
	idx := int(math.Floor(raw + 0.5))
	if idx > maxExploitability {
		return maxExploitability, nil
	}
	if idx < 0 {
		return 0, nil
	}
	return idx, nil
}
