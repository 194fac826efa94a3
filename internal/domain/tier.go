// Package domain contains core business types and interfaces.
//
// This file defines the subscription tier enumeration. Tiers are ordered:
// every "does this tier qualify" check is a rank comparison, never a string
// comparison.
package domain

import "strings"

// Tier represents a subscription plan level.
//
// The zero value is TierFree, which doubles as the fallback for unrecognized
// plan strings coming from the billing layer.
type Tier int

const (
	TierFree Tier = iota
	TierStarter
	TierPro
	TierEnterprise
)

// AllTiers lists every tier in ascending rank order.
var AllTiers = []Tier{TierFree, TierStarter, TierPro, TierEnterprise}

// tierNames maps tiers to their canonical plan names.
var tierNames = map[Tier]string{
	TierFree:       "FREE",
	TierStarter:    "STARTER",
	TierPro:        "PRO",
	TierEnterprise: "ENTERPRISE",
}

// String returns the canonical plan name for the tier.
func (t Tier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return tierNames[TierFree]
}

// Meets reports whether the tier is at or above the given minimum tier.
func (t Tier) Meets(min Tier) bool {
	return t >= min
}

// ParseTier normalizes a free-form plan string into a Tier.
//
// Plan names arrive from the billing layer in arbitrary case. Unknown values
// degrade to TierFree rather than erroring, so a mislabeled subscription can
// never grant more access than the free plan.
func ParseTier(s string) Tier {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "FREE":
		return TierFree
	case "STARTER":
		return TierStarter
	case "PRO":
		return TierPro
	case "ENTERPRISE":
		return TierEnterprise
	default:
		return TierFree
	}
}
