package cluster

import (
	"strconv"

	"markercluster.opengeo.dev/internal/models"
)

// SummaryCalculator computes a cluster's display summary from its member
// set and the number of available icon styles. Implementations must be
// pure: no side effects and no dependence on engine state.
type SummaryCalculator interface {
	Summarize(markers []*Marker, numStyles int) models.Summary
}

// SummaryCalculatorFunc adapts a plain function to SummaryCalculator.
type SummaryCalculatorFunc func(markers []*Marker, numStyles int) models.Summary

func (f SummaryCalculatorFunc) Summarize(markers []*Marker, numStyles int) models.Summary {
	return f(markers, numStyles)
}

// DefaultCalculator maps member count magnitude to a style tier:
// index = floor(log10(count)) + 1, clamped to numStyles, with the count
// itself as the label. Icon prominence grows with density without needing
// a tier per count.
var DefaultCalculator SummaryCalculator = SummaryCalculatorFunc(countMagnitudeSummary)

func countMagnitudeSummary(markers []*Marker, numStyles int) models.Summary {
	count := len(markers)

	index := 0
	for dv := count; dv != 0; dv /= 10 {
		index++
	}
	if index > numStyles {
		index = numStyles
	}

	return models.Summary{
		Text:  strconv.Itoa(count),
		Index: index,
	}
}
