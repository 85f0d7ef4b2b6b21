package backend

import "github.com/shopspring/decimal"

var (
	scaleColors = []string{
		"Gray", "LightGray", "MediumSeaGreen", "ForestGreen", "Gold",
		"GoldenRod", "Orange", "Tomato", "OrangeRed", "Indigo",
	}
	scaleStep = decimal.RequireFromString("0.1")
)

// UtilizationColor maps a utilization in [0,1] to the color of its 0.1
// wide bucket. Values above one use the last color.
func UtilizationColor(u decimal.Decimal) string {
	for i, c := range scaleColors {
		if u.LessThanOrEqual(scaleStep.Mul(decimal.NewFromInt(int64(i + 1)))) {
			return c
		}
	}
	return scaleColors[len(scaleColors)-1]
}

// UtilizationLabel formats with at most two decimals, zero is unlabelled.
func UtilizationLabel(u decimal.Decimal) string {
	if u.IsZero() {
		return ""
	}
	return u.Round(2).String()
}
