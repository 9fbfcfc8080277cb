package brackets

// RiskReward is the distance to take profit over the distance to stop
// loss, measured from entry. Zero when the stop sits on the entry.
func RiskReward(entry, stopLoss, takeProfit float64) float64 {
	risk := abs(entry - stopLoss)
	if risk == 0 {
		return 0
	}
	return abs(takeProfit-entry) / risk
}

// Risk is the amount lost if the stop is hit, in quote currency.
func Risk(quantity, entry, stopLoss float64) float64 {
	return abs(quantity) * abs(entry-stopLoss)
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
