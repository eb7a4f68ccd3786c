package documents

import "math"

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// lineTotals derives the monetary breakdown of one line. Discount is a
// percentage of the gross amount, tax applies to the discounted net.
func lineTotals(qty, rate, discountPercent, taxPercent float64) (discountAmount, taxAmount, lineTotal float64) {
	gross := qty * rate
	discountAmount = round2(gross * (discountPercent / 100))
	net := gross - discountAmount
	taxAmount = round2(net * (taxPercent / 100))
	lineTotal = round2(net + taxAmount)
	return
}
