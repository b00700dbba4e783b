package funnel

// KPIs are the derived financial indicators for a period. Every ratio is
// guarded against a zero denominator; results are always finite.
type KPIs struct {
	CPA             float64
	Revenue         float64
	ROIPct          float64
	CostPerProtocol float64
}

// ComputeKPIs combines aggregated funnel counts with the allocated cost.
// contracts and protocols are period sums, totalCost the pro-rated spend,
// ticket the configured average revenue per closed contract.
// A period with zero contracts reports neutral KPIs (cpa, revenue and roi
// all 0) rather than a -100% ROI; with nothing sold the investment verdict
// is "no signal", not "total loss".
func ComputeKPIs(contracts, totalCost, protocols, ticket float64) KPIs {
	var k KPIs
	if contracts > 0 {
		k.Revenue = contracts * ticket
		k.CPA = totalCost / contracts
		if totalCost > 0 {
			k.ROIPct = (k.Revenue - totalCost) / totalCost * 100
		}
	}
	if protocols > 0 {
		k.CostPerProtocol = totalCost / protocols
	}
	return k
}
