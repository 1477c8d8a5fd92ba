package domain

// PortfolioSnapshot is the read-only view of holdings used for hysteresis.
// Written by the execution collaborator, never by the decision core.
type PortfolioSnapshot struct {
	Holdings   map[string]float64 // market value per symbol
	TotalValue float64            // cash + holdings
}

// Weight returns the current weight of symbol in the portfolio.
// Returns 0 when the total value is not positive.
func (p PortfolioSnapshot) Weight(symbol string) float64 {
	if p.TotalValue <= 0 {
		return 0
	}
	return p.Holdings[symbol] / p.TotalValue
}
