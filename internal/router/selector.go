package router

// Select picks the model for one request. Pure decision function: given
// well-formed criteria it always returns a valid model id.
//
// The rules apply in strict priority order:
//  1. budget pressure (>80% of the monthly limit used) forces the
//     category's fallback model, overriding complexity and tier;
//  2. a premium scholar/professional asking a complex question is upgraded
//     to the highest-capability model;
//  3. otherwise the category's primary model.
//
// Reordering these rules changes the cost guarantees, so don't.
func Select(table *StrategyTable, c SelectionCriteria) string {
	strat := table.Strategy(c.Category)

	usagePct := 100.0
	if c.Limit > 0 {
		usagePct = float64(c.Used) / float64(c.Limit) * 100
	}

	if usagePct > 80 {
		return strat.Fallback
	}

	if c.Complexity == ComplexityComplex && c.Premium &&
		(c.Category == CategoryScholar || c.Category == CategoryProfessional) {
		return UpgradeModel
	}

	return strat.Primary
}
