package stats

// TestSuite bundles the fixed test sequence run against one dataset: the
// per-metric normality checks, both rank correlations between fitness and
// MCC, the multinomial goodness-of-fit diagnostic, and the class-comparison
// tests. Pointers stay nil for stages that could not run; consumers render
// missing entries inline rather than dropping rows.
type TestSuite struct {
	FitnessNormality *NormalityResult   `json:"fitness_normality,omitempty"`
	MCCNormality     *NormalityResult   `json:"mcc_normality,omitempty"`
	Spearman         *CorrelationResult `json:"spearman,omitempty"`
	Kendall          *CorrelationResult `json:"kendall,omitempty"`
	PseudoR2         *PseudoR2Result    `json:"pseudo_r2,omitempty"`
	Omnibus          *OmnibusResult     `json:"omnibus,omitempty"`
	Pairwise         *PairwiseMatrix    `json:"pairwise,omitempty"`
}
