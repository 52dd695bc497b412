package domain

// SmartPriorityScore is the blended priority score for a company.
// Component fields are kept so callers can explain a ranking.
type SmartPriorityScore struct {
	// BaseScore is the stored growth score at scoring time, in [0,100].
	BaseScore float64

	// VelocityScore is the weekly posting velocity component, in [0,50].
	VelocityScore float64

	// MomentumScore is the scaled momentum component, in [-20,20].
	MomentumScore float64

	// RecencyScore is the sync-recency bonus, in [0,10].
	RecencyScore float64

	// SeasonalFactor is the quarter multiplier applied to velocity.
	SeasonalFactor float64

	// FinalScore is the blended score clamped to [0,100].
	FinalScore float64

	// Confidence estimates how much signal backs the score, in [0,1].
	// Scores over sparse history rank low-confidence.
	Confidence float64
}

// SpikeResult reports whether a company's weekly posting volume spiked.
type SpikeResult struct {
	// Spiking is true when current volume is at least Threshold times the
	// prior week's, or when postings appeared after a silent week.
	Spiking bool

	// Multiplier is current/previous weekly volume. +Inf when the prior
	// week was zero and the current week is not.
	Multiplier float64

	// Threshold is the multiplier at which volume counts as a spike.
	Threshold float64
}
