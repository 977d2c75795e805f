package ledger

// IntakeTier grades the size of a single logged intake.
type IntakeTier int

const (
	IntakeNegligible IntakeTier = iota
	IntakeLight
	IntakeModerate
	IntakeHeavy
	IntakeExtreme
)

var intakeTierNames = [...]string{"negligible", "light", "moderate", "heavy", "extreme"}

func (t IntakeTier) String() string {
	if t < 0 || int(t) >= len(intakeTierNames) {
		return "unknown"
	}
	return intakeTierNames[t]
}

// HeadroomTier grades how much of the daily limit is already spent.
type HeadroomTier int

const (
	HeadroomAmple HeadroomTier = iota
	HeadroomComfortable
	HeadroomTight
	HeadroomCritical
	HeadroomExceeded
)

var headroomTierNames = [...]string{"ample", "comfortable", "tight", "critical", "exceeded"}

func (t HeadroomTier) String() string {
	if t < 0 || int(t) >= len(headroomTierNames) {
		return "unknown"
	}
	return headroomTierNames[t]
}

// Tiers classifies amounts and headroom against fixed ascending breakpoints.
// Both classifiers are deterministic and total; phrase selection stays with
// the front end.
type Tiers struct {
	// Intake holds the exclusive upper bounds of the first four intake
	// tiers, in calories.
	Intake []int
	// Headroom holds the exclusive upper bounds of the first four headroom
	// tiers, as fraction of the limit already used.
	Headroom []float64
}

// DefaultTiers matches the historical reaction bands.
func DefaultTiers() Tiers {
	return Tiers{
		Intake:   []int{80, 200, 450, 800},
		Headroom: []float64{0.25, 0.55, 0.8, 1.0},
	}
}

// ClassifyIntake grades a logged amount by magnitude.
func (t Tiers) ClassifyIntake(amount int) IntakeTier {
	for i, bound := range t.Intake {
		if amount < bound {
			return IntakeTier(i)
		}
	}
	return IntakeExtreme
}

// ClassifyHeadroom grades the fraction of the limit already used.
// Non-positive remaining or a non-positive limit is always the worst tier,
// which also guards the division.
func (t Tiers) ClassifyHeadroom(remaining, limit int) HeadroomTier {
	if limit <= 0 || remaining <= 0 {
		return HeadroomExceeded
	}
	used := float64(limit-remaining) / float64(limit)
	for i, bound := range t.Headroom {
		if used < bound {
			return HeadroomTier(i)
		}
	}
	return HeadroomExceeded
}
