package disease

// A Stage is the disease compartment an individual is in.
type Stage uint8

// Enumeration of the compartments.
const (
	// Susceptible.
	S Stage = iota
	// Exposed, not yet infectious.
	E
	// Infectious but subclinical.
	L
	// Infectious and clinical.
	I
	// Clinical but no longer infectious.
	D
	// Recovered and immune.
	R
	// Vaccinated.
	V
	// Dead from the disease.
	M

	NumStages = int(M) + 1
)

var stageNames = [NumStages]string{"S", "E", "L", "I", "D", "R", "V", "M"}

func (s Stage) String() string {
	if int(s) >= NumStages {
		return "?"
	}

	return stageNames[s]
}

// Infectious returns true for stages that spread the disease.
func (s Stage) Infectious() bool {
	return s == L || s == I
}

// Clinical returns true for stages that show signs of the disease.
func (s Stage) Clinical() bool {
	return s == I || s == D
}

// Living returns true unless the individual died from the disease.
func (s Stage) Living() bool {
	return s != M
}

// ParseStage converts a compartment letter into a Stage.
func ParseStage(name string) (Stage, bool) {
	for i, n := range stageNames {
		if n == name {
			return Stage(i), true
		}
	}

	return 0, false
}
