package disease

import (
	"fmt"
	"math"

	"github.com/fatih/structs"
)

// Params are the per-unit-time rates of the compartment model.
type Params struct {
	// BetaSubclin is the transmission coefficient of L individuals.
	BetaSubclin float64 `koanf:"beta_subclin" yaml:"beta_subclin"`
	// BetaClinical is the transmission coefficient of I individuals.
	BetaClinical float64 `koanf:"beta_clinical" yaml:"beta_clinical"`
	// ContactPower selects frequency (1) or density (0) dependence.
	ContactPower float64 `koanf:"contact_power" yaml:"contact_power"`

	Incubation  float64 `koanf:"incubation" yaml:"incubation"`
	Progression float64 `koanf:"progression" yaml:"progression"`
	Recovery    float64 `koanf:"recovery" yaml:"recovery"`
	Healing     float64 `koanf:"healing" yaml:"healing"`
	Reversion   float64 `koanf:"reversion" yaml:"reversion"`
	Waning      float64 `koanf:"waning" yaml:"waning"`
	Vaccination float64 `koanf:"vaccination" yaml:"vaccination"`

	MortalityE float64 `koanf:"mortality_e" yaml:"mortality_e"`
	MortalityL float64 `koanf:"mortality_l" yaml:"mortality_l"`
	MortalityI float64 `koanf:"mortality_i" yaml:"mortality_i"`
	MortalityD float64 `koanf:"mortality_d" yaml:"mortality_d"`

	// Death is the mortality from other causes, for every living stage.
	Death float64 `koanf:"death" yaml:"death"`

	// ExternalInfection is the force of infection from outside the
	// population.
	ExternalInfection float64 `koanf:"external_infection" yaml:"external_infection"`
}

// DefaultParams returns frequency-dependent transmission with every rate
// switched off.
func DefaultParams() Params {
	return Params{ContactPower: 1}
}

// Validate checks that all rates are finite and not negative.
func (p Params) Validate() error {
	for _, f := range structs.Fields(p) {
		x := f.Value().(float64)
		if math.IsNaN(x) || math.IsInf(x, 0) || x < 0 {
			return fmt.Errorf("parameter %s must be finite and not negative, got %v",
				f.Tag("koanf"), x)
		}
	}

	return nil
}

// mortality returns the disease mortality of a stage.
func (p Params) mortality(s Stage) float64 {
	switch s {
	case E:
		return p.MortalityE
	case L:
		return p.MortalityL
	case I:
		return p.MortalityI
	case D:
		return p.MortalityD
	default:
		return 0
	}
}
