// Package compare holds the gas versus electric cost-per-mile arithmetic.
package compare

import (
	"errors"
	"fmt"
	"math"
)

// Epsilon is the $/mi tolerance under which both energy sources are
// considered equal.
const Epsilon = 0.001

// nearBreakEven is the $/kWh window in which a swept rate is flagged as close
// to the break-even rate.
const nearBreakEven = 0.025

// DefaultSweepRates are the electricity rates probed by Sweep.
var DefaultSweepRates = []float64{0.10, 0.15, 0.20, 0.25, 0.30, 0.35, 0.40, 0.50}

var ErrInvalidPrice = errors.New("gas price must be a positive number")

// Vehicle is the efficiency model used for every comparison.
type Vehicle struct {
	MPG  float64 `json:"mpg" yaml:"mpg"`
	EMPG float64 `json:"empg" yaml:"empg"`
}

func (v Vehicle) Validate() error {
	if v.MPG <= 0 || math.IsNaN(v.MPG) || math.IsInf(v.MPG, 0) {
		return fmt.Errorf("mpg must be a positive number, got %v", v.MPG)
	}
	if v.EMPG <= 0 || math.IsNaN(v.EMPG) || math.IsInf(v.EMPG, 0) {
		return fmt.Errorf("empg must be a positive number, got %v", v.EMPG)
	}
	return nil
}

func (v Vehicle) String() string {
	return fmt.Sprintf("%g MPG / %g mi/kWh", v.MPG, v.EMPG)
}

// GasCostPerMile returns the $/mi cost of driving on gas at price $/gal.
func (v Vehicle) GasCostPerMile(price float64) float64 {
	return price / v.MPG
}

// ElectricCostPerMile returns the $/mi cost of driving on electricity at
// rate $/kWh.
func (v Vehicle) ElectricCostPerMile(rate float64) float64 {
	return rate / v.EMPG
}

// BreakEvenRate is the $/kWh rate at which charging costs the same per mile
// as gas at price $/gal.
func (v Vehicle) BreakEvenRate(price float64) float64 {
	return price * v.EMPG / v.MPG
}

// GasToBeat is the $/gal price gas must drop below to beat charging at rate
// $/kWh.
func (v Vehicle) GasToBeat(rate float64) float64 {
	return rate * v.MPG / v.EMPG
}

// Verdict says which energy source is cheaper per mile.
type Verdict int

const (
	VerdictUnknown Verdict = iota
	VerdictCharge
	VerdictGas
	VerdictEqual
)

func (v Verdict) String() string {
	switch v {
	case VerdictCharge:
		return "charge"
	case VerdictGas:
		return "gas"
	case VerdictEqual:
		return "equal"
	default:
		return "unknown"
	}
}

func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// Classify turns the signed electric minus gas $/mi difference into a
// verdict.
func Classify(diff float64) Verdict {
	switch {
	case diff < -Epsilon:
		return VerdictCharge
	case diff > Epsilon:
		return VerdictGas
	default:
		return VerdictEqual
	}
}

// Charger is a known charging location. A nil Rate means the rate is unknown.
type Charger struct {
	Name string   `json:"name" yaml:"name"`
	Rate *float64 `json:"rate" yaml:"rate"`
}

// ChargerResult is the per-charger comparison against gas.
type ChargerResult struct {
	Charger
	Known       bool    `json:"known"`
	CostPerMile float64 `json:"cost_per_mile"`
	Diff        float64 `json:"diff"`
	Verdict     Verdict `json:"verdict"`
}

// Saving returns the absolute $/mi difference.
func (r ChargerResult) Saving() float64 {
	return math.Abs(r.Diff)
}

// HomeResult is the reverse break-even for the home charger.
type HomeResult struct {
	Name      string  `json:"name"`
	Rate      float64 `json:"rate"`
	GasToBeat float64 `json:"gas_to_beat"`
}

// Result is the comparison of one gas price against every charger.
type Result struct {
	Vehicle        Vehicle         `json:"vehicle"`
	GasPrice       float64         `json:"gas_price"`
	GasCostPerMile float64         `json:"gas_cost_per_mile"`
	BreakEvenRate  float64         `json:"break_even_rate"`
	Chargers       []ChargerResult `json:"chargers"`
	Home           *HomeResult     `json:"home,omitempty"`
}

// Compare computes the cost per mile of gas at gasPrice and of each charger,
// and the break-even electricity rate. home names the charger used for the
// reverse break-even; it is skipped when absent or its rate is unknown.
func Compare(gasPrice float64, v Vehicle, chargers []Charger, home string) (*Result, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	if gasPrice <= 0 || math.IsNaN(gasPrice) || math.IsInf(gasPrice, 0) {
		return nil, ErrInvalidPrice
	}

	gasPerMile := v.GasCostPerMile(gasPrice)
	res := &Result{
		Vehicle:        v,
		GasPrice:       gasPrice,
		GasCostPerMile: gasPerMile,
		BreakEvenRate:  v.BreakEvenRate(gasPrice),
		Chargers:       make([]ChargerResult, 0, len(chargers)),
	}

	for _, c := range chargers {
		cr := ChargerResult{Charger: c}
		if c.Rate != nil {
			cr.Known = true
			cr.CostPerMile = v.ElectricCostPerMile(*c.Rate)
			cr.Diff = cr.CostPerMile - gasPerMile
			cr.Verdict = Classify(cr.Diff)
		}
		res.Chargers = append(res.Chargers, cr)

		if c.Name == home && c.Rate != nil && res.Home == nil {
			res.Home = &HomeResult{
				Name:      c.Name,
				Rate:      *c.Rate,
				GasToBeat: v.GasToBeat(*c.Rate),
			}
		}
	}

	return res, nil
}

// SweepRow is one probe rate in a break-even sweep.
type SweepRow struct {
	Rate               float64 `json:"rate"`
	CostPerMile        float64 `json:"cost_per_mile"`
	GasCostPerMile     float64 `json:"gas_cost_per_mile"`
	Verdict            Verdict `json:"verdict"`
	NearBreakEvenPoint bool    `json:"near_break_even"`
}

// Sweep evaluates a list of electricity rates against gas at gasPrice. A rate
// strictly below the break-even rate favours charging.
func Sweep(gasPrice float64, v Vehicle, rates []float64) []SweepRow {
	if len(rates) == 0 {
		rates = DefaultSweepRates
	}
	cutoff := v.BreakEvenRate(gasPrice)
	gasPerMile := v.GasCostPerMile(gasPrice)

	rows := make([]SweepRow, 0, len(rates))
	for _, rate := range rates {
		verdict := VerdictGas
		if rate < cutoff {
			verdict = VerdictCharge
		}
		rows = append(rows, SweepRow{
			Rate:               rate,
			CostPerMile:        v.ElectricCostPerMile(rate),
			GasCostPerMile:     gasPerMile,
			Verdict:            verdict,
			NearBreakEvenPoint: math.Abs(rate-cutoff) < nearBreakEven,
		})
	}
	return rows
}
