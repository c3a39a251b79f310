// Package footprint estimates a day's emissions from logged activities
// using fixed per-unit factors. No model is involved.
package footprint

import "math"

// Log is one day of activity.
type Log struct {
	TransportMode    string  `json:"transport_mode"`
	Distance         float64 `json:"distance"`
	Meals            string  `json:"meals"`
	ElectricityUsage float64 `json:"electricity_usage"`
	PlasticUsed      float64 `json:"plastic_used"`
}

// Per-km emission by transport mode. Walking and unknown modes emit nothing.
var transportFactors = map[string]float64{
	"Car":   0.21,
	"Bike":  0.02,
	"Metro": 0.05,
	"Walk":  0,
}

var mealEmissions = map[string]float64{
	"Non-Vegetarian": 2.5,
	"Vegetarian":     1.0,
	"Vegan":          0.8,
}

const (
	electricityFactor = 0.9
	plasticFactor     = 6
)

// Calculate returns the day's emission rounded to two decimals.
func Calculate(l Log) float64 {
	emission := l.Distance * transportFactors[l.TransportMode]
	emission += mealEmissions[l.Meals]
	emission += l.ElectricityUsage * electricityFactor
	emission += l.PlasticUsed * plasticFactor
	return math.Round(emission*100) / 100
}
