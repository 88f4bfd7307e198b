package testkit

import (
	"fmt"
	"math/rand"
	"time"

	"phmagent/domain/vibration"
	"phmagent/internal/migration"
)

// SensorGeneratorConfig configures the synthetic equipment data generator
type SensorGeneratorConfig struct {
	DeviceCount   int           `json:"device_count"`
	StartDate     time.Time     `json:"start_date"`
	Days          int           `json:"days"`
	Interval      time.Duration `json:"interval"`
	VibrationMean float64       `json:"vibration_mean"`
	VibrationStd  float64       `json:"vibration_std"`
	SpikeRate     float64       `json:"spike_rate"`
	SpikeSize     float64       `json:"spike_size"`
	MissingRate   float64       `json:"missing_rate"`
	Seed          int64         `json:"seed"`
}

// DefaultSensorConfig returns a week of 10-minute readings from three pumps
func DefaultSensorConfig() SensorGeneratorConfig {
	return SensorGeneratorConfig{
		DeviceCount:   3,
		StartDate:     time.Date(2025, 7, 20, 0, 0, 0, 0, time.UTC),
		Days:          7,
		Interval:      10 * time.Minute,
		VibrationMean: 0.05,
		VibrationStd:  0.004,
		SpikeRate:     0.002,
		SpikeSize:     0.5,
		MissingRate:   0.01,
		Seed:          42,
	}
}

// SensorDataGenerator produces equipment readings with injected vibration spikes
type SensorDataGenerator struct {
	config SensorGeneratorConfig
	rng    *rand.Rand
	spikes []int
}

// NewSensorDataGenerator creates a generator; equal configs yield equal data
func NewSensorDataGenerator(config SensorGeneratorConfig) *SensorDataGenerator {
	return &SensorDataGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Columns returns the generated column names in order
func (g *SensorDataGenerator) Columns() []string {
	names := make([]string, len(migration.SensorColumns))
	for i, col := range migration.SensorColumns {
		names[i] = col.Name
	}
	return names
}

// GenerateValues generates rows as positional values matching Columns().
// Missing vibration readings are nil.
func (g *SensorDataGenerator) GenerateValues() [][]interface{} {
	g.spikes = g.spikes[:0]
	steps := int(24 * time.Hour / g.config.Interval)
	rows := make([][]interface{}, 0, g.config.Days*steps*g.config.DeviceCount)

	for d := 0; d < g.config.Days; d++ {
		day := g.config.StartDate.AddDate(0, 0, d)
		for s := 0; s < steps; s++ {
			ts := day.Add(time.Duration(s) * g.config.Interval)
			for dev := 0; dev < g.config.DeviceCount; dev++ {
				rows = append(rows, []interface{}{
					fmt.Sprintf("pump-%02d", dev+1),
					ts,
					g.vibration(len(rows)),
					60 + g.rng.NormFloat64()*1.5,
					101.3 + g.rng.NormFloat64()*0.4,
				})
			}
		}
	}
	return rows
}

// GenerateRows generates the same data as GenerateValues as named rows
func (g *SensorDataGenerator) GenerateRows() []vibration.Row {
	columns := g.Columns()
	values := g.GenerateValues()
	rows := make([]vibration.Row, len(values))
	for i, v := range values {
		row := make(vibration.Row, len(columns))
		for j, name := range columns {
			row[j] = vibration.Field{Name: name, Value: v[j]}
		}
		rows[i] = row
	}
	return rows
}

// Spikes returns the indexes of injected spikes from the last generation
func (g *SensorDataGenerator) Spikes() []int {
	return append([]int(nil), g.spikes...)
}

func (g *SensorDataGenerator) vibration(index int) interface{} {
	if g.rng.Float64() < g.config.MissingRate {
		return nil
	}
	v := g.config.VibrationMean + g.rng.NormFloat64()*g.config.VibrationStd
	if g.rng.Float64() < g.config.SpikeRate {
		g.spikes = append(g.spikes, index)
		v += g.config.SpikeSize
	}
	if v < 0 {
		v = 0
	}
	return v
}
