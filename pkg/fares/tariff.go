package fares

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Tariff is the distance pricing rule: a flat fare up to the base distance,
// then a per-started-kilometre surcharge.
type Tariff struct {
	BaseFare       float64 `yaml:"base_fare"`
	BaseDistanceKM float64 `yaml:"base_distance_km"`
	PerStartedKM   float64 `yaml:"per_started_km"`
}

func DefaultTariff() Tariff {
	return Tariff{
		BaseFare:       10,
		BaseDistanceKM: 2.5,
		PerStartedKM:   1,
	}
}

// LoadTariff reads a tariff override file, falling back to the default
// tariff when no path is given.
func LoadTariff(path string) (Tariff, error) {
	tariff := DefaultTariff()

	if path == "" {
		return tariff, nil
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		return tariff, err
	}

	if err := yaml.Unmarshal(contents, &tariff); err != nil {
		return tariff, err
	}

	return tariff, nil
}
