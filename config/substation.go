package config

import "fmt"

// SubstationConfig holds the capacity manager settings.
type SubstationConfig struct {
	ID            string  `json:"id"`
	Listen        string  `json:"listen"`
	MaxCapacityKW float64 `json:"max_capacity_kw"`
}

func (c *SubstationConfig) SetDefaults() {
	if c.Listen == "" {
		c.Listen = ":8081"
	}
	if c.MaxCapacityKW == 0 {
		c.MaxCapacityKW = 100
	}
}

func (c SubstationConfig) Validate() error {
	if c.MaxCapacityKW <= 0 {
		return fmt.Errorf("max_capacity_kw must be positive")
	}
	return nil
}
