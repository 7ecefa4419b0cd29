// CLAUDE:SUMMARY Gazetteer manifest YAML schema: canonical state enumeration plus alias table.
package geo

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest describes a gazetteer: its provenance, canonical names and aliases.
type Manifest struct {
	ID           string            `yaml:"id" json:"id"`
	Version      string            `yaml:"version" json:"version"`
	Jurisdiction string            `yaml:"jurisdiction" json:"jurisdiction"`
	Source       string            `yaml:"source" json:"source"`
	States       []string          `yaml:"states" json:"states"`
	Aliases      map[string]string `yaml:"aliases" json:"aliases"`
}

// LoadManifest reads and parses a gazetteer YAML file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read gazetteer %s: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse gazetteer %s: %w", path, err)
	}
	if m.ID == "" {
		return nil, fmt.Errorf("gazetteer %s: missing id", path)
	}
	return &m, nil
}

// DefaultManifest is the built-in enumeration of Indian states and union
// territories with their historical and variant spellings.
func DefaultManifest() *Manifest {
	return &Manifest{
		ID:           "in-states",
		Version:      "2020",
		Jurisdiction: "in",
		Source:       "built-in",
		States: []string{
			"Andhra Pradesh", "Arunachal Pradesh", "Assam", "Bihar", "Chhattisgarh",
			"Goa", "Gujarat", "Haryana", "Himachal Pradesh", "Jharkhand",
			"Karnataka", "Kerala", "Madhya Pradesh", "Maharashtra", "Manipur",
			"Meghalaya", "Mizoram", "Nagaland", "Odisha", "Punjab", "Rajasthan",
			"Sikkim", "Tamil Nadu", "Telangana", "Tripura", "Uttar Pradesh",
			"Uttarakhand", "West Bengal",
			// Union territories.
			"Delhi", "Jammu And Kashmir", "Ladakh", "Puducherry", "Chandigarh",
			"Dadra And Nagar Haveli And Daman And Diu",
			"Andaman And Nicobar Islands", "Lakshadweep",
		},
		Aliases: map[string]string{
			"Pondicherry":            "Puducherry",
			"Jammu & Kashmir":        "Jammu And Kashmir",
			"Daman & Diu":            "Daman And Diu",
			"Dadra & Nagar Haveli":   "Dadra And Nagar Haveli",
			"Dadra And Nagar Haveli": "Dadra And Nagar Haveli And Daman And Diu",
			"Daman And Diu":          "Dadra And Nagar Haveli And Daman And Diu",
		},
	}
}
