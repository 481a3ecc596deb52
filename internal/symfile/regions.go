package symfile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Region is one memory area of the target machine.
type Region struct {
	Name  string `yaml:"name"`
	Base  uint64 `yaml:"base"`
	Width int    `yaml:"width"`          // hex digits of a region-relative address
	Code  bool   `yaml:"code,omitempty"` // entering this region switches to ARM code
}

// RegionMap lists the memory areas an org directive can switch to.
// The first region is current until the first org selects another.
type RegionMap struct {
	Regions []Region `yaml:"regions"`
}

// DefaultRegions returns the Game Boy Advance memory map.
func DefaultRegions() RegionMap {
	return RegionMap{Regions: []Region{
		{Name: "GbaPrgRom", Base: 0x08000000, Width: 7, Code: true},
		{Name: "GbaExtWorkRam", Base: 0x02000000, Width: 6},
		{Name: "GbaIntWorkRam", Base: 0x03000000, Width: 4},
		{Name: "GbaPaletteRam", Base: 0x05000000, Width: 4},
	}}
}

// LoadRegions reads a region map from a YAML file of the form
//
//	regions:
//	  - name: GbaPrgRom
//	    base: 0x08000000
//	    width: 7
//	    code: true
func LoadRegions(path string) (RegionMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RegionMap{}, fmt.Errorf("symfile: read regions: %w", err)
	}
	return ParseRegions(data)
}

// ParseRegions decodes and validates a YAML region map.
func ParseRegions(data []byte) (RegionMap, error) {
	var m RegionMap
	if err := yaml.Unmarshal(data, &m); err != nil {
		return RegionMap{}, fmt.Errorf("symfile: parse regions: %w", err)
	}
	if err := m.Validate(); err != nil {
		return RegionMap{}, err
	}
	return m, nil
}

// Validate checks that the map is usable by the writers.
func (m RegionMap) Validate() error {
	if len(m.Regions) == 0 {
		return fmt.Errorf("%w: no regions", ErrRegions)
	}
	seen := make(map[uint64]string, len(m.Regions))
	for i, r := range m.Regions {
		if r.Name == "" {
			return fmt.Errorf("%w: region %d has no name", ErrRegions, i)
		}
		if r.Width < 1 || r.Width > 16 {
			return fmt.Errorf("%w: region %s: width %d out of range 1..16", ErrRegions, r.Name, r.Width)
		}
		if prev, dup := seen[r.Base]; dup {
			return fmt.Errorf("%w: regions %s and %s share base 0x%x", ErrRegions, prev, r.Name, r.Base)
		}
		seen[r.Base] = r.Name
	}
	return nil
}

// At returns the region starting exactly at base.
func (m RegionMap) At(base uint64) (Region, bool) {
	for _, r := range m.Regions {
		if r.Base == base {
			return r, true
		}
	}
	return Region{}, false
}

// Format renders addr relative to the region base with the region's width.
func (r Region) Format(addr uint64) string {
	return fmt.Sprintf("%0*X", r.Width, addr-r.Base)
}
