package catalog

import (
	"fmt"
	"io"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// File is the on-disk TOML shape:
//
//	[default]
//	morning = ["09:00", "09:30"]
//	afternoon = ["1:30", "2:00"]
//
//	[[clinics]]
//	id = "sz"
//	name = "Shenzhen Clinic"
//	address = "Futian District"
//	morning = ["08:30", "09:00"]   # optional override
type File struct {
	Default struct {
		Morning   []TimeSlot `toml:"morning"`
		Afternoon []TimeSlot `toml:"afternoon"`
	} `toml:"default"`
	Clinics []ClinicEntry `toml:"clinics"`
}

type ClinicEntry struct {
	Clinic
	Morning   []TimeSlot `toml:"morning"`
	Afternoon []TimeSlot `toml:"afternoon"`
}

func LoadFile(path string) (*Directory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog file: %w", err)
	}
	defer f.Close()

	dir, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return dir, nil
}

// Decode builds a Directory from TOML. Missing default slots fall back to the
// built-in catalog; an empty clinic list falls back to the built-in clinics.
func Decode(r io.Reader) (*Directory, error) {
	var file File
	if err := toml.NewDecoder(r).DisallowUnknownFields().Decode(&file); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	fallback := Default()
	if len(file.Default.Morning)+len(file.Default.Afternoon) > 0 {
		c, err := New(file.Default.Morning, file.Default.Afternoon)
		if err != nil {
			return nil, fmt.Errorf("default catalog: %w", err)
		}
		fallback = c
	}

	if len(file.Clinics) == 0 {
		dir := DefaultDirectory()
		dir.fallback = fallback
		return dir, nil
	}

	dir := NewDirectory(fallback)
	for _, entry := range file.Clinics {
		var slots Slots
		if len(entry.Morning)+len(entry.Afternoon) > 0 {
			c, err := New(entry.Morning, entry.Afternoon)
			if err != nil {
				return nil, fmt.Errorf("clinic %s: %w", entry.ID, err)
			}
			slots = c
		}
		if err := dir.Add(entry.Clinic, slots); err != nil {
			return nil, err
		}
	}

	return dir, nil
}
