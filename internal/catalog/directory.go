package catalog

import (
	"errors"
	"fmt"
	"strings"
)

type Clinic struct {
	ID      string `json:"id" toml:"id"`
	Name    string `json:"name" toml:"name"`
	Address string `json:"address" toml:"address"`
}

var ErrUnknownClinic = errors.New("unknown clinic")

// Directory is the static clinic list with optional per-clinic slot catalogs.
// It is built once at startup and read-only afterwards.
type Directory struct {
	clinics  []Clinic
	byID     map[string]int
	catalogs map[string]Slots
	fallback Slots
}

func NewDirectory(fallback Slots) *Directory {
	if fallback == nil {
		fallback = Default()
	}
	return &Directory{
		byID:     make(map[string]int),
		catalogs: make(map[string]Slots),
		fallback: fallback,
	}
}

// DefaultDirectory returns the Shenzhen and Guangzhou clinics on the default catalog.
func DefaultDirectory() *Directory {
	d := NewDirectory(Default())
	_ = d.Add(Clinic{ID: "sz", Name: "Shenzhen Clinic", Address: "Futian District, Shenzhen"}, nil)
	_ = d.Add(Clinic{ID: "gz", Name: "Guangzhou Clinic", Address: "Tianhe District, Guangzhou"}, nil)
	return d
}

// Add registers a clinic. A nil catalog means the clinic uses the fallback.
func (d *Directory) Add(c Clinic, slots Slots) error {
	c.ID = strings.TrimSpace(c.ID)
	if c.ID == "" {
		return errors.New("clinic id is required")
	}
	if _, exists := d.byID[c.ID]; exists {
		return fmt.Errorf("duplicate clinic %q", c.ID)
	}

	d.byID[c.ID] = len(d.clinics)
	d.clinics = append(d.clinics, c)
	if slots != nil {
		d.catalogs[c.ID] = slots
	}
	return nil
}

func (d *Directory) Clinics() []Clinic {
	return append([]Clinic(nil), d.clinics...)
}

func (d *Directory) Clinic(id string) (Clinic, bool) {
	idx, ok := d.byID[id]
	if !ok {
		return Clinic{}, false
	}
	return d.clinics[idx], true
}

// CatalogFor returns the clinic's own catalog, or the fallback.
func (d *Directory) CatalogFor(clinicID string) Slots {
	if s, ok := d.catalogs[clinicID]; ok {
		return s
	}
	return d.fallback
}
