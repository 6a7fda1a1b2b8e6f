package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-booking/internal/config"
)

func TestBuildMemoryBackend(t *testing.T) {
	rt, err := Build(context.Background(), config.Config{StoreBackend: config.BackendMemory}, zerolog.Nop())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer rt.Close()

	if rt.Service == nil {
		t.Fatalf("expected a service")
	}
	if len(rt.Checks) != 0 {
		t.Errorf("memory backend has no dependencies to probe, got %d checks", len(rt.Checks))
	}
	if got := len(rt.Service.Clinics()); got != 2 {
		t.Errorf("expected the built-in clinics, got %d", got)
	}
}

func TestBuildLoadsCatalogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.toml")
	doc := `
[default]
morning = ["08:00", "08:30"]
afternoon = ["2:00"]

[[clinics]]
id = "hz"
name = "Hangzhou Clinic"
address = "Xihu District"
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	rt, err := Build(context.Background(), config.Config{StoreBackend: config.BackendMemory, CatalogFile: path}, zerolog.Nop())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer rt.Close()

	clinics := rt.Service.Clinics()
	if len(clinics) != 1 || clinics[0].ID != "hz" {
		t.Fatalf("unexpected clinics %+v", clinics)
	}
	if n := len(rt.Clinics.CatalogFor("hz").AllSlots()); n != 3 {
		t.Errorf("expected 3 slots from the file, got %d", n)
	}
}

func TestBuildFailsOnMissingCatalog(t *testing.T) {
	_, err := Build(context.Background(), config.Config{
		StoreBackend: config.BackendMemory,
		CatalogFile:  filepath.Join(t.TempDir(), "missing.toml"),
	}, zerolog.Nop())
	if err == nil {
		t.Fatalf("expected error for missing catalog file")
	}
}
