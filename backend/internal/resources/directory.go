package resources

import (
	"fmt"
	"log"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// file is the on-disk layout of a resource directory
type file struct {
	Resources []Resource `yaml:"resources"`
}

// Directory manages loading and lookup of emergency resources
type Directory struct {
	path      string
	resources []Resource
	byID      map[string]Resource
	mu        sync.RWMutex
	logger    *log.Logger
}

// NewDirectory creates a directory backed by path.
// An empty path serves the built-in defaults.
func NewDirectory(path string, logger *log.Logger) *Directory {
	d := &Directory{
		path:   path,
		logger: logger,
	}
	d.set(DefaultResources())
	return d
}

// Load reads the resource file
func (d *Directory) Load() error {
	if d.path == "" {
		d.logInfo("No resource file configured, using %d built-in resources", len(DefaultResources()))
		d.set(DefaultResources())
		return nil
	}

	if _, err := os.Stat(d.path); os.IsNotExist(err) {
		d.logInfo("Resource file does not exist: %s, using built-in resources", d.path)
		d.set(DefaultResources())
		return nil
	}

	list, err := loadFile(d.path)
	if err != nil {
		return err
	}

	d.set(list)
	d.logInfo("Loaded %d resources from %s", len(list), d.path)
	return nil
}

// Reload reloads resources from disk. On failure the previous set is kept.
func (d *Directory) Reload() error {
	d.logInfo("Reloading resources...")
	if err := d.Load(); err != nil {
		d.logError("Failed to reload resources: %v", err)
		return err
	}
	return nil
}

// GetEmergencyResources returns resources of the given channel type in
// priority order. An empty type returns every resource.
func (d *Directory) GetEmergencyResources(resourceType string) []Resource {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]Resource, 0, len(d.resources))
	for _, r := range d.resources {
		if resourceType == "" || r.Type == resourceType {
			out = append(out, r)
		}
	}
	return out
}

// Get looks up a resource by ID
func (d *Directory) Get(id string) (Resource, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	r, ok := d.byID[id]
	return r, ok
}

// Primary returns the highest-priority resource of a channel type
func (d *Directory) Primary(resourceType string) (Resource, bool) {
	list := d.GetEmergencyResources(resourceType)
	if len(list) == 0 {
		return Resource{}, false
	}
	return list[0], true
}

func (d *Directory) set(list []Resource) {
	sortByPriority(list)
	byID := make(map[string]Resource, len(list))
	for _, r := range list {
		byID[r.ID] = r
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.resources = list
	d.byID = byID
}

// loadFile reads and validates a resource file
func loadFile(path string) ([]Resource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML resource document
func Parse(data []byte) ([]Resource, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if len(f.Resources) == 0 {
		return nil, fmt.Errorf("resource file defines no resources")
	}

	seen := make(map[string]bool)
	for i, r := range f.Resources {
		if r.ID == "" {
			return nil, fmt.Errorf("resource %d: id is required", i)
		}
		if seen[r.ID] {
			return nil, fmt.Errorf("resource %s: duplicate id", r.ID)
		}
		seen[r.ID] = true
		if r.Number == "" {
			return nil, fmt.Errorf("resource %s: number is required", r.ID)
		}
		if !ValidType(r.Type) {
			return nil, fmt.Errorf("resource %s: unknown type %q", r.ID, r.Type)
		}
		if r.Name == "" {
			f.Resources[i].Name = r.ID
		}
	}
	return f.Resources, nil
}

// logging helpers
func (d *Directory) logInfo(format string, args ...interface{}) {
	if d.logger != nil {
		d.logger.Printf("[INFO] "+format, args...)
	}
}

func (d *Directory) logError(format string, args ...interface{}) {
	if d.logger != nil {
		d.logger.Printf("[ERROR] "+format, args...)
	}
}
