package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed devices.yaml
var embeddedDevices []byte

var (
	// ErrUnavailable means the catalog could not be read or is empty.
	ErrUnavailable = errors.New("catalog unavailable")
	ErrNotFound    = errors.New("device not found")
)

type document struct {
	Devices []Device `yaml:"devices"`
}

// Store is an immutable, concurrency-safe view of the catalog. Callers always
// receive copies; nothing handed out aliases the store's backing data.
type Store struct {
	devices []Device
	byID    map[string]int
}

// Embedded loads the catalog compiled into the binary.
func Embedded() (*Store, error) {
	return Parse(embeddedDevices)
}

// LoadFile loads a catalog from a YAML file on disk.
func LoadFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrUnavailable, path, err)
	}
	return Parse(data)
}

// Parse decodes YAML catalog data and checks identifier uniqueness.
func Parse(data []byte) (*Store, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	return New(doc.Devices)
}

// New builds a store from devices, copying them.
func New(devices []Device) (*Store, error) {
	if len(devices) == 0 {
		return nil, fmt.Errorf("%w: no devices", ErrUnavailable)
	}
	s := &Store{
		devices: make([]Device, 0, len(devices)),
		byID:    make(map[string]int, len(devices)),
	}
	for _, d := range devices {
		id := strings.TrimSpace(d.ID)
		if id == "" {
			return nil, fmt.Errorf("%w: device %q has no id", ErrUnavailable, d.Name())
		}
		if _, dup := s.byID[id]; dup {
			return nil, fmt.Errorf("%w: duplicate device id %q", ErrUnavailable, id)
		}
		d.ID = id
		s.byID[id] = len(s.devices)
		s.devices = append(s.devices, d.clone())
	}
	return s, nil
}

// Devices returns a copy of every device in catalog order.
func (s *Store) Devices() ([]Device, error) {
	if s == nil || len(s.devices) == 0 {
		return nil, ErrUnavailable
	}
	return CloneAll(s.devices), nil
}

// Get returns one device by id.
func (s *Store) Get(id string) (Device, error) {
	if s == nil {
		return Device{}, ErrUnavailable
	}
	idx, ok := s.byID[strings.TrimSpace(id)]
	if !ok {
		return Device{}, ErrNotFound
	}
	return s.devices[idx].clone(), nil
}

// Len reports the number of devices.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.devices)
}

// CloneAll deep-copies devices.
func CloneAll(devices []Device) []Device {
	if devices == nil {
		return nil
	}
	out := make([]Device, len(devices))
	for i, d := range devices {
		out[i] = d.clone()
	}
	return out
}

func (d Device) clone() Device {
	d.RecommendedUse = append([]string(nil), d.RecommendedUse...)
	d.IdealFor = append([]string(nil), d.IdealFor...)
	return d
}
