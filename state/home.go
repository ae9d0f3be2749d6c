package state

import (
	"errors"
	"fmt"
	"strings"

	. "github.com/elijahnyp/home_commander/util"
)

var (
	ErrUnknownDevice   = errors.New("unknown device")
	ErrDuplicateDevice = errors.New("duplicate device")
	ErrWrongKind       = errors.New("wrong device kind")
	ErrUnknownKind     = errors.New("unknown device kind")
)

// DeviceStatus is a point in time view of one device.
type DeviceStatus struct {
	Name   string `json:"name"`
	Kind   Kind   `json:"kind"`
	Status string `json:"status"`
}

// Home is the set of devices the controller drives, addressed by name.
// Names are matched case-insensitively.
type Home struct {
	devices map[string]Device
	order   []string
}

func NewHome() *Home {
	return &Home{devices: make(map[string]Device)}
}

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (h *Home) Add(d Device) error {
	k := key(d.Name())
	if k == "" {
		return fmt.Errorf("%w: empty name", ErrUnknownDevice)
	}
	if _, exists := h.devices[k]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateDevice, d.Name())
	}
	h.devices[k] = d
	h.order = append(h.order, k)
	return nil
}

// NewDevice constructs a device of the given kind. initial is only used by
// thermostats.
func NewDevice(spec DeviceSpec) (Device, error) {
	switch Kind(strings.ToLower(spec.Kind)) {
	case KindLight:
		return NewLight(spec.Name), nil
	case KindDoor:
		return NewDoor(spec.Name), nil
	case KindThermostat:
		return NewThermostat(spec.Name, spec.Initial), nil
	case KindTV:
		return NewTV(spec.Name), nil
	case KindAlarm:
		return NewAlarm(spec.Name), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, spec.Kind)
}

// BuildHome creates a home from the configured model. Bad entries are
// skipped with a warning.
func BuildHome(m Model) *Home {
	h := NewHome()
	for _, spec := range m.Devices {
		d, err := NewDevice(spec)
		if err != nil {
			Logger.Warn().Msgf("skipping device %q: %v", spec.Name, err)
			continue
		}
		if err := h.Add(d); err != nil {
			Logger.Warn().Msgf("skipping device %q: %v", spec.Name, err)
			continue
		}
		Logger.Debug().Msgf("added %s %s", d.Kind(), d.Name())
	}
	return h
}

func (h *Home) Get(name string) (Device, error) {
	d, ok := h.devices[key(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDevice, name)
	}
	return d, nil
}

func (h *Home) Len() int {
	return len(h.order)
}

// Devices returns the devices in the order they were added.
func (h *Home) Devices() []Device {
	out := make([]Device, 0, len(h.order))
	for _, k := range h.order {
		out = append(out, h.devices[k])
	}
	return out
}

func (h *Home) Snapshot() []DeviceStatus {
	out := make([]DeviceStatus, 0, len(h.order))
	for _, d := range h.Devices() {
		out = append(out, DeviceStatus{Name: d.Name(), Kind: d.Kind(), Status: d.Status()})
	}
	return out
}

// Watch installs o on every device in the home.
func (h *Home) Watch(o Observer) {
	for _, d := range h.devices {
		d.Watch(o)
	}
}

func lookup[T Device](h *Home, name string, kind Kind) (T, error) {
	var zero T
	d, err := h.Get(name)
	if err != nil {
		return zero, err
	}
	typed, ok := d.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s is a %s, not a %s", ErrWrongKind, d.Name(), d.Kind(), kind)
	}
	return typed, nil
}

func (h *Home) Light(name string) (*Light, error) {
	return lookup[*Light](h, name, KindLight)
}

func (h *Home) Door(name string) (*Door, error) {
	return lookup[*Door](h, name, KindDoor)
}

func (h *Home) Thermostat(name string) (*Thermostat, error) {
	return lookup[*Thermostat](h, name, KindThermostat)
}

func (h *Home) TV(name string) (*TV, error) {
	return lookup[*TV](h, name, KindTV)
}

func (h *Home) Alarm(name string) (*Alarm, error) {
	return lookup[*Alarm](h, name, KindAlarm)
}
