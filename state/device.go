package state

import (
	"fmt"

	. "github.com/elijahnyp/home_commander/util"
)

type Kind string

const (
	KindLight      Kind = "light"
	KindDoor       Kind = "door"
	KindThermostat Kind = "thermostat"
	KindTV         Kind = "tv"
	KindAlarm      Kind = "alarm"
)

// Device is the common view of every controllable device. Mutations are kind
// specific and live on the concrete types.
type Device interface {
	Name() string
	Kind() Kind
	Status() string
	Watch(Observer)
}

// Observer is called after every mutation of the device it watches.
type Observer func(Device)

type base struct {
	name     string
	observer Observer
}

func (b *base) Name() string { return b.name }

func (b *base) Watch(o Observer) { b.observer = o }

func (b *base) changed(d Device) {
	if b.observer != nil {
		b.observer(d)
	}
}

func onOff(v bool) string {
	if v {
		return "ON"
	}
	return "OFF"
}

type Light struct {
	base
	on bool
}

func NewLight(name string) *Light {
	return &Light{base: base{name: name}}
}

func (l *Light) On() {
	l.on = true
	Logger.Info().Msgf("%s light is ON", l.name)
	l.changed(l)
}

func (l *Light) Off() {
	l.on = false
	Logger.Info().Msgf("%s light is OFF", l.name)
	l.changed(l)
}

func (l *Light) IsOn() bool     { return l.on }
func (l *Light) Kind() Kind     { return KindLight }
func (l *Light) Status() string { return onOff(l.on) }

type Door struct {
	base
	open bool
}

func NewDoor(name string) *Door {
	return &Door{base: base{name: name}}
}

func (d *Door) Open() {
	d.open = true
	Logger.Info().Msgf("%s is OPEN", d.name)
	d.changed(d)
}

func (d *Door) Close() {
	d.open = false
	Logger.Info().Msgf("%s is CLOSED", d.name)
	d.changed(d)
}

func (d *Door) IsOpen() bool { return d.open }
func (d *Door) Kind() Kind   { return KindDoor }

func (d *Door) Status() string {
	if d.open {
		return "OPEN"
	}
	return "CLOSED"
}

// Thermostat holds a whole-degree set point.
type Thermostat struct {
	base
	temperature int
}

func NewThermostat(name string, initial int) *Thermostat {
	return &Thermostat{base: base{name: name}, temperature: initial}
}

func (t *Thermostat) SetTemperature(temp int) {
	Logger.Info().Msgf("%s thermostat: %d -> %d", t.name, t.temperature, temp)
	t.temperature = temp
	t.changed(t)
}

func (t *Thermostat) Temperature() int { return t.temperature }
func (t *Thermostat) Kind() Kind       { return KindThermostat }
func (t *Thermostat) Status() string   { return fmt.Sprintf("%d", t.temperature) }

type TV struct {
	base
	on bool
}

func NewTV(name string) *TV {
	return &TV{base: base{name: name}}
}

func (tv *TV) On() {
	tv.on = true
	Logger.Info().Msgf("%s TV is ON", tv.name)
	tv.changed(tv)
}

func (tv *TV) Off() {
	tv.on = false
	Logger.Info().Msgf("%s TV is OFF", tv.name)
	tv.changed(tv)
}

func (tv *TV) IsOn() bool     { return tv.on }
func (tv *TV) Kind() Kind     { return KindTV }
func (tv *TV) Status() string { return onOff(tv.on) }

type Alarm struct {
	base
	armed bool
}

func NewAlarm(name string) *Alarm {
	return &Alarm{base: base{name: name}}
}

func (a *Alarm) Arm() {
	a.armed = true
	Logger.Info().Msgf("%s alarm ARMED", a.name)
	a.changed(a)
}

func (a *Alarm) Disarm() {
	a.armed = false
	Logger.Info().Msgf("%s alarm DISARMED", a.name)
	a.changed(a)
}

func (a *Alarm) IsArmed() bool { return a.armed }
func (a *Alarm) Kind() Kind    { return KindAlarm }

func (a *Alarm) Status() string {
	if a.armed {
		return "ARMED"
	}
	return "DISARMED"
}
