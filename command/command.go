// Package command turns device mutations into reversible units and keeps the
// undo history that sequences them.
package command

import (
	"fmt"

	"github.com/elijahnyp/home_commander/state"
)

// Command is one device mutation paired with its inverse. Undo is only
// meaningful after Execute has run.
type Command interface {
	Execute()
	Undo()
	Description() string
}

// Fixed-opposite commands. Binary devices have exactly one inverse so there
// is nothing to capture.

type LightOn struct {
	light *state.Light
}

func NewLightOn(light *state.Light) *LightOn {
	return &LightOn{light: light}
}

func (c *LightOn) Execute()            { c.light.On() }
func (c *LightOn) Undo()               { c.light.Off() }
func (c *LightOn) Description() string { return "Turn on " + c.light.Name() }

type LightOff struct {
	light *state.Light
}

func NewLightOff(light *state.Light) *LightOff {
	return &LightOff{light: light}
}

func (c *LightOff) Execute()            { c.light.Off() }
func (c *LightOff) Undo()               { c.light.On() }
func (c *LightOff) Description() string { return "Turn off " + c.light.Name() }

type DoorOpen struct {
	door *state.Door
}

func NewDoorOpen(door *state.Door) *DoorOpen {
	return &DoorOpen{door: door}
}

func (c *DoorOpen) Execute()            { c.door.Open() }
func (c *DoorOpen) Undo()               { c.door.Close() }
func (c *DoorOpen) Description() string { return "Open " + c.door.Name() }

type DoorClose struct {
	door *state.Door
}

func NewDoorClose(door *state.Door) *DoorClose {
	return &DoorClose{door: door}
}

func (c *DoorClose) Execute()            { c.door.Close() }
func (c *DoorClose) Undo()               { c.door.Open() }
func (c *DoorClose) Description() string { return "Close " + c.door.Name() }

// Snapshot commands. Execute records the value it is about to overwrite and
// Undo puts exactly that value back.

// AdjustTemperature moves a thermostat set point by a signed delta.
type AdjustTemperature struct {
	thermostat *state.Thermostat
	delta      int
	prev       int
}

// NewIncreaseTemperature raises the set point by delta degrees.
func NewIncreaseTemperature(thermostat *state.Thermostat, delta int) *AdjustTemperature {
	return &AdjustTemperature{thermostat: thermostat, delta: delta}
}

// NewDecreaseTemperature lowers the set point by delta degrees.
func NewDecreaseTemperature(thermostat *state.Thermostat, delta int) *AdjustTemperature {
	return &AdjustTemperature{thermostat: thermostat, delta: -delta}
}

func (c *AdjustTemperature) Execute() {
	c.prev = c.thermostat.Temperature()
	c.thermostat.SetTemperature(c.prev + c.delta)
}

func (c *AdjustTemperature) Undo() {
	c.thermostat.SetTemperature(c.prev)
}

func (c *AdjustTemperature) Description() string {
	if c.delta < 0 {
		return fmt.Sprintf("Lower %s by %d", c.thermostat.Name(), -c.delta)
	}
	return fmt.Sprintf("Raise %s by %d", c.thermostat.Name(), c.delta)
}

type TVToggle struct {
	tv    *state.TV
	wasOn bool
}

func NewTVToggle(tv *state.TV) *TVToggle {
	return &TVToggle{tv: tv}
}

func (c *TVToggle) Execute() {
	c.wasOn = c.tv.IsOn()
	if c.wasOn {
		c.tv.Off()
	} else {
		c.tv.On()
	}
}

func (c *TVToggle) Undo() {
	if c.wasOn {
		c.tv.On()
	} else {
		c.tv.Off()
	}
}

func (c *TVToggle) Description() string { return "Toggle " + c.tv.Name() }

type AlarmToggle struct {
	alarm    *state.Alarm
	wasArmed bool
}

func NewAlarmToggle(alarm *state.Alarm) *AlarmToggle {
	return &AlarmToggle{alarm: alarm}
}

func (c *AlarmToggle) Execute() {
	c.wasArmed = c.alarm.IsArmed()
	if c.wasArmed {
		c.alarm.Disarm()
	} else {
		c.alarm.Arm()
	}
}

func (c *AlarmToggle) Undo() {
	if c.wasArmed {
		c.alarm.Arm()
	} else {
		c.alarm.Disarm()
	}
}

func (c *AlarmToggle) Description() string { return "Toggle " + c.alarm.Name() }
