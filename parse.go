package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/elijahnyp/home_commander/command"
	"github.com/elijahnyp/home_commander/state"
)

var (
	ErrUnknownVerb     = errors.New("unknown verb")
	ErrMissingArgument = errors.New("missing argument")
	ErrExtraArgument   = errors.New("unexpected argument")
	ErrBadNumber       = errors.New("bad number")
)

// ParseCommand builds a device command from one text instruction such as
// "light_on LivingRoom" or "temp_up Hall 3".
func ParseCommand(home *state.Home, line string) (command.Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty command", ErrMissingArgument)
	}
	verb := strings.ToLower(fields[0])
	if len(fields) < 2 {
		return nil, fmt.Errorf("%w: %s needs a device", ErrMissingArgument, verb)
	}
	name := fields[1]
	want := 2
	if verb == "temp_up" || verb == "temp_down" {
		want = 3
	}
	if len(fields) > want {
		return nil, fmt.Errorf("%w: %q after %s", ErrExtraArgument, fields[want], verb)
	}

	switch verb {
	case "light_on", "light_off":
		light, err := home.Light(name)
		if err != nil {
			return nil, err
		}
		if verb == "light_on" {
			return command.NewLightOn(light), nil
		}
		return command.NewLightOff(light), nil
	case "door_open", "door_close":
		door, err := home.Door(name)
		if err != nil {
			return nil, err
		}
		if verb == "door_open" {
			return command.NewDoorOpen(door), nil
		}
		return command.NewDoorClose(door), nil
	case "temp_up", "temp_down":
		thermostat, err := home.Thermostat(name)
		if err != nil {
			return nil, err
		}
		if len(fields) < 3 {
			return nil, fmt.Errorf("%w: %s needs a delta", ErrMissingArgument, verb)
		}
		delta, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrBadNumber, fields[2])
		}
		if verb == "temp_up" {
			return command.NewIncreaseTemperature(thermostat, delta), nil
		}
		return command.NewDecreaseTemperature(thermostat, delta), nil
	case "tv_toggle":
		tv, err := home.TV(name)
		if err != nil {
			return nil, err
		}
		return command.NewTVToggle(tv), nil
	case "alarm_toggle":
		alarm, err := home.Alarm(name)
		if err != nil {
			return nil, err
		}
		return command.NewAlarmToggle(alarm), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownVerb, fields[0])
}

// ParseScript parses ";" separated instructions. More than one becomes a
// macro so it is undone as a single step. Nothing is returned unless every
// part parses.
func ParseScript(home *state.Home, payload string) (command.Command, error) {
	var cmds []command.Command
	for _, part := range strings.Split(payload, ";") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		c, err := ParseCommand(home, part)
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, c)
	}
	switch len(cmds) {
	case 0:
		return nil, fmt.Errorf("%w: empty command", ErrMissingArgument)
	case 1:
		return cmds[0], nil
	}
	return command.NewMacro(cmds...), nil
}
