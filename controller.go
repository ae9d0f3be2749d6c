package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	MQTT "github.com/eclipse/paho.mqtt.golang"
	"github.com/elijahnyp/home_commander/command"
	"github.com/elijahnyp/home_commander/state"
	. "github.com/elijahnyp/home_commander/util"
)

// Reply is published on the reply topic after every instruction.
type Reply struct {
	Instruction string               `json:"instruction"`
	Message     string               `json:"message"`
	Devices     []state.DeviceStatus `json:"devices,omitempty"`
	Undone      int                  `json:"undone,omitempty"`
	Depth       int                  `json:"depth"`
	OK          bool                 `json:"ok"`
}

func (r Reply) ToJson() string {
	data, err := json.Marshal(r)
	if err != nil {
		Logger.Error().Msgf("Error marshalling reply: %v", err)
		return ""
	}
	return string(data)
}

var errControllerStopped = errors.New("controller stopped")

type request struct {
	run  func()
	done chan struct{}
}

// Controller owns the home and the invoker. Every access goes through the
// requests channel and runs on the Run goroutine, one at a time.
type Controller struct {
	home     *state.Home
	model    Model
	invoker  *command.Invoker
	requests chan request
	stopped  chan struct{}

	publish   func(topic string, retained bool, payload string)
	broadcast func(messageType string, data interface{})
}

func NewController(home *state.Home) *Controller {
	c := &Controller{
		invoker:   command.NewInvoker(),
		requests:  make(chan request),
		stopped:   make(chan struct{}),
		publish:   func(string, bool, string) {},
		broadcast: func(string, interface{}) {},
	}
	c.attach(home)
	return c
}

// NewModelController builds the home from model and remembers it so Reload
// can tell whether a config change touched the devices.
func NewModelController(model Model) *Controller {
	c := NewController(state.BuildHome(model))
	c.model = model
	return c
}

func (c *Controller) attach(home *state.Home) {
	c.home = home
	home.Watch(c.deviceChanged)
}

func (c *Controller) deviceChanged(d state.Device) {
	c.publish(StateTopic(d.Name()), true, d.Status())
	c.broadcast("device", state.DeviceStatus{Name: d.Name(), Kind: d.Kind(), Status: d.Status()})
}

// Run serves requests until ctx is done.
func (c *Controller) Run(ctx context.Context) {
	defer close(c.stopped)
	for {
		select {
		case <-ctx.Done():
			Logger.Debug().Msg("controller stopped")
			return
		case r := <-c.requests:
			r.run()
			close(r.done)
		}
	}
}

// do runs fn on the controller goroutine and waits for it. It reports false
// if the controller has stopped.
func (c *Controller) do(fn func()) bool {
	r := request{run: fn, done: make(chan struct{})}
	select {
	case c.requests <- r:
	case <-c.stopped:
		return false
	}
	<-r.done
	return true
}

// Handle executes one instruction and returns the reply.
func (c *Controller) Handle(payload string) Reply {
	var reply Reply
	if !c.do(func() { reply = c.handle(payload) }) {
		return Reply{Instruction: payload, Message: errControllerStopped.Error()}
	}
	return reply
}

func (c *Controller) handle(payload string) Reply {
	payload = strings.TrimSpace(payload)
	reply := Reply{Instruction: payload, OK: true}
	fields := strings.Fields(payload)

	switch {
	case len(fields) > 0 && strings.EqualFold(fields[0], "undo"):
		n := 1
		if len(fields) > 2 {
			reply.OK = false
			reply.Message = fmt.Errorf("%w: %q after undo", ErrExtraArgument, fields[2]).Error()
			break
		}
		if len(fields) > 1 {
			v, err := strconv.Atoi(fields[1])
			if err != nil {
				reply.OK = false
				reply.Message = fmt.Errorf("%w: %q", ErrBadNumber, fields[1]).Error()
				break
			}
			n = v
		}
		undone, err := c.invoker.UndoMany(n)
		reply.Undone = undone
		switch {
		case err != nil:
			reply.OK = false
			reply.Message = err.Error()
		case undone == 0:
			reply.Message = command.ErrNothingToUndo.Error()
		case undone < n:
			reply.Message = fmt.Sprintf("undid %d of %d, history exhausted", undone, n)
		default:
			reply.Message = fmt.Sprintf("undid %d", undone)
		}
	case len(fields) == 1 && strings.EqualFold(fields[0], "status"):
		reply.Message = "status"
		reply.Devices = c.home.Snapshot()
	default:
		cmd, err := ParseScript(c.home, payload)
		if err != nil {
			Logger.Warn().Msgf("rejected %q: %v", payload, err)
			reply.OK = false
			reply.Message = err.Error()
			break
		}
		c.invoker.Execute(cmd)
		reply.Message = cmd.Description()
	}

	reply.Depth = c.invoker.HistorySize()
	c.broadcast("history", reply.Depth)
	return reply
}

// OnMessage is the MQTT handler for the command topic.
func (c *Controller) OnMessage(client MQTT.Client, message MQTT.Message) {
	Logger.Debug().Msgf("command on %s: %s", message.Topic(), string(message.Payload()))
	reply := c.Handle(string(message.Payload()))
	c.publish(Config.GetString("reply_topic"), false, reply.ToJson())
}

// Status returns the device states and current history depth.
func (c *Controller) Status() ([]state.DeviceStatus, int) {
	var devices []state.DeviceStatus
	depth := 0
	c.do(func() {
		devices = c.home.Snapshot()
		depth = c.invoker.HistorySize()
	})
	return devices, depth
}

func (c *Controller) History() []command.Entry {
	var entries []command.Entry
	c.do(func() { entries = c.invoker.History() })
	return entries
}

// Rebuild swaps in a freshly configured home. The history refers to the old
// devices so it is dropped along with them.
func (c *Controller) Rebuild(home *state.Home) {
	c.do(func() { c.rebuild(home) })
}

// Reload rebuilds the home only when model differs from the one last
// applied. Live device state and history survive unrelated config edits.
func (c *Controller) Reload(model Model) bool {
	changed := false
	c.do(func() {
		if reflect.DeepEqual(model, c.model) {
			Logger.Debug().Msg("device model unchanged, keeping home and history")
			return
		}
		c.model = model
		c.rebuild(state.BuildHome(model))
		changed = true
	})
	return changed
}

func (c *Controller) rebuild(home *state.Home) {
	if dropped := c.invoker.HistorySize(); dropped > 0 {
		Logger.Warn().Msgf("device model reloaded, discarding %d undo entries", dropped)
	}
	c.invoker = command.NewInvoker()
	c.attach(home)
	for _, d := range home.Devices() {
		c.deviceChanged(d)
	}
}

// PublishAll pushes the retained state of every device.
func (c *Controller) PublishAll() {
	c.do(func() {
		for _, d := range c.home.Devices() {
			c.publish(StateTopic(d.Name()), true, d.Status())
		}
	})
}

// RunScript feeds instructions through Handle in order, stopping at the
// first one the controller could not accept.
func (c *Controller) RunScript(lines []string) error {
	for _, line := range lines {
		reply := c.Handle(line)
		if !reply.OK && reply.Message == errControllerStopped.Error() {
			return errControllerStopped
		}
		Logger.Info().Msgf("%s -> %s (depth %d)", line, reply.Message, reply.Depth)
	}
	return nil
}
