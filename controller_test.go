package main

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/elijahnyp/home_commander/state"
	. "github.com/elijahnyp/home_commander/util"
	"github.com/spf13/viper"
)

type published struct {
	topic    string
	payload  string
	retained bool
}

type recorder struct {
	mu       sync.Mutex
	messages []published
	updates  []string
}

func (r *recorder) publish(topic string, retained bool, payload string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, published{topic: topic, payload: payload, retained: retained})
}

func (r *recorder) broadcast(messageType string, data interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, messageType)
}

func (r *recorder) last(topic string) (published, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.messages) - 1; i >= 0; i-- {
		if r.messages[i].topic == topic {
			return r.messages[i], true
		}
	}
	return published{}, false
}

// freshConfig gives a test its own viper so overrides do not leak.
func freshConfig(t *testing.T) {
	t.Helper()
	prev := Config
	Config = viper.New()
	Config.SetDefault("state_topic_prefix", "home")
	Config.SetDefault("reply_topic", "home/command/reply")
	t.Cleanup(func() { Config = prev })
}

func newTestController(t *testing.T) (*Controller, *recorder) {
	t.Helper()
	freshConfig(t)

	c := NewModelController(demoModel)
	rec := &recorder{}
	c.publish = rec.publish
	c.broadcast = rec.broadcast

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go c.Run(ctx)
	return c, rec
}

func statusOf(devices []state.DeviceStatus, name string) string {
	for _, d := range devices {
		if d.Name == name {
			return d.Status
		}
	}
	return ""
}

func TestController_HandleScenario(t *testing.T) {
	c, _ := newTestController(t)

	tests := []struct {
		instruction string
		ok          bool
		depth       int
		undone      int
	}{
		{"light_on LivingRoom", true, 1, 0},
		{"door_open FrontDoor", true, 2, 0},
		{"tv_toggle TV", true, 3, 0},
		{"undo 2", true, 1, 2},
		{"undo 1 1", false, 1, 0},
		{"light_on LivingRoom now", false, 1, 0},
		{"undo 0", false, 1, 0},
		{"undo -1", false, 1, 0},
		{"undo many", false, 1, 0},
		{"undo 10", true, 0, 1},
		{"undo", true, 0, 0},
		{"light_on Garage", false, 0, 0},
	}

	for _, tt := range tests {
		reply := c.Handle(tt.instruction)
		if reply.OK != tt.ok {
			t.Errorf("Handle(%q).OK = %v, expected %v (%s)", tt.instruction, reply.OK, tt.ok, reply.Message)
		}
		if reply.Depth != tt.depth {
			t.Errorf("Handle(%q).Depth = %d, expected %d", tt.instruction, reply.Depth, tt.depth)
		}
		if reply.Undone != tt.undone {
			t.Errorf("Handle(%q).Undone = %d, expected %d", tt.instruction, reply.Undone, tt.undone)
		}
	}

	devices, depth := c.Status()
	if depth != 0 {
		t.Errorf("Status() depth = %d, expected 0", depth)
	}
	for name, expected := range map[string]string{"LivingRoom": "OFF", "FrontDoor": "CLOSED", "TV": "OFF"} {
		if got := statusOf(devices, name); got != expected {
			t.Errorf("%s status = %s, expected %s", name, got, expected)
		}
	}
}

func TestController_UndoManyLeavesOlderCommands(t *testing.T) {
	c, _ := newTestController(t)

	for _, line := range []string{"light_on LivingRoom", "door_open FrontDoor", "tv_toggle TV"} {
		c.Handle(line)
	}
	c.Handle("undo 2")

	devices, depth := c.Status()
	if depth != 1 {
		t.Errorf("depth = %d, expected 1", depth)
	}
	if statusOf(devices, "LivingRoom") != "ON" || statusOf(devices, "FrontDoor") != "CLOSED" || statusOf(devices, "TV") != "OFF" {
		t.Errorf("devices = %+v, expected light on, door closed, TV off", devices)
	}
}

func TestController_ThermostatSnapshot(t *testing.T) {
	c, _ := newTestController(t)

	steps := []struct {
		instruction string
		expected    string
	}{
		{"temp_up Thermostat 3", "23"},
		{"undo", "20"},
		{"temp_up Thermostat 3", "23"},
		{"temp_up Thermostat 3", "26"},
		{"undo", "23"},
	}

	for _, step := range steps {
		c.Handle(step.instruction)
		devices, _ := c.Status()
		if got := statusOf(devices, "Thermostat"); got != step.expected {
			t.Errorf("after %q thermostat = %s, expected %s", step.instruction, got, step.expected)
		}
	}
}

func TestController_MacroUndoneAsOne(t *testing.T) {
	c, _ := newTestController(t)

	reply := c.Handle("light_on LivingRoom; alarm_toggle Alarm")
	if !reply.OK || reply.Depth != 1 {
		t.Fatalf("macro reply = %+v, expected ok at depth 1", reply)
	}
	reply = c.Handle("undo")
	if reply.Undone != 1 {
		t.Errorf("undo reply = %+v, expected one step", reply)
	}
	devices, _ := c.Status()
	if statusOf(devices, "LivingRoom") != "OFF" || statusOf(devices, "Alarm") != "DISARMED" {
		t.Errorf("devices = %+v, expected macro fully reverted", devices)
	}
}

func TestController_StatusReply(t *testing.T) {
	c, _ := newTestController(t)

	reply := c.Handle("status")
	if !reply.OK || len(reply.Devices) != 5 {
		t.Errorf("status reply = %+v, expected 5 devices", reply)
	}
}

func TestController_PublishesState(t *testing.T) {
	c, rec := newTestController(t)

	c.Handle("door_open FrontDoor")

	msg, ok := rec.last("home/frontdoor/state")
	if !ok {
		t.Fatal("expected a publish on home/frontdoor/state")
	}
	if msg.payload != "OPEN" || !msg.retained {
		t.Errorf("state publish = %+v, expected retained OPEN", msg)
	}

	c.Handle("undo")
	if msg, _ := rec.last("home/frontdoor/state"); msg.payload != "CLOSED" {
		t.Errorf("state after undo = %s, expected CLOSED", msg.payload)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.updates) == 0 {
		t.Error("expected websocket updates to be broadcast")
	}
}

type mockMessage struct {
	topic   string
	payload []byte
}

func (m *mockMessage) Duplicate() bool   { return false }
func (m *mockMessage) Qos() byte         { return 0 }
func (m *mockMessage) Retained() bool    { return false }
func (m *mockMessage) Topic() string     { return m.topic }
func (m *mockMessage) MessageID() uint16 { return 0 }
func (m *mockMessage) Payload() []byte   { return m.payload }
func (m *mockMessage) Ack()              {}

func TestController_OnMessage(t *testing.T) {
	c, rec := newTestController(t)

	c.OnMessage(nil, &mockMessage{topic: "home/command", payload: []byte("light_on LivingRoom")})

	msg, ok := rec.last("home/command/reply")
	if !ok {
		t.Fatal("expected a reply publish")
	}
	var reply Reply
	if err := json.Unmarshal([]byte(msg.payload), &reply); err != nil {
		t.Fatalf("reply is not JSON: %v", err)
	}
	if !reply.OK || reply.Message != "Turn on LivingRoom" || reply.Depth != 1 {
		t.Errorf("reply = %+v", reply)
	}
}

func TestController_Rebuild(t *testing.T) {
	c, rec := newTestController(t)

	c.Handle("light_on LivingRoom")
	c.Rebuild(state.BuildHome(Model{Devices: []DeviceSpec{{Name: "Porch", Kind: "light"}}}))

	devices, depth := c.Status()
	if depth != 0 {
		t.Errorf("depth after rebuild = %d, expected 0", depth)
	}
	if len(devices) != 1 || devices[0].Name != "Porch" {
		t.Errorf("devices after rebuild = %+v", devices)
	}
	if _, ok := rec.last("home/porch/state"); !ok {
		t.Error("rebuild should publish the new devices' state")
	}
	if reply := c.Handle("light_on LivingRoom"); reply.OK {
		t.Error("old devices should be gone after rebuild")
	}
}

func TestController_Stopped(t *testing.T) {
	c := NewController(state.BuildHome(demoModel))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()
	cancel()
	<-done

	reply := c.Handle("light_on LivingRoom")
	if reply.OK || reply.Message != errControllerStopped.Error() {
		t.Errorf("Handle after stop = %+v, expected stopped reply", reply)
	}
	if err := c.RunScript(demoScript); err != errControllerStopped {
		t.Errorf("RunScript after stop = %v, expected %v", err, errControllerStopped)
	}
}

func TestController_RunScriptDemo(t *testing.T) {
	c, _ := newTestController(t)

	if err := c.RunScript(demoScript); err != nil {
		t.Fatalf("RunScript returned error: %v", err)
	}
	devices, depth := c.Status()
	if depth != 0 {
		t.Errorf("depth after demo = %d, expected 0", depth)
	}
	for _, d := range devices {
		if d.Status != map[string]string{
			"LivingRoom": "OFF", "FrontDoor": "CLOSED", "Thermostat": "20", "TV": "OFF", "Alarm": "DISARMED",
		}[d.Name] {
			t.Errorf("%s = %s after demo, expected initial state", d.Name, d.Status)
		}
	}
}

func TestLoadModel_Config(t *testing.T) {
	tests := []struct {
		name     string
		model    map[string]interface{}
		demo     bool
		expected int
	}{
		{"Configured devices", map[string]interface{}{"devices": []map[string]interface{}{{"name": "Porch", "kind": "light"}}}, false, 1},
		{"Demo fallback", map[string]interface{}{}, true, len(demoModel.Devices)},
		{"Nothing configured", map[string]interface{}{}, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			freshConfig(t)
			Config.Set("model", tt.model)
			Config.Set("demo", tt.demo)
			if got := len(loadModel().Devices); got != tt.expected {
				t.Errorf("loadModel() has %d devices, expected %d", got, tt.expected)
			}
		})
	}
}

func TestController_ReloadSameModelKeepsHistory(t *testing.T) {
	c, _ := newTestController(t)
	Config.Set("demo", true)

	c.Handle("temp_up Thermostat 3")
	if c.Reload(loadModel()) {
		t.Error("Reload with an unchanged model should not rebuild")
	}

	devices, depth := c.Status()
	if depth != 1 {
		t.Errorf("depth after unchanged reload = %d, expected 1", depth)
	}
	if got := statusOf(devices, "Thermostat"); got != "23" {
		t.Errorf("Thermostat after unchanged reload = %s, expected 23", got)
	}
	if reply := c.Handle("undo"); !reply.OK || reply.Undone != 1 {
		t.Errorf("undo after unchanged reload = %+v, expected one step", reply)
	}
}

func TestController_ReloadChangedModel(t *testing.T) {
	c, rec := newTestController(t)
	Config.Set("model", map[string]interface{}{
		"devices": []map[string]interface{}{{"name": "Porch", "kind": "light"}},
	})

	c.Handle("light_on LivingRoom")
	if !c.Reload(loadModel()) {
		t.Fatal("Reload with a new model should rebuild")
	}

	devices, depth := c.Status()
	if depth != 0 {
		t.Errorf("depth after reload = %d, expected 0", depth)
	}
	if len(devices) != 1 || devices[0].Name != "Porch" {
		t.Errorf("devices after reload = %+v", devices)
	}
	if _, ok := rec.last("home/porch/state"); !ok {
		t.Error("reload should publish the new devices' state")
	}
	if c.Reload(loadModel()) {
		t.Error("second Reload with the same model should not rebuild")
	}
}
