package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	MQTT "github.com/eclipse/paho.mqtt.golang"
	. "github.com/elijahnyp/home_commander/util"
)

// demoScript runs five commands, then undoes 2, 10 and 1.
var demoScript = []string{
	"light_on LivingRoom",
	"temp_up Thermostat 3",
	"tv_toggle TV",
	"alarm_toggle Alarm",
	"door_open FrontDoor",
	"undo 2",
	"undo 10",
	"undo",
}

var demoModel = Model{Devices: []DeviceSpec{
	{Name: "LivingRoom", Kind: "light"},
	{Name: "FrontDoor", Kind: "door"},
	{Name: "Thermostat", Kind: "thermostat", Initial: 20},
	{Name: "TV", Kind: "tv"},
	{Name: "Alarm", Kind: "alarm"},
}}

// loadModel decodes the configured devices, falling back to the demo set
// when demo mode is on and nothing is configured.
func loadModel() Model {
	var model Model
	if err := model.BuildModel(); err != nil {
		Logger.Error().Msgf("Error building model: %v", err)
	}
	if len(model.Devices) == 0 && Config.GetBool("demo") {
		Logger.Info().Msg("no devices configured, using demo model")
		model = demoModel
	}
	return model
}

// advertise publishes discovery for the devices the controller is driving
// right now, which may differ from the model mid-reload.
func advertise(client MQTT.Client) {
	devices, _ := commander.Status()
	specs := make([]DeviceSpec, 0, len(devices))
	for _, d := range devices {
		specs = append(specs, DeviceSpec{Name: d.Name, Kind: string(d.Kind)})
	}
	AdvertiseHA(specs, client)
}

func subscribeCommandTopic() {
	RegisterMQTTSubscription(Config.GetString("command_topic"), commander.OnMessage)
}

func main() {
	LogInit("info")
	SetupConfig()

	commander = NewModelController(loadModel())
	commander.publish = Publish
	commander.broadcast = wsHub.BroadcastUpdate

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go commander.Run(ctx)

	RegisterNewConfigListener(func() { LogInit(Config.GetString("log_level")) })
	RegisterNewConfigListener(func() { commander.Reload(loadModel()) })
	RegisterNewConfigListener(subscribeCommandTopic)
	RegisterMQTTConnectHook("haadvertise", func(client MQTT.Client) {
		go advertise(client)
	})
	RegisterMQTTConnectHook("state", func(client MQTT.Client) {
		go commander.PublishAll()
	})
	LogInit(Config.GetString("log_level"))
	subscribeCommandTopic()
	MqttInit()
	RegisterNewConfigListener(MqttInit)

	monitor := NewMonitorServer()
	monitor.AddHandler("/api/status", APISystemStatus)
	monitor.AddHandler("/api/history", APIHistory)
	monitor.AddHandler("/api/command", APICommand)
	monitor.AddHandler("/ws", ServeWebSocket)
	if err := monitor.Start(); err != nil {
		Logger.Error().Msgf("Error starting monitor server: %v", err)
	}
	RegisterNewConfigListener(monitor.Restart)

	var heartbeat Heartbeat
	heartbeat.Add(func() { Publish(AvailabilityTopic, true, "online") })
	heartbeat.Add(func() {
		if Client != nil && Client.IsConnected() {
			advertise(Client)
		}
	})
	heartbeat.Add(commander.PublishAll)
	heartbeat.Load()
	heartbeat.Start()
	RegisterNewConfigListener(func() {
		heartbeat.Load()
		heartbeat.Start()
	})

	Logger.Info().Msg("ready")
	if Config.GetBool("demo") {
		if err := commander.RunScript(demoScript); err != nil {
			Logger.Error().Msgf("demo aborted: %v", err)
		}
	}

	<-ctx.Done()
	Logger.Info().Msg("shutting down")
	heartbeat.Stop()
	monitor.Stop()
	if Client != nil && Client.IsConnected() {
		Client.Publish(AvailabilityTopic, 0, true, "offline").Wait()
		Client.Disconnect(1000)
	}
}
