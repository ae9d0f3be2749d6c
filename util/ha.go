package util

import (
	"encoding/json"
	"strings"

	MQTT "github.com/eclipse/paho.mqtt.golang"
)

type HAAvdvertisementAvailability struct {
	Topic               string `json:"topic"`
	PayloadAvailable    string `json:"payload_available"`
	PayloadNotAvailable string `json:"payload_not_available"`
}

type HADeviceSpec struct {
	Name        string   `json:"name"`
	Identifiers []string `json:"ids"`
}

type HAAdvertisement struct { //nolint:govet // struct layout optimized for JSON field order
	HAAvdvertisementAvailability []HAAvdvertisementAvailability `json:"availability"`
	Device                       HADeviceSpec                   `json:"device"`
	UniqueID                     string                         `json:"uniq_id"`
	Name                         string                         `json:"name"`
	StateTopic                   string                         `json:"state_topic"`
	PayloadOn                    string                         `json:"payload_on,omitempty"`
	PayloadOff                   string                         `json:"payload_off,omitempty"`
	UnitOfMeasurement            string                         `json:"unit_of_measurement,omitempty"`
	DeviceClass                  string                         `json:"device_class"`
	Platform                     string                         `json:"platform"`
	Qos                          int                            `json:"qos"`
}

// haKind maps a device kind to the discovery platform, device class and the
// on/off payloads its state topic carries.
var haKind = map[string]struct {
	platform, class, on, off, unit string
}{
	"light":      {"binary_sensor", "light", "ON", "OFF", ""},
	"door":       {"binary_sensor", "door", "OPEN", "CLOSED", ""},
	"tv":         {"binary_sensor", "power", "ON", "OFF", ""},
	"alarm":      {"binary_sensor", "safety", "ARMED", "DISARMED", ""},
	"thermostat": {"sensor", "temperature", "", "", "°C"},
}

func (ha HAAdvertisement) ToJson() string {
	data, err := json.Marshal(ha)
	if err != nil {
		Logger.Error().Msgf("Error marshalling HAAdvertisement: %v", err)
		return ""
	}
	return string(data)
}

// ConstructHAAdvertisement builds the discovery document for one device. ok is
// false for kinds Home Assistant has no mapping for.
func ConstructHAAdvertisement(name, kind, stateTopic string) (ha HAAdvertisement, ok bool) {
	k, ok := haKind[strings.ToLower(kind)]
	if !ok {
		return HAAdvertisement{}, false
	}
	id := strings.ToLower(kind) + "-" + strings.ToLower(name)
	return HAAdvertisement{
		Name:              name,
		StateTopic:        stateTopic,
		PayloadOn:         k.on,
		PayloadOff:        k.off,
		UnitOfMeasurement: k.unit,
		HAAvdvertisementAvailability: []HAAvdvertisementAvailability{
			{
				Topic:               AvailabilityTopic,
				PayloadAvailable:    "online",
				PayloadNotAvailable: "offline",
			},
		},
		Qos:         0,
		UniqueID:    "home_commander-" + id,
		DeviceClass: k.class,
		Platform:    k.platform,
		Device: HADeviceSpec{
			Name:        "home_commander",
			Identifiers: []string{"home_commander"},
		},
	}, true
}

func HAConfigTopic(platform, name string) string {
	return "homeassistant/" + platform + "/" + strings.ToLower(name) + "/state/config"
}

func AdvertiseHA(devices []DeviceSpec, client MQTT.Client) {
	for _, device := range devices {
		ha, ok := ConstructHAAdvertisement(device.Name, device.Kind, StateTopic(device.Name))
		if !ok {
			Logger.Warn().Msgf("no discovery mapping for %s (%s)", device.Name, device.Kind)
			continue
		}
		if token := client.Publish(HAConfigTopic(ha.Platform, device.Name), 0, true, ha.ToJson()); token.Wait() && token.Error() != nil {
			Logger.Error().Msgf("Error Publishing: %v", token.Error())
		}
	}
}
