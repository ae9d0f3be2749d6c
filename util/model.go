package util

import (
	"fmt"
	"strings"
)

type Model struct {
	Devices []DeviceSpec `mapstructure:"devices"`
}

// DeviceSpec describes one configured device. Initial is the starting set
// point for thermostats and ignored for everything else.
type DeviceSpec struct {
	Name    string `mapstructure:"name"`
	Kind    string `mapstructure:"kind"`
	Initial int    `mapstructure:"initial"`
}

func (m *Model) BuildModel() error {
	err := Config.UnmarshalKey("model", m)
	if err != nil {
		Logger.Error().Msgf("error unmarshaling model: %v", err)
		return fmt.Errorf("unmarshal model: %w", err)
	}
	return nil
}

// StateTopic is where the retained state of a device is published.
func StateTopic(device string) string {
	return Config.GetString("state_topic_prefix") + "/" + strings.ToLower(device) + "/state"
}
