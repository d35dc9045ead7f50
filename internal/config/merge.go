package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Top-level YAML keys that can be overlaid.
const (
	keyVersion   = "version"
	keyAPI       = "api"
	keyEstimator = "estimator"
	keyMonitor   = "monitor"
	keyMQTT      = "mqtt"
	keyServer    = "server"
	keyLogging   = "logging"
	keyOutput    = "output"
)

// knownTopLevelKeys lists the keys ShallowMergeYAML applies. Others are ignored.
//
//nolint:gochecknoglobals // lookup table
var knownTopLevelKeys = map[string]bool{
	keyVersion:   true,
	keyAPI:       true,
	keyEstimator: true,
	keyMonitor:   true,
	keyMQTT:      true,
	keyServer:    true,
	keyLogging:   true,
	keyOutput:    true,
}

// ShallowMergeYAML overlays the top-level sections present in overlayPath
// onto target. A present section replaces the whole target section; absent
// sections are left alone.
func ShallowMergeYAML(target *Config, overlayPath string) error {
	if target == nil {
		return errors.New("nil target *Config in ShallowMergeYAML")
	}

	data, err := os.ReadFile(overlayPath)
	if err != nil {
		return fmt.Errorf("reading overlay file %s: %w", overlayPath, err)
	}

	var overlay map[string]yaml.Node
	if err = yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parsing overlay YAML from %s: %w", overlayPath, err)
	}

	for key, node := range overlay {
		if !knownTopLevelKeys[key] {
			continue
		}
		if err = unmarshalSection(target, key, &node); err != nil {
			return fmt.Errorf("applying overlay section %q: %w", key, err)
		}
	}
	return nil
}

// unmarshalSection decodes node into a zero value before assigning it, so
// maps in the section are replaced rather than merged.
func unmarshalSection(target *Config, key string, node *yaml.Node) error {
	switch key {
	case keyVersion:
		var v string
		if err := node.Decode(&v); err != nil {
			return err
		}
		if err := checkSchemaVersion(v); err != nil {
			return err
		}
		target.Version = v
	case keyAPI:
		return decodeInto(node, &target.API)
	case keyEstimator:
		return decodeInto(node, &target.Estimator)
	case keyMonitor:
		return decodeInto(node, &target.Monitor)
	case keyMQTT:
		return decodeInto(node, &target.MQTT)
	case keyServer:
		return decodeInto(node, &target.Server)
	case keyLogging:
		return decodeInto(node, &target.Logging)
	case keyOutput:
		return decodeInto(node, &target.Output)
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

func decodeInto[T any](node *yaml.Node, dst *T) error {
	var v T
	if err := node.Decode(&v); err != nil {
		return err
	}
	*dst = v
	return nil
}
