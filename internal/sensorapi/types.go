package sensorapi

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ecodetect/ecodetect/internal/estimator"
)

// Vector3 is a three-axis IMU reading. The backend serves it as a
// [x, y, z] array while the device publisher writes {"x":..,"y":..,"z":..}.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// UnmarshalJSON accepts both the array and the object encoding.
func (v *Vector3) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		var arr []float64
		if err := json.Unmarshal(data, &arr); err != nil {
			return err
		}
		if len(arr) != 3 {
			return fmt.Errorf("%w: vector has %d components", ErrMalformedResponse, len(arr))
		}
		v.X, v.Y, v.Z = arr[0], arr[1], arr[2]
		return nil
	}
	type plain Vector3
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*v = Vector3(p)
	return nil
}

// IMU groups the raw inertial measurements.
type IMU struct {
	Acceleration Vector3 `json:"acceleration"`
	Gyroscope    Vector3 `json:"gyroscope"`
	Magnetometer Vector3 `json:"magnetometer"`
}

// SensorReading is the /api/sensor-data payload.
type SensorReading struct {
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
	Pressure    *float64 `json:"pressure"`
	Altitude    *float64 `json:"altitude"`
	FlowRate    *float64 `json:"flow_rate,omitempty"`
	IMU         *IMU     `json:"imu,omitempty"`
	Timestamp   string   `json:"timestamp"`
	Location    string   `json:"location,omitempty"`
	DeviceID    string   `json:"device_id,omitempty"`
}

// Snapshot projects the reading onto the fields the estimator consumes.
func (r SensorReading) Snapshot() estimator.SensorSnapshot {
	return estimator.SensorSnapshot{
		Temperature: r.Temperature,
		Humidity:    r.Humidity,
		Pressure:    r.Pressure,
		Altitude:    r.Altitude,
	}
}

// decodeHistory accepts either a bare JSON array or an object wrapping the
// array in a "data" field.
func decodeHistory(raw []byte) ([]estimator.MovementSample, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '{' {
		var wrapped struct {
			Data []estimator.MovementSample `json:"data"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return nil, err
		}
		return wrapped.Data, nil
	}
	var samples []estimator.MovementSample
	if err := json.Unmarshal(raw, &samples); err != nil {
		return nil, err
	}
	return samples, nil
}

// decodeEmissions rejects null and bodies that carry no total_co2 field.
func decodeEmissions(raw []byte) (*estimator.EmissionsResult, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	if total, ok := fields["total_co2"]; !ok || string(bytes.TrimSpace(total)) == "null" {
		return nil, errMissingTotal
	}
	var out estimator.EmissionsResult
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
