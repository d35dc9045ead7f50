package ingest

import (
	"encoding/json"
	"fmt"

	"github.com/ecodetect/ecodetect/internal/sensorapi"
)

// DecodePayload decodes one device message. Older publishers misspell the
// gyroscope key as "agyroscope"; both spellings are accepted.
func DecodePayload(payload []byte) (sensorapi.SensorReading, error) {
	var reading sensorapi.SensorReading
	if err := json.Unmarshal(payload, &reading); err != nil {
		return sensorapi.SensorReading{}, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	var legacy struct {
		IMU *struct {
			Gyroscope  *sensorapi.Vector3 `json:"gyroscope"`
			AGyroscope *sensorapi.Vector3 `json:"agyroscope"`
		} `json:"imu"`
	}
	if err := json.Unmarshal(payload, &legacy); err == nil && legacy.IMU != nil &&
		legacy.IMU.Gyroscope == nil && legacy.IMU.AGyroscope != nil && reading.IMU != nil {
		reading.IMU.Gyroscope = *legacy.IMU.AGyroscope
	}

	if reading.Temperature == nil && reading.Humidity == nil && reading.Pressure == nil && reading.IMU == nil {
		return sensorapi.SensorReading{}, fmt.Errorf("%w: no sensor fields", ErrInvalidPayload)
	}
	return reading, nil
}
