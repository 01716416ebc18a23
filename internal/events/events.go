// Package events defines the telemetry wire format published by field devices and the
// dropped-telemetry record published for operators.
package events

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Level is the accident severity reported by a device.
type Level string

const (
	LevelLow  Level = "low"
	LevelHigh Level = "high"
)

// maxLevelLength matches the width of history.level.
const maxLevelLength = 32

// ParseLevel normalizes a device-reported level. Values outside {low, high} are accepted
// so newer firmware can report finer levels without a relay release.
func ParseLevel(s string) (Level, error) {
	level := strings.ToLower(strings.TrimSpace(s))
	if level == "" {
		return "", fmt.Errorf("level is required")
	}
	if len(level) > maxLevelLength {
		return "", fmt.Errorf("level %q exceeds %d characters", level, maxLevelLength)
	}
	return Level(level), nil
}

// IsHigh reports whether the level is the high-severity level.
func (l Level) IsHigh() bool {
	return l == LevelHigh
}

func (l Level) String() string {
	return string(l)
}

// Coordinate is a decimal-degree value. Devices send it either as a JSON number or as a
// numeric string.
type Coordinate float64

// UnmarshalJSON accepts 13.75 and "13.75".
func (c *Coordinate) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return fmt.Errorf("coordinate is null")
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		data = []byte(strings.TrimSpace(s))
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid coordinate %q: %w", string(data), err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("invalid coordinate %q: not a finite number", string(data))
	}
	*c = Coordinate(v)
	return nil
}

// Telemetry is the device payload. Field names are the devices' wire names and must not change.
type Telemetry struct {
	DeviceID       string      `json:"Device_ID"`
	Latitude       *Coordinate `json:"Latitude"`
	Longitude      *Coordinate `json:"Longitude"`
	LevelDetection string      `json:"Level_detection"`
}

// Accident is a validated telemetry message.
type Accident struct {
	DeviceID  string
	Latitude  float64
	Longitude float64
	Level     Level
}

// ParseTelemetry decodes and validates a raw device payload. Any device-supplied clock
// field is ignored; the relay stamps events itself.
func ParseTelemetry(raw []byte) (*Accident, error) {
	var t Telemetry
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("failed to unmarshal telemetry: %w", err)
	}
	return t.Validate()
}

// Validate converts the wire struct into an Accident.
func (t *Telemetry) Validate() (*Accident, error) {
	deviceID := strings.TrimSpace(t.DeviceID)
	if deviceID == "" {
		return nil, fmt.Errorf("Device_ID is required")
	}
	if t.Latitude == nil {
		return nil, fmt.Errorf("Latitude is required")
	}
	if t.Longitude == nil {
		return nil, fmt.Errorf("Longitude is required")
	}
	lat, lon := float64(*t.Latitude), float64(*t.Longitude)
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return nil, fmt.Errorf("Latitude %v out of range", lat)
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return nil, fmt.Errorf("Longitude %v out of range", lon)
	}
	level, err := ParseLevel(t.LevelDetection)
	if err != nil {
		return nil, fmt.Errorf("Level_detection: %w", err)
	}
	return &Accident{
		DeviceID:  deviceID,
		Latitude:  lat,
		Longitude: lon,
		Level:     level,
	}, nil
}

// DropReason classifies why a telemetry message was not relayed.
type DropReason string

const (
	DropMalformed     DropReason = "malformed"
	DropUnknownDevice DropReason = "unknown_device"
	DropResolveFailed DropReason = "resolve_failed"
)

// TelemetryDropped is published to the dropped-telemetry topic.
type TelemetryDropped struct {
	Reason    DropReason `json:"reason"`
	DeviceID  string     `json:"device_id,omitempty"`
	Error     string     `json:"error"`
	Payload   string     `json:"payload"`
	DroppedAt int64      `json:"dropped_at"`
}

// NewTelemetryDropped builds a dropped record stamped with the given time.
func NewTelemetryDropped(reason DropReason, deviceID string, payload []byte, cause error, at time.Time) *TelemetryDropped {
	d := &TelemetryDropped{
		Reason:    reason,
		DeviceID:  deviceID,
		Payload:   string(payload),
		DroppedAt: at.Unix(),
	}
	if cause != nil {
		d.Error = cause.Error()
	}
	return d
}
