package telemetry

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/resilient-edge/resilient-edge/adapt"
)

// DeviceClass partitions the simulated fleet by role.
type DeviceClass string

const (
	ClassEdge     DeviceClass = "edge"
	ClassSensor   DeviceClass = "sensor"
	ClassActuator DeviceClass = "actuator"
)

// classRange bounds the initial battery and load draw for one class.
// Edge nodes run hot and well-powered, sensors sip, actuators idle on small
// batteries.
type classRange struct {
	batteryMin, batteryMax float64
	loadMin, loadMax       float64
}

var classRanges = map[DeviceClass]classRange{
	ClassEdge:     {batteryMin: 0.7, batteryMax: 1.0, loadMin: 0.3, loadMax: 0.7},
	ClassSensor:   {batteryMin: 0.4, batteryMax: 0.8, loadMin: 0.1, loadMax: 0.4},
	ClassActuator: {batteryMin: 0.2, batteryMax: 0.6, loadMin: 0.05, loadMax: 0.2},
}

// Device is one simulated fleet member.
type Device struct {
	ID      string
	Class   DeviceClass
	Battery float64
	Load    float64
}

// Fleet holds the simulated devices and drifts them per tick.
type Fleet struct {
	devices []Device
	rng     *rand.Rand
}

// NewFleet builds the configured device mix, drawing each device's starting
// battery and load from its class range.
func NewFleet(cfg adapt.TelemetryConfig, rng *rand.Rand) *Fleet {
	f := &Fleet{rng: rng}
	f.spawn(ClassEdge, cfg.EdgeNodes)
	f.spawn(ClassSensor, cfg.Sensors)
	f.spawn(ClassActuator, cfg.Actuators)
	return f
}

func (f *Fleet) spawn(class DeviceClass, n int) {
	r := classRanges[class]
	for i := 0; i < n; i++ {
		f.devices = append(f.devices, Device{
			ID:      fmt.Sprintf("%s_%02d", class, i),
			Class:   class,
			Battery: uniform(f.rng, r.batteryMin, r.batteryMax),
			Load:    uniform(f.rng, r.loadMin, r.loadMax),
		})
	}
}

// Step drifts every device one tick: batteries drain in proportion to load,
// loads wander. Batteries never drop below a residual so the fleet keeps
// reporting.
func (f *Fleet) Step() {
	for i := range f.devices {
		d := &f.devices[i]
		drain := 0.0002 + 0.001*d.Load
		d.Battery = math.Max(0.02, d.Battery-drain)
		d.Load = clamp01(d.Load + f.rng.NormFloat64()*0.02)
	}
}

// SystemLoad is the fleet-wide mean load in [0,1].
func (f *Fleet) SystemLoad() float64 {
	return f.mean(func(d Device) float64 { return d.Load })
}

// EnergyLevel is the fleet-wide mean battery in [0,1].
func (f *Fleet) EnergyLevel() float64 {
	return f.mean(func(d Device) float64 { return d.Battery })
}

func (f *Fleet) mean(field func(Device) float64) float64 {
	if len(f.devices) == 0 {
		return 0
	}
	sum := 0.0
	for _, d := range f.devices {
		sum += field(d)
	}
	return sum / float64(len(f.devices))
}

// Size returns the device count.
func (f *Fleet) Size() int {
	return len(f.devices)
}

// Devices returns a copy of the fleet's current state.
func (f *Fleet) Devices() []Device {
	out := make([]Device, len(f.devices))
	copy(out, f.devices)
	return out
}

func uniform(rng *rand.Rand, min, max float64) float64 {
	return min + rng.Float64()*(max-min)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
