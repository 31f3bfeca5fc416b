// Package sensors decodes Bluetooth GATT fitness characteristics (Heart Rate
// Measurement, Cycling Power Measurement and CSC Measurement) into heart rate,
// power and cadence readings.
//
// Two byte layouts are supported. ProfileSIG follows the Bluetooth SIG
// characteristic definitions: little-endian fields with the flag bits defined
// by each profile. ProfileLegacy reproduces the frames of the first browser
// trainer and its mock sensors: big-endian fields, bit 7 (0x80) as the only
// flag and fixed offsets.
package sensors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedFrame is returned when a buffer is too short for the
	// fields its flags announce.
	ErrMalformedFrame = errors.New("malformed frame")

	// ErrUnknownCharacteristic is returned by Decode for notifications on a
	// characteristic the decoder does not handle.
	ErrUnknownCharacteristic = errors.New("unknown characteristic")
)

// Characteristic is a 16-bit GATT characteristic UUID.
type Characteristic uint16

const (
	HeartRateMeasurement    Characteristic = 0x2A37
	CyclingPowerMeasurement Characteristic = 0x2A63
	CSCMeasurement          Characteristic = 0x2A5B
)

func (c Characteristic) String() string {
	switch c {
	case HeartRateMeasurement:
		return "heart_rate_measurement"
	case CyclingPowerMeasurement:
		return "cycling_power_measurement"
	case CSCMeasurement:
		return "csc_measurement"
	default:
		return fmt.Sprintf("0x%04x", uint16(c))
	}
}

// Profile selects the byte layout of the three characteristics.
type Profile int

const (
	ProfileSIG Profile = iota
	ProfileLegacy
)

func (p Profile) String() string {
	switch p {
	case ProfileSIG:
		return "sig"
	case ProfileLegacy:
		return "legacy"
	default:
		return fmt.Sprintf("profile(%d)", int(p))
	}
}

// ParseProfile returns the Profile named by s ("sig" or "legacy", case
// insensitive). An empty string selects ProfileSIG.
func ParseProfile(s string) (Profile, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sig":
		return ProfileSIG, nil
	case "legacy":
		return ProfileLegacy, nil
	default:
		return 0, fmt.Errorf("unsupported frame profile %q: expected sig or legacy", s)
	}
}

// Notification is a single characteristic value change delivered by a
// sensor.
type Notification struct {
	Characteristic Characteristic
	Payload        []byte
}

// Decoder turns notification payloads into readings. It owns the cadence
// state needed to derive rpm from consecutive crank events and must only be
// used from one goroutine per sensor stream.
type Decoder struct {
	profile Profile
	cadence CadenceState
}

// NewDecoder returns a Decoder for the given byte layout.
func NewDecoder(profile Profile) *Decoder {
	return &Decoder{profile: profile}
}

// Profile returns the byte layout the decoder expects.
func (d *Decoder) Profile() Profile { return d.profile }

// CadenceState returns a copy of the rolling crank-event state.
func (d *Decoder) CadenceState() CadenceState { return d.cadence }

// Reset discards the cadence state, as if the decoder had just been created.
func (d *Decoder) Reset() { d.cadence = CadenceState{} }

// Decode dispatches a notification to the matching decoder. The returned
// bool is false when the frame carries no reading to emit: a cadence frame
// without crank data, or the first crank event after a reset.
func (d *Decoder) Decode(n Notification) (Sample, bool, error) {
	switch n.Characteristic {
	case HeartRateMeasurement:
		bpm, err := d.DecodeHeartRate(n.Payload)
		if err != nil {
			return Sample{}, false, err
		}
		return Sample{Metric: MetricHeartRate, Value: float64(bpm)}, true, nil

	case CyclingPowerMeasurement:
		watts, err := d.DecodePower(n.Payload)
		if err != nil {
			return Sample{}, false, err
		}
		return Sample{Metric: MetricPower, Value: float64(watts)}, true, nil

	case CSCMeasurement:
		rpm, ok, err := d.DecodeCadence(n.Payload)
		if err != nil || !ok {
			return Sample{}, false, err
		}
		return Sample{Metric: MetricCadence, Value: rpm}, true, nil

	default:
		return Sample{}, false, fmt.Errorf("%w: %s", ErrUnknownCharacteristic, n.Characteristic)
	}
}

func checkLength(c Characteristic, buf []byte, want int) error {
	if len(buf) < want {
		return fmt.Errorf("%w: %s needs %d bytes, got %d", ErrMalformedFrame, c, want, len(buf))
	}
	return nil
}
