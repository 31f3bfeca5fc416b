package sensors

import "math/rand"

// MockSensors produces frames for a steady rider: heart rate around 125 bpm,
// power around 195 W and cadence around 95 rpm. It is used in dev mode in
// place of real sensors.
type MockSensors struct {
	profile   Profile
	rng       *rand.Rand
	crankRevs uint16
	crankTime uint16
}

// NewMockSensors returns a generator encoding frames with the given profile.
// The same seed always yields the same frame sequence.
func NewMockSensors(profile Profile, seed int64) *MockSensors {
	return &MockSensors{
		profile: profile,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

// HeartRate returns a 16-bit encoded heart rate frame between 123 and 128 bpm.
func (m *MockSensors) HeartRate() Notification {
	bpm := uint16(123 + m.rng.Intn(6))
	return Notification{Characteristic: HeartRateMeasurement, Payload: EncodeHeartRate(m.profile, bpm, true)}
}

// Power returns a power frame between 180 and 210 W.
func (m *MockSensors) Power() Notification {
	watts := int16(180 + m.rng.Intn(31))
	return Notification{Characteristic: CyclingPowerMeasurement, Payload: EncodePower(m.profile, watts)}
}

// Cadence advances the crank by one revolution at 90 to 100 rpm and returns
// the resulting frame.
func (m *MockSensors) Cadence() Notification {
	rpm := float64(90 + m.rng.Intn(11))
	m.crankRevs++
	m.crankTime += CrankEventInterval(rpm)
	return Notification{Characteristic: CSCMeasurement, Payload: EncodeCadence(m.profile, m.crankRevs, m.crankTime)}
}

// Next returns one frame of each characteristic.
func (m *MockSensors) Next() []Notification {
	return []Notification{m.HeartRate(), m.Power(), m.Cadence()}
}
