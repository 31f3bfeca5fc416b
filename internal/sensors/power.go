package sensors

import "encoding/binary"

const powerOffset = 2

// DecodePower returns the instantaneous power in watts, a signed 16-bit value
// at offset 2 (little-endian for ProfileSIG, big-endian for ProfileLegacy).
// The optional Cycling Power fields (pedal balance, torque, revolutions) are
// ignored.
func (d *Decoder) DecodePower(buf []byte) (int16, error) {
	if err := checkLength(CyclingPowerMeasurement, buf, powerOffset+2); err != nil {
		return 0, err
	}
	if d.profile == ProfileLegacy {
		return int16(binary.BigEndian.Uint16(buf[powerOffset:])), nil
	}
	return int16(binary.LittleEndian.Uint16(buf[powerOffset:])), nil
}

// EncodePower builds a Cycling Power Measurement frame with no optional
// fields.
func EncodePower(profile Profile, watts int16) []byte {
	buf := make([]byte, powerOffset+2)
	if profile == ProfileLegacy {
		binary.BigEndian.PutUint16(buf[powerOffset:], uint16(watts))
		return buf
	}
	binary.LittleEndian.PutUint16(buf[0:2], 0) // flags
	binary.LittleEndian.PutUint16(buf[powerOffset:], uint16(watts))
	return buf
}
