package sensors

import "encoding/binary"

const (
	hrFlagUint16       = 0x01 // SIG: heart rate value format is uint16
	legacyFlagWide     = 0x80 // legacy: 16-bit value present
	legacyHRWideOffset = 2
)

// DecodeHeartRate returns the heart rate in beats per minute.
//
// ProfileSIG reads a uint8 at offset 1, or a little-endian uint16 at offset 1
// when flag bit 0 is set. ProfileLegacy reads a uint8 at offset 1, or a
// big-endian uint16 at offset 2 when flag 0x80 is set.
func (d *Decoder) DecodeHeartRate(buf []byte) (uint16, error) {
	if err := checkLength(HeartRateMeasurement, buf, 2); err != nil {
		return 0, err
	}
	flags := buf[0]

	switch d.profile {
	case ProfileLegacy:
		if flags&legacyFlagWide == 0 {
			return uint16(buf[1]), nil
		}
		if err := checkLength(HeartRateMeasurement, buf, legacyHRWideOffset+2); err != nil {
			return 0, err
		}
		return binary.BigEndian.Uint16(buf[legacyHRWideOffset:]), nil

	default:
		if flags&hrFlagUint16 == 0 {
			return uint16(buf[1]), nil
		}
		if err := checkLength(HeartRateMeasurement, buf, 3); err != nil {
			return 0, err
		}
		return binary.LittleEndian.Uint16(buf[1:]), nil
	}
}

// EncodeHeartRate builds a Heart Rate Measurement frame. Values above 255
// always use the 16-bit encoding.
func EncodeHeartRate(profile Profile, bpm uint16, wide bool) []byte {
	wide = wide || bpm > 0xFF

	switch profile {
	case ProfileLegacy:
		if !wide {
			return []byte{0x00, uint8(bpm)}
		}
		buf := make([]byte, legacyHRWideOffset+2)
		buf[0] = legacyFlagWide
		binary.BigEndian.PutUint16(buf[legacyHRWideOffset:], bpm)
		return buf

	default:
		if !wide {
			return []byte{0x00, uint8(bpm)}
		}
		buf := make([]byte, 3)
		buf[0] = hrFlagUint16
		binary.LittleEndian.PutUint16(buf[1:], bpm)
		return buf
	}
}
