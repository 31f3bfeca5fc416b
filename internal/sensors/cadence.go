package sensors

import "encoding/binary"

const (
	cscFlagWheelData = 0x01
	cscFlagCrankData = 0x02
	cscWheelDataSize = 6 // uint32 revolutions + uint16 event time

	legacyCrankRevsOffset = 8
	legacyCrankTimeOffset = 10

	// CrankTimeResolution is the number of crank event time ticks per second.
	CrankTimeResolution = 1024
)

// CadenceState is the rolling crank-event state needed to turn consecutive
// CSC frames into rpm. Both counters wrap at 16 bits.
type CadenceState struct {
	LastCrankRevolutions uint16
	LastCrankEventTime   uint16 // 1/1024 s
	valid                bool
}

// Valid reports whether a crank event has been seen since the state was
// created or reset.
func (s CadenceState) Valid() bool { return s.valid }

// DecodeCadence returns the crank cadence in revolutions per minute.
//
// The state is updated on every frame that carries crank data. rpm is
// derived from the wrapping deltas against the previous crank event:
//
//	rpm = 60 · 1024 · max(Δrevolutions, 1) / Δtime
//
// ok is false when there is nothing to emit: no crank data in the frame, no
// previous crank event to compare against, or an unchanged event time. In
// those cases rpm is undefined and must not be reported as zero.
func (d *Decoder) DecodeCadence(buf []byte) (rpm float64, ok bool, err error) {
	revs, eventTime, present, err := d.crankData(buf)
	if err != nil || !present {
		return 0, false, err
	}

	prev := d.cadence
	d.cadence = CadenceState{
		LastCrankRevolutions: revs,
		LastCrankEventTime:   eventTime,
		valid:                true,
	}
	if !prev.valid {
		return 0, false, nil
	}

	dt := eventTime - prev.LastCrankEventTime
	if dt == 0 {
		return 0, false, nil
	}
	dr := revs - prev.LastCrankRevolutions
	if dr == 0 {
		dr = 1
	}
	return 60 * CrankTimeResolution * float64(dr) / float64(dt), true, nil
}

// crankData extracts the cumulative crank revolutions and last crank event
// time from a CSC Measurement frame.
func (d *Decoder) crankData(buf []byte) (revs, eventTime uint16, present bool, err error) {
	if err := checkLength(CSCMeasurement, buf, 1); err != nil {
		return 0, 0, false, err
	}
	flags := buf[0]

	if d.profile == ProfileLegacy {
		if flags&legacyFlagWide == 0 {
			return 0, 0, false, nil
		}
		if err := checkLength(CSCMeasurement, buf, legacyCrankTimeOffset+2); err != nil {
			return 0, 0, false, err
		}
		revs = binary.BigEndian.Uint16(buf[legacyCrankRevsOffset:])
		eventTime = binary.BigEndian.Uint16(buf[legacyCrankTimeOffset:])
		return revs, eventTime, true, nil
	}

	if flags&cscFlagCrankData == 0 {
		return 0, 0, false, nil
	}
	offset := 1
	if flags&cscFlagWheelData != 0 {
		offset += cscWheelDataSize
	}
	if err := checkLength(CSCMeasurement, buf, offset+4); err != nil {
		return 0, 0, false, err
	}
	revs = binary.LittleEndian.Uint16(buf[offset:])
	eventTime = binary.LittleEndian.Uint16(buf[offset+2:])
	return revs, eventTime, true, nil
}

// EncodeCadence builds a CSC Measurement frame carrying crank data only.
func EncodeCadence(profile Profile, revs, eventTime uint16) []byte {
	if profile == ProfileLegacy {
		buf := make([]byte, legacyCrankTimeOffset+2)
		buf[0] = legacyFlagWide
		binary.BigEndian.PutUint16(buf[legacyCrankRevsOffset:], revs)
		binary.BigEndian.PutUint16(buf[legacyCrankTimeOffset:], eventTime)
		return buf
	}
	buf := make([]byte, 5)
	buf[0] = cscFlagCrankData
	binary.LittleEndian.PutUint16(buf[1:3], revs)
	binary.LittleEndian.PutUint16(buf[3:5], eventTime)
	return buf
}

// CrankEventInterval returns the crank event time increment, in 1/1024 s,
// of one revolution at the given cadence. It returns 0 for non-positive rpm.
func CrankEventInterval(rpm float64) uint16 {
	if rpm <= 0 {
		return 0
	}
	return uint16(60 / rpm * CrankTimeResolution)
}
