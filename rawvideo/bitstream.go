package rawvideo

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/thesyncim/hwcodec"
)

// Unit types.
const (
	unitSequence byte = 1
	unitPicture  byte = 2
)

const (
	magicLen          = len(hwcodec.RawMagic)
	sequenceUnitLen   = magicLen + 1 + 4 + 4 + 1 + 2
	pictureHeaderLen  = magicLen + 1 + 8 + 1 + 4
	pictureFlagKey    = 0x01
	maxPicturePayload = 1 << 30
)

var errTruncated = errors.New("truncated unit")

// sequenceHeader describes the frames that follow it.
type sequenceHeader struct {
	Width  int
	Height int
	Format hwcodec.PixelFormat
	Align  int
}

func (s sequenceHeader) geometry() (hwcodec.Geometry, error) {
	return hwcodec.ComputeGeometry(s.Format, s.Width, s.Height, s.Align)
}

type picture struct {
	PTS     int64
	Key     bool
	Payload []byte
}

type unit struct {
	kind byte
	seq  sequenceHeader
	pic  picture
}

func appendSequenceHeader(dst []byte, s sequenceHeader) []byte {
	dst = append(dst, hwcodec.RawMagic...)
	dst = append(dst, unitSequence)
	dst = binary.BigEndian.AppendUint32(dst, uint32(s.Width))
	dst = binary.BigEndian.AppendUint32(dst, uint32(s.Height))
	dst = append(dst, byte(s.Format))
	dst = binary.BigEndian.AppendUint16(dst, uint16(s.Align))
	return dst
}

func appendPicture(dst []byte, pts int64, key bool, payload []byte) []byte {
	dst = append(dst, hwcodec.RawMagic...)
	dst = append(dst, unitPicture)
	dst = binary.BigEndian.AppendUint64(dst, uint64(pts))
	var flags byte
	if key {
		flags |= pictureFlagKey
	}
	dst = append(dst, flags)
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(payload)))
	dst = append(dst, payload...)
	return dst
}

// parseUnits splits a packet into its units. Picture payloads alias data.
func parseUnits(data []byte) ([]unit, error) {
	var units []unit
	for len(data) > 0 {
		if len(data) < magicLen+1 {
			return nil, errTruncated
		}
		if string(data[:magicLen]) != hwcodec.RawMagic {
			return nil, fmt.Errorf("bad unit magic %x", data[:magicLen])
		}
		switch kind := data[magicLen]; kind {
		case unitSequence:
			if len(data) < sequenceUnitLen {
				return nil, errTruncated
			}
			b := data[magicLen+1:]
			units = append(units, unit{kind: kind, seq: sequenceHeader{
				Width:  int(binary.BigEndian.Uint32(b[0:4])),
				Height: int(binary.BigEndian.Uint32(b[4:8])),
				Format: hwcodec.PixelFormat(b[8]),
				Align:  int(binary.BigEndian.Uint16(b[9:11])),
			}})
			data = data[sequenceUnitLen:]
		case unitPicture:
			if len(data) < pictureHeaderLen {
				return nil, errTruncated
			}
			b := data[magicLen+1:]
			n := int(binary.BigEndian.Uint32(b[9:13]))
			if n > maxPicturePayload || len(data) < pictureHeaderLen+n {
				return nil, errTruncated
			}
			units = append(units, unit{kind: kind, pic: picture{
				PTS:     int64(binary.BigEndian.Uint64(b[0:8])),
				Key:     b[8]&pictureFlagKey != 0,
				Payload: data[pictureHeaderLen : pictureHeaderLen+n],
			}})
			data = data[pictureHeaderLen+n:]
		default:
			return nil, fmt.Errorf("unknown unit type %d", kind)
		}
	}
	return units, nil
}
