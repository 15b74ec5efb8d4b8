package hwcodec

// RawMagic starts every unit of a rawvideo elementary stream.
const RawMagic = "RAWV"

// DetectCodec detects the bitstream format of one encoded unit.
// Supports detection of:
//   - rawvideo elementary stream units (RawMagic)
//   - H.264/AVC and H.265/HEVC in Annex-B format
//   - IVF files (VP8, VP9, AV1 fourcc)
//   - VP8 keyframes (RFC 6386 start code)
//   - AV1 OBU streams starting with a temporal delimiter or sequence header
//   - VP9 frames (frame marker)
//
// Returns DataFormatUnknown if the format cannot be determined.
func DetectCodec(data []byte) DataFormat {
	if len(data) < 4 {
		return DataFormatUnknown
	}

	if string(data[:4]) == RawMagic {
		return DataFormatRaw
	}

	if n := annexBStartCodeLen(data); n > 0 && len(data) > n+1 {
		if isH265NALHeader(data[n], data[n+1]) {
			return DataFormatH265
		}
		if isH264NALHeader(data[n]) {
			return DataFormatH264
		}
		return DataFormatUnknown
	}

	if len(data) >= 32 && string(data[0:4]) == "DKIF" {
		switch string(data[8:12]) {
		case "VP80":
			return DataFormatVP8
		case "VP90":
			return DataFormatVP9
		case "AV01":
			return DataFormatAV1
		}
	}

	if isVP8Keyframe(data) {
		return DataFormatVP8
	}
	if isAV1OBU(data) {
		return DataFormatAV1
	}
	if isVP9Frame(data) {
		return DataFormatVP9
	}
	return DataFormatUnknown
}

// annexBStartCodeLen returns 4 or 3 for a leading 0x00000001 or 0x000001
// start code, or 0.
func annexBStartCodeLen(data []byte) int {
	if len(data) >= 4 && data[0] == 0 && data[1] == 0 && data[2] == 0 && data[3] == 1 {
		return 4
	}
	if len(data) >= 3 && data[0] == 0 && data[1] == 0 && data[2] == 1 {
		return 3
	}
	return 0
}

// isH265NALHeader checks the two-byte HEVC NAL header (ITU-T H.265 7.3.1.2)
// for the unit types that start a stream: VPS, SPS, PPS, AUD, prefix SEI,
// IDR_W_RADL and CRA. nuh_layer_id must be 0 and nuh_temporal_id_plus1 1.
func isH265NALHeader(b0, b1 byte) bool {
	if b0&0x80 != 0 || b0&0x01 != 0 || b1 != 0x01 {
		return false
	}
	switch (b0 >> 1) & 0x3F {
	case 32, 33, 34, 35, 39, 19, 21:
		return true
	}
	return false
}

// isH264NALHeader checks nal_unit_type (ITU-T H.264 Table 7-1) for values
// 1-12 and 19-21 with the forbidden bit clear.
func isH264NALHeader(b byte) bool {
	if b&0x80 != 0 {
		return false
	}
	t := b & 0x1F
	return (t >= 1 && t <= 12) || (t >= 19 && t <= 21)
}

// isVP8Keyframe checks for the VP8 keyframe start code 0x9D 0x01 0x2A after
// the 3-byte frame tag (RFC 6386 Section 9.1).
func isVP8Keyframe(data []byte) bool {
	if len(data) < 10 || data[0]&0x01 != 0 {
		return false
	}
	return data[3] == 0x9D && data[4] == 0x01 && data[5] == 0x2A
}

// isAV1OBU checks for a leading temporal delimiter or sequence header OBU
// with obu_has_size_field set (AV1 Section 5.3.2).
func isAV1OBU(data []byte) bool {
	if len(data) < 2 || data[0]&0x80 != 0 || data[0]&0x02 == 0 {
		return false
	}
	switch (data[0] >> 3) & 0x0F {
	case 1, 2:
		return true
	}
	return false
}

// isVP9Frame checks the 2-bit frame_marker (VP9 Section 6.2).
func isVP9Frame(data []byte) bool {
	return len(data) >= 3 && (data[0]>>6)&0x03 == 0x02
}
