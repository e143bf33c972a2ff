package imaging

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
)

const (
	markerSOI  = 0xD8
	markerSOS  = 0xDA
	markerAPP0 = 0xE0
	markerAPP1 = 0xE1

	tagImageWidth  = 0x0100
	tagImageLength = 0x0101
	typeLong       = 4
)

var exifPrefix = []byte("Exif\x00\x00")

// errNotJPEG is returned when a file does not start with a JPEG SOI marker.
var errNotJPEG = errors.New("not a JPEG stream")

// ExifWriter stamps pixel dimensions into the EXIF header of JPEG files.
type ExifWriter struct{}

// RewriteDimensions replaces any JFIF or EXIF header in the JPEG at path
// with an EXIF block carrying width and height.
func (ExifWriter) RewriteDimensions(path string, width, height int) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	out, err := stampDimensions(data, width, height)
	if err != nil {
		return fmt.Errorf("failed to rewrite %s: %w", path, err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// ReadDimensions returns the width and height recorded in the EXIF header of
// the JPEG at path.
func ReadDimensions(path string) (width, height int, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, err
	}
	segs, _, err := splitSegments(data)
	if err != nil {
		return 0, 0, err
	}
	for _, seg := range segs {
		if seg[1] == markerAPP1 && bytes.HasPrefix(seg[4:], exifPrefix) {
			return parseExifDimensions(seg[4+len(exifPrefix):])
		}
	}
	return 0, 0, errors.New("no EXIF header")
}

func stampDimensions(data []byte, width, height int) ([]byte, error) {
	segs, rest, err := splitSegments(data)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Grow(len(data) + 64)
	buf.Write([]byte{0xFF, markerSOI})
	buf.Write(exifSegment(width, height))
	for _, seg := range segs {
		switch {
		case seg[1] == markerAPP0:
		case seg[1] == markerAPP1 && bytes.HasPrefix(seg[4:], exifPrefix):
		default:
			buf.Write(seg)
		}
	}
	buf.Write(rest)
	return buf.Bytes(), nil
}

// splitSegments returns the marker segments between SOI and SOS, and the
// remainder of the stream starting at SOS.
func splitSegments(data []byte) ([][]byte, []byte, error) {
	if len(data) < 4 || data[0] != 0xFF || data[1] != markerSOI {
		return nil, nil, errNotJPEG
	}
	var segs [][]byte
	i := 2
	for i+4 <= len(data) {
		if data[i] != 0xFF {
			return nil, nil, fmt.Errorf("expected marker at offset %d", i)
		}
		m := data[i+1]
		if m == 0xFF {
			// fill byte
			i++
			continue
		}
		if m == markerSOS {
			return segs, data[i:], nil
		}
		n := int(binary.BigEndian.Uint16(data[i+2:]))
		if n < 2 || i+2+n > len(data) {
			return nil, nil, fmt.Errorf("segment %#x at offset %d is truncated", m, i)
		}
		segs = append(segs, data[i:i+2+n])
		i += 2 + n
	}
	return nil, nil, errors.New("no scan data")
}

// exifSegment builds an APP1 segment holding a big-endian TIFF header and a
// single IFD with ImageWidth and ImageLength.
func exifSegment(width, height int) []byte {
	var tiff bytes.Buffer
	tiff.WriteString("MM")
	binary.Write(&tiff, binary.BigEndian, uint16(42))
	binary.Write(&tiff, binary.BigEndian, uint32(8))
	binary.Write(&tiff, binary.BigEndian, uint16(2))
	for _, e := range []struct {
		tag   uint16
		value uint32
	}{{tagImageWidth, uint32(width)}, {tagImageLength, uint32(height)}} {
		binary.Write(&tiff, binary.BigEndian, e.tag)
		binary.Write(&tiff, binary.BigEndian, uint16(typeLong))
		binary.Write(&tiff, binary.BigEndian, uint32(1))
		binary.Write(&tiff, binary.BigEndian, e.value)
	}
	binary.Write(&tiff, binary.BigEndian, uint32(0))

	payload := append(append([]byte{}, exifPrefix...), tiff.Bytes()...)
	seg := make([]byte, 4, 4+len(payload))
	seg[0], seg[1] = 0xFF, markerAPP1
	binary.BigEndian.PutUint16(seg[2:], uint16(len(payload)+2))
	return append(seg, payload...)
}

func parseExifDimensions(tiff []byte) (width, height int, err error) {
	if len(tiff) < 8 {
		return 0, 0, errors.New("short TIFF header")
	}
	var order binary.ByteOrder
	switch string(tiff[:2]) {
	case "MM":
		order = binary.BigEndian
	case "II":
		order = binary.LittleEndian
	default:
		return 0, 0, errors.New("bad TIFF byte order")
	}
	off := int(order.Uint32(tiff[4:]))
	if off+2 > len(tiff) {
		return 0, 0, errors.New("IFD offset out of range")
	}
	count := int(order.Uint16(tiff[off:]))
	for k := 0; k < count; k++ {
		e := off + 2 + 12*k
		if e+12 > len(tiff) {
			return 0, 0, errors.New("IFD entry out of range")
		}
		var v int
		switch order.Uint16(tiff[e+2:]) {
		case 3:
			v = int(order.Uint16(tiff[e+8:]))
		case typeLong:
			v = int(order.Uint32(tiff[e+8:]))
		default:
			continue
		}
		switch order.Uint16(tiff[e:]) {
		case tagImageWidth:
			width = v
		case tagImageLength:
			height = v
		}
	}
	if width == 0 || height == 0 {
		return 0, 0, errors.New("dimensions not recorded")
	}
	return width, height, nil
}
