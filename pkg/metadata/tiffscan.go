package metadata

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	errNoExif  = errors.New("no EXIF block")
	errBadJPEG = errors.New("malformed JPEG segment")
)

var exifHeader = []byte("Exif\x00\x00")

// maxIFDs bounds how many directories one block may chain or point to.
const maxIFDs = 16

// tiffTypeSize is the byte size of each TIFF field type, indexed by type id.
var tiffTypeSize = [...]uint64{0, 1, 1, 2, 4, 8, 1, 1, 2, 4, 8, 4, 8}

// Exif, GPS and Interoperability IFD pointers.
var subIFDTags = map[uint16]bool{0x8769: true, 0x8825: true, 0xA005: true}

func isTIFFHeader(b []byte) bool {
	return bytes.HasPrefix(b, []byte("II*\x00")) || bytes.HasPrefix(b, []byte("MM\x00*"))
}

// tiffBlob returns the TIFF structure carrying the tags: the whole file for
// TIFF, the APP1 Exif payload for JPEG.
func tiffBlob(data []byte) ([]byte, error) {
	if isTIFFHeader(data) {
		return data, nil
	}
	if len(data) < 2 || data[0] != 0xFF || data[1] != 0xD8 {
		return nil, errNoExif
	}

	for i := 2; i+4 <= len(data); {
		if data[i] != 0xFF {
			return nil, errBadJPEG
		}
		marker := data[i+1]
		switch {
		case marker == 0xFF:
			i++
			continue
		case marker == 0x01, marker >= 0xD0 && marker <= 0xD8:
			i += 2
			continue
		case marker == 0xD9, marker == 0xDA:
			return nil, errNoExif
		}

		n := int(binary.BigEndian.Uint16(data[i+2:]))
		if n < 2 || i+2+n > len(data) {
			return nil, errBadJPEG
		}
		seg := data[i+4 : i+2+n]
		if marker == 0xE1 && bytes.HasPrefix(seg, exifHeader) {
			return seg[len(exifHeader):], nil
		}
		i += 2 + n
	}
	return nil, errNoExif
}

type ifdScanner struct {
	data  []byte
	order binary.ByteOrder
	seen  map[uint32]bool
}

// checkIFDs walks every directory goexif would decode from a TIFF block and
// rejects value counts larger than the block, offsets outside it and loops.
func checkIFDs(data []byte) error {
	if len(data) < 8 || !isTIFFHeader(data) {
		return errors.New("not a TIFF block")
	}
	var order binary.ByteOrder = binary.LittleEndian
	if data[0] == 'M' {
		order = binary.BigEndian
	}

	s := &ifdScanner{data: data, order: order, seen: make(map[uint32]bool)}
	for off := order.Uint32(data[4:]); off != 0; {
		next, err := s.scan(off)
		if err != nil {
			return err
		}
		off = next
	}
	return nil
}

// scan checks one IFD and the sub-IFDs it points to, and returns the next IFD offset.
func (s *ifdScanner) scan(off uint32) (uint32, error) {
	if s.seen[off] {
		return 0, fmt.Errorf("IFD loop at offset %d", off)
	}
	if len(s.seen) >= maxIFDs {
		return 0, fmt.Errorf("more than %d IFDs", maxIFDs)
	}
	s.seen[off] = true

	size := uint64(len(s.data))
	if uint64(off)+2 > size {
		return 0, fmt.Errorf("IFD offset %d out of range", off)
	}
	// goexif reads the entry count as int16
	n := int16(s.order.Uint16(s.data[off:]))
	if n < 0 {
		n = 0
	}
	end := uint64(off) + 2 + 12*uint64(n)
	if end+4 > size {
		return 0, fmt.Errorf("IFD at offset %d is truncated", off)
	}

	var subs []uint32
	for i := uint64(0); i < uint64(n); i++ {
		e := s.data[uint64(off)+2+12*i:]
		tag, typ, count := s.order.Uint16(e), s.order.Uint16(e[2:]), s.order.Uint32(e[4:])

		if int(typ) < len(tiffTypeSize) && tiffTypeSize[typ]*uint64(count) > size {
			return 0, fmt.Errorf("tag %#04x declares %d values in a %d byte block", tag, count, size)
		}
		if !subIFDTags[tag] {
			continue
		}
		p, ok, err := s.pointer(e, typ, count)
		if err != nil {
			return 0, fmt.Errorf("tag %#04x: %w", tag, err)
		}
		if ok {
			subs = append(subs, p)
		}
	}

	for _, p := range subs {
		if _, err := s.scan(p); err != nil {
			return 0, err
		}
	}
	return s.order.Uint32(s.data[end:]), nil
}

// pointer reads an inline integer IFD offset. Non-integer types are never
// followed by goexif and are skipped.
func (s *ifdScanner) pointer(e []byte, typ uint16, count uint32) (uint32, bool, error) {
	switch typ {
	case 1, 3, 4, 6, 8, 9:
	default:
		return 0, false, nil
	}
	if count != 1 {
		return 0, false, fmt.Errorf("IFD pointer with %d values", count)
	}

	switch typ {
	case 1, 6:
		return uint32(e[8]), true, nil
	case 3, 8:
		return uint32(s.order.Uint16(e[8:])), true, nil
	default:
		return s.order.Uint32(e[8:]), true, nil
	}
}
