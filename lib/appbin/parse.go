// Copyright 2026 The Ferrite Authors
// SPDX-License-Identifier: Apache-2.0

package appbin

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/cryptobyte"
)

// Magic is the first header field of every FAB entry. An entry slot
// that does not start with it marks the end of the binary list.
const Magic uint16 = 0xFAB1

// RecordType is the footer TLV type value identifying a credentials
// record in the container format.
const RecordType uint16 = 128

// minHeaderLen is the smallest valid header: the five fixed fields
// plus a zero-length name.
const minHeaderLen = 2 + 2 + 4 + 4 + 4 + 1

// ErrNoBinary reports that the image bytes do not begin with another
// binary entry. This is the normal end-of-image condition, not a
// corruption error.
var ErrNoBinary = errors.New("no binary entry")

// ErrNoRecord reports that the footer bytes hold no further complete
// credential record. Trailing truncated bytes are treated the same as
// an empty footer: the record scan simply ends.
var ErrNoRecord = errors.New("no credential record")

// ErrBadRecord reports a structurally invalid footer record: wrong
// TLV type, impossible length, or a known format whose data length
// does not match the format's fixed size. The checker abandons the
// remaining footer region of that binary when it sees this.
var ErrBadRecord = errors.New("malformed credential record")

// Binary is one parsed application binary entry. The exported offsets
// are the fields of the container header the checker depends on; the
// region accessors below derive the spans the checker actually uses.
type Binary struct {
	// Name is the process name declared in the header.
	Name string

	// Version is the declared binary version, used only for the
	// boot-time tie-break between processes with colliding
	// identifiers.
	Version uint32

	// HeaderLen is the header length in bytes. The integrity region
	// begins here.
	HeaderLen int

	// BinaryEnd is the end offset, relative to entry start, of the
	// region covered by any credential. Footer bytes are never
	// covered.
	BinaryEnd int

	// Image holds the entire entry: header, integrity region, and
	// footer region.
	Image []byte
}

// IntegrityRegion returns exactly the bytes from the end of the
// header to the declared binary end. This span, and no more, is the
// input to credential verification.
func (b *Binary) IntegrityRegion() []byte {
	return b.Image[b.HeaderLen:b.BinaryEnd]
}

// FooterRegion returns the credential-bearing trailing region.
func (b *Binary) FooterRegion() []byte {
	return b.Image[b.BinaryEnd:]
}

// ParseBinary parses the binary entry at the start of image. On
// success it returns the entry and the remaining image bytes after
// it. It returns ErrNoBinary when image is exhausted or does not
// begin with the entry magic, and a descriptive error when an entry
// is present but structurally invalid.
func ParseBinary(image []byte) (*Binary, []byte, error) {
	s := cryptobyte.String(image)

	var magic, headerLen uint16
	var totalLen, version, binaryEnd uint32
	var nameLen uint8
	if !s.ReadUint16(&magic) || magic != Magic {
		return nil, nil, ErrNoBinary
	}
	if !s.ReadUint16(&headerLen) ||
		!s.ReadUint32(&totalLen) ||
		!s.ReadUint32(&version) ||
		!s.ReadUint32(&binaryEnd) ||
		!s.ReadUint8(&nameLen) {
		return nil, nil, fmt.Errorf("truncated binary header: %d bytes", len(image))
	}
	var name []byte
	if !s.ReadBytes(&name, int(nameLen)) {
		return nil, nil, fmt.Errorf("truncated binary name: header declares %d name bytes", nameLen)
	}

	if int(headerLen) != minHeaderLen+int(nameLen) {
		return nil, nil, fmt.Errorf("header length %d, want %d for a %d-byte name",
			headerLen, minHeaderLen+int(nameLen), nameLen)
	}
	if int(totalLen) > len(image) {
		return nil, nil, fmt.Errorf("entry declares %d bytes, image has %d", totalLen, len(image))
	}
	if binaryEnd < uint32(headerLen) || binaryEnd > totalLen {
		return nil, nil, fmt.Errorf("binary end offset %d outside entry (header %d, total %d)",
			binaryEnd, headerLen, totalLen)
	}

	return &Binary{
		Name:      string(name),
		Version:   version,
		HeaderLen: int(headerLen),
		BinaryEnd: int(binaryEnd),
		Image:     image[:totalLen],
	}, image[totalLen:], nil
}

// ParseRecord parses the first credential record in footer. On
// success it returns the record and the remaining footer bytes.
// ErrNoRecord means the scan is cleanly done; errors wrapping
// ErrBadRecord mean the footer region is corrupt from this point on.
func ParseRecord(footer []byte) (CredentialsRecord, []byte, error) {
	s := cryptobyte.String(footer)

	var tlvType, tlvLen uint16
	if !s.ReadUint16(&tlvType) || !s.ReadUint16(&tlvLen) {
		return CredentialsRecord{}, nil, ErrNoRecord
	}
	if tlvType != RecordType {
		return CredentialsRecord{}, nil, fmt.Errorf("%w: footer TLV type %d, want %d",
			ErrBadRecord, tlvType, RecordType)
	}
	if tlvLen < 4 {
		return CredentialsRecord{}, nil, fmt.Errorf("%w: record length %d cannot hold a format word",
			ErrBadRecord, tlvLen)
	}

	var format uint32
	var data []byte
	if !s.ReadUint32(&format) || !s.ReadBytes(&data, int(tlvLen)-4) {
		// A record header with its body past the end of the footer
		// region: the region was sized for credentials that were
		// never installed. Treat as end of records.
		return CredentialsRecord{}, nil, ErrNoRecord
	}

	f := CredentialsFormat(format)
	if want, fixed := f.DataLen(); fixed && len(data) != want {
		return CredentialsRecord{}, nil, fmt.Errorf("%w: %s record has %d data bytes, want %d",
			ErrBadRecord, f, len(data), want)
	}

	return NewCredentialsRecord(f, data), footer[4+int(tlvLen):], nil
}

// Records parses every credential record in footer, in physical
// order. It returns the records parsed before the first malformed
// entry along with the error describing it; a merely truncated tail
// is not an error.
func Records(footer []byte) ([]CredentialsRecord, error) {
	var records []CredentialsRecord
	rest := footer
	for {
		record, next, err := ParseRecord(rest)
		if errors.Is(err, ErrNoRecord) {
			return records, nil
		}
		if err != nil {
			return records, err
		}
		records = append(records, record)
		rest = next
	}
}
