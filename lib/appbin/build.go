// Copyright 2026 The Ferrite Authors
// SPDX-License-Identifier: Apache-2.0

package appbin

import (
	"fmt"
	"math"

	"golang.org/x/crypto/cryptobyte"
)

// BinarySpec describes a binary entry to assemble. Used by tests and
// by the appcheck tool to build fixture images; production binaries
// come out of the application build pipeline.
type BinarySpec struct {
	Name    string
	Version uint32

	// Payload is the integrity-covered content (everything between
	// the header and the declared binary end).
	Payload []byte

	// Records are appended to the footer region in order.
	Records []CredentialsRecord
}

// BuildBinary serializes one FAB entry.
func BuildBinary(spec BinarySpec) ([]byte, error) {
	if len(spec.Name) > math.MaxUint8 {
		return nil, fmt.Errorf("binary name is %d bytes, maximum is %d", len(spec.Name), math.MaxUint8)
	}

	footer := cryptobyte.NewBuilder(nil)
	for _, record := range spec.Records {
		appendRecord(footer, record)
	}
	footerBytes, err := footer.Bytes()
	if err != nil {
		return nil, fmt.Errorf("building footer region: %w", err)
	}

	headerLen := minHeaderLen + len(spec.Name)
	binaryEnd := headerLen + len(spec.Payload)
	totalLen := binaryEnd + len(footerBytes)
	if totalLen > math.MaxUint32 {
		return nil, fmt.Errorf("entry is %d bytes, exceeds container limit", totalLen)
	}

	b := cryptobyte.NewBuilder(make([]byte, 0, totalLen))
	b.AddUint16(Magic)
	b.AddUint16(uint16(headerLen))
	b.AddUint32(uint32(totalLen))
	b.AddUint32(spec.Version)
	b.AddUint32(uint32(binaryEnd))
	b.AddUint8(uint8(len(spec.Name)))
	b.AddBytes([]byte(spec.Name))
	b.AddBytes(spec.Payload)
	b.AddBytes(footerBytes)
	return b.Bytes()
}

// BuildImage concatenates entries into a flash image, lowest offset
// first. The loader discovers binaries in exactly this order.
func BuildImage(specs ...BinarySpec) ([]byte, error) {
	var image []byte
	for i, spec := range specs {
		entry, err := BuildBinary(spec)
		if err != nil {
			return nil, fmt.Errorf("building entry %d (%q): %w", i, spec.Name, err)
		}
		image = append(image, entry...)
	}
	return image, nil
}

// AppendRecord serializes one credential record onto footer bytes.
func AppendRecord(footer []byte, record CredentialsRecord) ([]byte, error) {
	b := cryptobyte.NewBuilder(footer)
	appendRecord(b, record)
	return b.Bytes()
}

func appendRecord(b *cryptobyte.Builder, record CredentialsRecord) {
	if len(record.Data()) > math.MaxUint16-4 {
		b.SetError(fmt.Errorf("record data is %d bytes, maximum is %d", len(record.Data()), math.MaxUint16-4))
		return
	}
	b.AddUint16(RecordType)
	b.AddUint16(uint16(4 + len(record.Data())))
	b.AddUint32(uint32(record.Format()))
	b.AddBytes(record.Data())
}
