package descriptor

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/ironsheep/bip-coverart/internal/bip"
)

// xmlDeclaration heads every properties document.
const xmlDeclaration = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

type propertiesDoc struct {
	XMLName  xml.Name      `xml:"image-properties"`
	Version  string        `xml:"version,attr"`
	Handle   string        `xml:"handle,attr"`
	Native   nativeElem    `xml:"native"`
	Variants []variantElem `xml:"variant"`
}

type nativeElem struct {
	Encoding string `xml:"encoding,attr"`
	Pixel    string `xml:"pixel,attr"`
	Size     string `xml:"size,attr"`
}

type variantElem struct {
	Encoding string `xml:"encoding,attr"`
	Pixel    string `xml:"pixel,attr"`
}

// EncodeProperties writes the image-properties document for h.
//
// The native element reports attrs as cached; one variant per supported
// encoding advertises the full bounds range. Child order is fixed (native,
// JPEG, PNG) so identical inputs always produce identical bytes.
func EncodeProperties(h bip.Handle, attrs bip.Attributes, bounds bip.Bounds) ([]byte, error) {
	version := attrs.Version
	if version == "" {
		version = bip.Version
	}
	encoding := attrs.Encoding
	if encoding == "" {
		encoding = bip.DefaultEncoding
	}

	doc := propertiesDoc{
		Version: version,
		Handle:  string(h),
		Native: nativeElem{
			Encoding: string(encoding),
			Pixel:    attrs.Pixel(),
			Size:     attrs.NativeSize(),
		},
	}
	for _, e := range bip.Encodings {
		doc.Variants = append(doc.Variants, variantElem{
			Encoding: string(e),
			Pixel:    bounds.Range(),
		})
	}

	var buf bytes.Buffer
	buf.WriteString(xmlDeclaration)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "    ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode image properties: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode image properties: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
