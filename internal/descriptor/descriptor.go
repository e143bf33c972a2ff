// Package descriptor reads image-descriptor documents sent by a peer and
// writes the image-properties documents the responder advertises.
//
// Inbound documents look like:
//
//	<image-descriptor version="1.0">
//	    <image encoding="JPEG" pixel="200*200" maxsize="50000" transformation="crop"/>
//	</image-descriptor>
//
// Outbound documents look like:
//
//	<image-properties version="1.0" handle="1234567">
//	    <native encoding="JPEG" pixel="640*480" size="48213"/>
//	    <variant encoding="JPEG" pixel="100*100-1280*1080"/>
//	    <variant encoding="PNG" pixel="100*100-1280*1080"/>
//	</image-properties>
package descriptor

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ironsheep/bip-coverart/internal/bip"
)

// Attr is a descriptor attribute that may be absent, present but empty, or
// present with a value.
type Attr struct {
	Value   string
	Present bool
}

// Set returns a present attribute holding v.
func Set(v string) Attr { return Attr{Value: v, Present: true} }

// Descriptor is the peer's constraint document for a requested image.
type Descriptor struct {
	Version        string
	Encoding       Attr
	Pixel          Attr
	MaxSize        Attr
	Transformation Attr
}

// Default is the descriptor used when the peer sends none: any encoding,
// native pixels, no ceiling.
func Default() Descriptor {
	return Descriptor{
		Version:  bip.Version,
		Encoding: Set(""),
		Pixel:    Set(""),
	}
}

// String implements fmt.Stringer for logging.
func (d Descriptor) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "version=%q", d.Version)
	for _, f := range []struct {
		name string
		a    Attr
	}{
		{"encoding", d.Encoding},
		{"pixel", d.Pixel},
		{"maxsize", d.MaxSize},
		{"transformation", d.Transformation},
	} {
		if f.a.Present {
			fmt.Fprintf(&b, " %s=%q", f.name, f.a.Value)
		}
	}
	return b.String()
}

// IsEmpty reports whether doc carries no descriptor at all. An empty
// document means "use native defaults" and must not be parsed.
func IsEmpty(doc []byte) bool {
	return len(bytes.TrimSpace(doc)) == 0
}

// Parse scans doc for the image-descriptor and image elements.
//
// The scan stops at the first image element; a document is expected to
// carry only one. A missing image-descriptor element, or a missing version
// attribute, leaves Version at "1.0".
//
// # Errors
//
// Every failure wraps bip.ErrMalformedDescriptor:
//   - the document is not valid UTF-8 or declares another charset
//   - the XML is not well-formed up to the image element
//   - no image element is present
func Parse(doc []byte) (Descriptor, error) {
	if !utf8.Valid(doc) {
		return Descriptor{}, fmt.Errorf("%w: document is not valid UTF-8", bip.ErrMalformedDescriptor)
	}

	d := Descriptor{Version: bip.Version}

	dec := xml.NewDecoder(bytes.NewReader(doc))
	dec.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		if strings.EqualFold(charset, "utf-8") || strings.EqualFold(charset, "utf8") {
			return input, nil
		}
		return nil, fmt.Errorf("unsupported charset %q", charset)
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return Descriptor{}, fmt.Errorf("%w: no image element", bip.ErrMalformedDescriptor)
		}
		if err != nil {
			return Descriptor{}, fmt.Errorf("%w: %v", bip.ErrMalformedDescriptor, err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch start.Name.Local {
		case "image-descriptor":
			for _, a := range start.Attr {
				if a.Name.Local == "version" {
					d.Version = a.Value
				}
			}
		case "image":
			for _, a := range start.Attr {
				switch a.Name.Local {
				case "encoding":
					d.Encoding = Set(a.Value)
				case "pixel":
					d.Pixel = Set(a.Value)
				case "maxsize":
					d.MaxSize = Set(a.Value)
				case "transformation":
					d.Transformation = Set(a.Value)
				}
			}
			return d, nil
		}
	}
}
