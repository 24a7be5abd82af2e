// Package record serializes descriptors as self-describing TLV records.
package record

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/czh0526/btc-descriptors/descriptor"
	"github.com/lightningnetwork/lnd/tlv"
)

const (
	// TypeKind carries the kind of the record. Required.
	TypeKind tlv.Type = 0

	// TypeDescriptor carries the descriptor text as it was parsed.
	// Required.
	TypeDescriptor tlv.Type = 2

	// TypeName carries the optional descriptor name.
	TypeName tlv.Type = 3

	// TypeNote carries the optional free form note.
	TypeNote tlv.Type = 5
)

// KindOutputDescriptor marks a record holding an output descriptor.
const KindOutputDescriptor uint8 = 1

var (
	// ErrUnknownKind is returned when decoding a record of another kind.
	ErrUnknownKind = errors.New("record is not an output descriptor")

	// ErrMissingDescriptor is returned when a record has no descriptor
	// text.
	ErrMissingDescriptor = errors.New("record has no descriptor")

	// ErrUnknownRequiredType is returned when a record carries an even
	// type this package does not know.
	ErrUnknownRequiredType = errors.New("unknown required record type")
)

// Record is the decoded form of a descriptor record.
type Record struct {
	Kind       uint8
	Descriptor []byte
	Name       []byte
	Note       []byte
}

// EncodeRecords returns the records present in r, in type order.
func (r *Record) EncodeRecords() []tlv.Record {
	records := []tlv.Record{
		tlv.MakePrimitiveRecord(TypeKind, &r.Kind),
		tlv.MakePrimitiveRecord(TypeDescriptor, &r.Descriptor),
	}
	if len(r.Name) > 0 {
		records = append(records, tlv.MakePrimitiveRecord(TypeName, &r.Name))
	}
	if len(r.Note) > 0 {
		records = append(records, tlv.MakePrimitiveRecord(TypeNote, &r.Note))
	}
	return records
}

// DecodeRecords returns every record type known for decoding.
func (r *Record) DecodeRecords() []tlv.Record {
	return []tlv.Record{
		tlv.MakePrimitiveRecord(TypeKind, &r.Kind),
		tlv.MakePrimitiveRecord(TypeDescriptor, &r.Descriptor),
		tlv.MakePrimitiveRecord(TypeName, &r.Name),
		tlv.MakePrimitiveRecord(TypeNote, &r.Note),
	}
}

// Encode writes r as a TLV stream.
func (r *Record) Encode(w io.Writer) error {
	stream, err := tlv.NewStream(r.EncodeRecords()...)
	if err != nil {
		return err
	}
	return stream.Encode(w)
}

// Decode reads a TLV stream into r. Unknown odd types are skipped, unknown
// even types fail with ErrUnknownRequiredType.
func (r *Record) Decode(rd io.Reader) error {
	stream, err := tlv.NewStream(r.DecodeRecords()...)
	if err != nil {
		return err
	}
	parsed, err := stream.DecodeWithParsedTypes(rd)
	if err != nil {
		return err
	}
	for typ := range parsed {
		switch typ {
		case TypeKind, TypeDescriptor, TypeName, TypeNote:
			continue
		}
		if typ%2 == 0 {
			return fmt.Errorf("%w: %d", ErrUnknownRequiredType, typ)
		}
	}
	return nil
}

// Encode writes d as a descriptor record. The descriptor is stored by its
// source text without the checksum, so decoding yields an equal descriptor.
func Encode(w io.Writer, d *descriptor.Descriptor) error {
	r := Record{
		Kind:       KindOutputDescriptor,
		Descriptor: []byte(d.Source()),
		Name:       []byte(d.Name()),
		Note:       []byte(d.Note()),
	}
	return r.Encode(w)
}

// Decode reads a descriptor record and parses the descriptor it holds.
func Decode(rd io.Reader) (*descriptor.Descriptor, error) {
	var r Record
	if err := r.Decode(rd); err != nil {
		return nil, fmt.Errorf("unable to decode record: %w", err)
	}
	if r.Kind != KindOutputDescriptor {
		return nil, fmt.Errorf("%w: kind %d", ErrUnknownKind, r.Kind)
	}
	if len(r.Descriptor) == 0 {
		return nil, ErrMissingDescriptor
	}

	d, err := descriptor.New(string(r.Descriptor))
	if err != nil {
		return nil, err
	}
	return d.WithMetadata(string(r.Name), string(r.Note)), nil
}

// Serialize returns the record bytes of d.
func Serialize(d *descriptor.Descriptor) ([]byte, error) {
	var b bytes.Buffer
	if err := Encode(&b, d); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// Deserialize parses the record bytes produced by Serialize.
func Deserialize(b []byte) (*descriptor.Descriptor, error) {
	return Decode(bytes.NewReader(b))
}
