package record

import (
	"bytes"
	"testing"

	"github.com/czh0526/btc-descriptors/descriptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testKey = "0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798"

	testXpub = "xpub661MyMwAqRbcFtXgS5sYJABqqG9YLmC4Q1Rdap9gSE8NqtwybGhe" +
		"PY2gZ29ESFjqJoCu1Rupje8YtGqsefD265TMg7usUDFdp6W1EGMcet8"
)

func TestEncodeLayout(t *testing.T) {
	b, err := Serialize(descriptor.Must("raw(00)"))
	require.NoError(t, err)

	want := []byte{0x00, 0x01, KindOutputDescriptor, 0x02, 0x07}
	want = append(want, "raw(00)"...)
	assert.Equal(t, want, b)
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		dname string
		note  string
	}{
		{"plain", "wpkh(" + testKey + ")", "", ""},
		{"named", "sh(wpkh(" + testKey + "))", "savings", ""},
		{"noted", "pkh(" + testKey + ")", "spending", "hot wallet"},
		{"normalised", "raw(deadbeef)#89f8spxm", "", "from backup"},
		{"hardened h", "wpkh(" + testXpub + "/0h/*)", "account", ""},
	}

	for _, test := range tests {
		d := descriptor.Must(test.text).WithMetadata(test.dname, test.note)

		b, err := Serialize(d)
		require.NoError(t, err, test.name)

		decoded, err := Deserialize(b)
		require.NoError(t, err, test.name)
		assert.True(t, d.Equal(decoded), test.name)
		assert.Equal(t, d.String(), decoded.String(), test.name)
		assert.Equal(t, d.SourceWithChecksum(), decoded.SourceWithChecksum(),
			test.name)
		assert.Equal(t, test.dname, decoded.Name(), test.name)
		assert.Equal(t, test.note, decoded.Note(), test.name)
	}
}

func TestDecodeErrors(t *testing.T) {
	wrongKind := Record{Kind: 7, Descriptor: []byte("raw(00)")}
	var b bytes.Buffer
	require.NoError(t, wrongKind.Encode(&b))
	_, err := Deserialize(b.Bytes())
	assert.ErrorIs(t, err, ErrUnknownKind)

	empty := Record{Kind: KindOutputDescriptor}
	b.Reset()
	require.NoError(t, empty.Encode(&b))
	_, err = Deserialize(b.Bytes())
	assert.ErrorIs(t, err, ErrMissingDescriptor)

	invalid := Record{Kind: KindOutputDescriptor, Descriptor: []byte("pk()")}
	b.Reset()
	require.NoError(t, invalid.Encode(&b))
	_, err = Deserialize(b.Bytes())
	var derr descriptor.Error
	assert.ErrorAs(t, err, &derr)

	_, err = Deserialize([]byte{0x00, 0x05})
	assert.Error(t, err)
}

func TestUnknownTypes(t *testing.T) {
	base, err := Serialize(descriptor.Must("raw(00)"))
	require.NoError(t, err)

	// Unknown odd types are skipped.
	odd := append(append([]byte(nil), base...), 0x07, 0x01, 0xff)
	d, err := Deserialize(odd)
	require.NoError(t, err)
	assert.Equal(t, "raw(00)", d.String())

	// Unknown even types are required and fail decoding.
	even := append(append([]byte(nil), base...), 0x08, 0x01, 0xff)
	d, err = Deserialize(even)
	assert.ErrorIs(t, err, ErrUnknownRequiredType)
	assert.Nil(t, d)

	empty := append(append([]byte(nil), base...), 0x0a, 0x00)
	_, err = Deserialize(empty)
	assert.ErrorIs(t, err, ErrUnknownRequiredType)
}
