package descriptor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecksumVector(t *testing.T) {
	sum, err := Checksum("raw(deadbeef)")
	require.NoError(t, err)
	assert.Equal(t, "89f8spxm", sum)

	body, err := ValidateChecksum("raw(deadbeef)#89f8spxm")
	require.NoError(t, err)
	assert.Equal(t, "raw(deadbeef)", body)
}

func TestValidateChecksumErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		code ErrorCode
	}{
		{"missing", "raw(deadbeef)#", ErrChecksumLength},
		{"too long", "raw(deadbeef)#89f8spxmx", ErrChecksumLength},
		{"too short", "raw(deadbeef)#89f8spx", ErrChecksumLength},
		{"payload error", "raw(deedbeef)#89f8spxm", ErrChecksumMismatch},
		{"checksum error", "raw(deadbeef)#89f8spxn", ErrChecksumMismatch},
		{"double marker", "raw(deadbeef)##9f8spxm", ErrChecksumLength},
		{"invalid character", "raw(déadbeef)#00000000", ErrInvalidCharacter},
	}

	for _, test := range tests {
		_, err := ValidateChecksum(test.text)
		checkError(t, test.name, err, test.code)
	}
}

func TestChecksumRoundTrip(t *testing.T) {
	bodies := []string{
		"raw(deadbeef)",
		"pk(" + testPubHex(1) + ")",
		"sh(wpkh(" + testPubHex(2) + "))",
		"wsh(sortedmulti(2," + testPubHex(1) + "," + testPubHex(2) + "))",
		"wpkh([d34db33f/84h/0h/0h]" + testMasterPub(t).String() + "/<0;1>/*)",
		"",
	}

	for _, body := range bodies {
		withSum, err := SourceWithChecksum(body)
		require.NoError(t, err)
		require.Len(t, withSum, len(body)+1+ChecksumLength)

		stripped, err := ValidateChecksum(withSum)
		require.NoError(t, err, body)
		assert.Equal(t, body, stripped)
	}
}

func TestValidateChecksumWithoutMarker(t *testing.T) {
	text := "pkh(" + testPubHex(3) + ")"
	stripped, err := ValidateChecksum(text)
	require.NoError(t, err)
	assert.Equal(t, text, stripped)
}

func TestChecksumRejectsSingleMutation(t *testing.T) {
	text, err := SourceWithChecksum("wpkh(" + testPubHex(1) + ")")
	require.NoError(t, err)
	marker := strings.LastIndexByte(text, '#')

	for i := 0; i < len(text); i++ {
		if i == marker {
			continue
		}
		replacement := byte('x')
		if text[i] == replacement {
			replacement = 'y'
		}
		mutated := text[:i] + string(replacement) + text[i+1:]

		_, err := New(mutated)
		if !checkError(t, mutated, err, ErrChecksumMismatch) {
			return
		}
		assert.Equal(t, Range{marker, len(text)}, err.(Error).Range)
		assert.Equal(t, StageChecksum, err.(Error).Stage())
	}
}
