package descriptor

import (
	"fmt"
	"strings"
)

const (
	// ChecksumLength is the number of characters following the '#' marker.
	ChecksumLength = 8

	inputCharset = "0123456789()[],'/*abcdefgh@:$%{}" +
		"IJKLMNOPQRSTUVWXYZ&+-.;<=>?!^_|~" +
		"ijklmnopqrstuvwxyzABCDEFGH`#\"\\ "

	checksumCharset = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"
)

var generator = [5]uint64{
	0xf5dee51989, 0xa9fdca3312, 0x1bab10e32d, 0x3706b1677a, 0x644d626ffd,
}

func polymod(c uint64, val uint64) uint64 {
	c0 := c >> 35
	c = ((c & 0x7ffffffff) << 5) ^ val
	for i := 0; i < 5; i++ {
		if (c0>>uint(i))&1 != 0 {
			c ^= generator[i]
		}
	}
	return c
}

// Checksum computes the 8 character descriptor checksum of text. It only
// fails when text contains a character outside the descriptor alphabet.
func Checksum(text string) (string, error) {
	c := uint64(1)
	cls := uint64(0)
	clsCount := 0
	for i := 0; i < len(text); i++ {
		pos := strings.IndexByte(inputCharset, text[i])
		if pos < 0 {
			str := fmt.Sprintf("invalid character %q in descriptor", text[i])
			return "", descError(ErrInvalidCharacter, str, Range{i, i + 1}, nil)
		}

		// Emit a symbol for the position inside the group, for every
		// character.
		c = polymod(c, uint64(pos)&31)

		// Accumulate the group numbers.
		cls = cls*3 + uint64(pos>>5)
		clsCount++
		if clsCount == 3 {
			c = polymod(c, cls)
			cls = 0
			clsCount = 0
		}
	}
	if clsCount > 0 {
		c = polymod(c, cls)
	}
	for i := 0; i < ChecksumLength; i++ {
		c = polymod(c, 0)
	}
	c ^= 1

	var sum [ChecksumLength]byte
	for i := 0; i < ChecksumLength; i++ {
		sum[i] = checksumCharset[(c>>(5*(7-uint(i))))&31]
	}
	return string(sum[:]), nil
}

// SourceWithChecksum returns text followed by '#' and its checksum.
func SourceWithChecksum(text string) (string, error) {
	sum, err := Checksum(text)
	if err != nil {
		return "", err
	}
	return text + "#" + sum, nil
}

// ValidateChecksum strips and verifies a trailing checksum. Only the text
// after the last '#' is treated as the checksum. Text without a '#' is
// returned unchanged.
func ValidateChecksum(text string) (string, error) {
	idx := strings.LastIndexByte(text, '#')
	if idx < 0 {
		return text, nil
	}

	body, sum := text[:idx], text[idx+1:]
	sumRange := Range{idx, len(text)}
	if len(sum) != ChecksumLength {
		str := fmt.Sprintf("checksum must be %d characters, got %d",
			ChecksumLength, len(sum))
		return "", descError(ErrChecksumLength, str, sumRange, nil)
	}

	want, err := Checksum(body)
	if err != nil {
		return "", err
	}
	if sum != want {
		str := fmt.Sprintf("checksum mismatch: got %s, want %s", sum, want)
		return "", descError(ErrChecksumMismatch, str, sumRange, nil)
	}

	return body, nil
}
