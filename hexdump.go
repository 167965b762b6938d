package logq

import (
	"fmt"
	"strings"
)

// Hex dump layout.
const (
	bytesPerLine = 16

	// hexColumnWidth is the width of a full line of grouped hex pairs:
	// 16 bytes as 8 groups of 4 digits separated by single spaces.
	hexColumnWidth = bytesPerLine*2 + bytesPerLine/2 - 1
)

// HexDump renders data as lines of 16 bytes: the offset, the bytes as hex
// pairs grouped two at a time, and an ASCII column in quotes where
// non-printable bytes appear as '.'. Every line ends with a newline.
//
//	HexDump([]byte{0, 1, 2, 3})
//	// 0x0000: 0001 0203                                '....'
func HexDump(data []byte) string {
	var b strings.Builder
	var hex, ascii strings.Builder

	for off := 0; off < len(data); off += bytesPerLine {
		end := min(off+bytesPerLine, len(data))
		hex.Reset()
		ascii.Reset()

		for i, c := range data[off:end] {
			if i > 0 && i%2 == 0 {
				hex.WriteByte(' ')
			}
			fmt.Fprintf(&hex, "%02x", c)
			ascii.WriteByte(printable(c))
		}

		fmt.Fprintf(&b, "0x%04X: %-*s  '%s'\n", off, hexColumnWidth, hex.String(), ascii.String())
	}
	return b.String()
}

// printable maps non-printable bytes to '.'.
func printable(c byte) byte {
	if c < 0x20 || c > 0x7e {
		return '.'
	}
	return c
}
