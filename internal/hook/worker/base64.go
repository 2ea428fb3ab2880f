// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

package worker

import "fmt"

// Minimal base64 codec, standard alphabet with '=' padding. The worker
// carries its own codec so that its dependency surface stays the bytecode
// runtime and nothing else; both ends of the protocol agree on exactly
// this dialect: line breaks are stripped, input length must be a multiple
// of four, and any character outside the alphabet is rejected.

const b64Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

var b64Reverse = func() [256]int16 {
	var table [256]int16
	for i := range table {
		table[i] = -1
	}
	for i := 0; i < len(b64Alphabet); i++ {
		table[b64Alphabet[i]] = int16(i)
	}
	return table
}()

// b64Encode encodes data with the standard alphabet and '=' padding.
func b64Encode(data []byte) string {
	if len(data) == 0 {
		return ""
	}

	out := make([]byte, 0, (len(data)+2)/3*4)
	i := 0
	for ; i+3 <= len(data); i += 3 {
		v := uint32(data[i])<<16 | uint32(data[i+1])<<8 | uint32(data[i+2])
		out = append(out,
			b64Alphabet[v>>18&0x3f],
			b64Alphabet[v>>12&0x3f],
			b64Alphabet[v>>6&0x3f],
			b64Alphabet[v&0x3f],
		)
	}

	switch len(data) - i {
	case 1:
		v := uint32(data[i]) << 16
		out = append(out, b64Alphabet[v>>18&0x3f], b64Alphabet[v>>12&0x3f], '=', '=')
	case 2:
		v := uint32(data[i])<<16 | uint32(data[i+1])<<8
		out = append(out, b64Alphabet[v>>18&0x3f], b64Alphabet[v>>12&0x3f], b64Alphabet[v>>6&0x3f], '=')
	}

	return string(out)
}

// b64Decode decodes s, stripping CR and LF first. The stripped input must
// be a multiple of four bytes; '=' padding is only valid in the final
// group, in the last one or two positions.
func b64Decode(s string) ([]byte, error) {
	stripped := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\r' || s[i] == '\n' {
			continue
		}
		stripped = append(stripped, s[i])
	}

	if len(stripped) == 0 {
		return nil, nil
	}
	if len(stripped)%4 != 0 {
		return nil, fmt.Errorf("length %d is not a multiple of 4", len(stripped))
	}

	out := make([]byte, 0, len(stripped)/4*3)
	for i := 0; i < len(stripped); i += 4 {
		group := stripped[i : i+4]
		final := i+4 == len(stripped)

		pad := 0
		for j := 3; j >= 0 && group[j] == '='; j-- {
			pad++
		}
		if pad > 2 {
			return nil, fmt.Errorf("invalid padding at offset %d", i)
		}
		if pad > 0 && !final {
			return nil, fmt.Errorf("padding before end of input at offset %d", i)
		}

		var v uint32
		for j := 0; j < 4-pad; j++ {
			idx := b64Reverse[group[j]]
			if idx < 0 {
				return nil, fmt.Errorf("invalid character %q at offset %d", group[j], i+j)
			}
			v |= uint32(idx) << uint(18-6*j)
		}

		out = append(out, byte(v>>16))
		if pad < 2 {
			out = append(out, byte(v>>8))
		}
		if pad < 1 {
			out = append(out, byte(v))
		}
	}

	return out, nil
}
