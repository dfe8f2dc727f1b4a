package nvsettings

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

func encode(s *Settings) []byte {
	var buf bytes.Buffer
	// Settings is entirely fixed-size fields, so this never errors.
	_ = binary.Write(&buf, binary.LittleEndian, s)
	return buf.Bytes()
}

func decode(data []byte) Settings {
	var s Settings
	_ = binary.Read(bytes.NewReader(data), binary.LittleEndian, &s)
	return s
}

func encodedSize() int {
	return binary.Size(Settings{})
}

func formatParam(index int, value float32, name string) string {
	return fmt.Sprintf("$%d = %s (%s)", index, formatFloat(value), name)
}

func formatFloat(v float32) string {
	return fmt.Sprintf("%.4g", v)
}

// crc8 computes the iButton-variant CRC-8 (polynomial 0x8C, reflected)
// spec.md §4.5/§6 calls for, one byte at a time the same way
// host-i386.c's host_crc8 folds it into the running checksum.
func crc8(data []byte) uint8 {
	var crc uint8
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&1 != 0 {
				crc = (crc >> 1) ^ 0x8C
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}
