package testgen

import (
	"bytes"
	"encoding/binary"
)

// MP4Bytes builds a minimal MP4: an ftyp box, and, when a duration is set, a
// moov box whose mvhd carries the movie timescale and duration. The file has
// no media tracks, which is enough for both content sniffing and duration
// probing.
func MP4Bytes(opts MP4Options) []byte {
	var buf bytes.Buffer

	writeBox(&buf, "ftyp", func(b *bytes.Buffer) {
		b.WriteString("isom")                            // major brand
		binary.Write(b, binary.BigEndian, uint32(0x200)) //nolint:errcheck // minor version
		b.WriteString("isom")
		b.WriteString("mp42")
	})

	if opts.DurationMS > 0 {
		timescale := opts.Timescale
		if timescale == 0 {
			timescale = 1000
		}
		duration := uint32(opts.DurationMS * int64(timescale) / 1000)

		writeBox(&buf, "moov", func(b *bytes.Buffer) {
			writeBox(b, "mvhd", func(b *bytes.Buffer) {
				binary.Write(b, binary.BigEndian, uint32(0))          //nolint:errcheck // version + flags
				binary.Write(b, binary.BigEndian, uint32(0))          //nolint:errcheck // creation time
				binary.Write(b, binary.BigEndian, uint32(0))          //nolint:errcheck // modification time
				binary.Write(b, binary.BigEndian, timescale)          //nolint:errcheck
				binary.Write(b, binary.BigEndian, duration)           //nolint:errcheck
				binary.Write(b, binary.BigEndian, uint32(0x00010000)) //nolint:errcheck // rate
				binary.Write(b, binary.BigEndian, uint16(0x0100))     //nolint:errcheck // volume
				b.Write(make([]byte, 10))                             // reserved
				for _, v := range [9]uint32{0x00010000, 0, 0, 0, 0x00010000, 0, 0, 0, 0x40000000} {
					binary.Write(b, binary.BigEndian, v) //nolint:errcheck // unity matrix
				}
				b.Write(make([]byte, 24))                    // pre-defined
				binary.Write(b, binary.BigEndian, uint32(2)) //nolint:errcheck // next track id
			})
		})
	}

	return buf.Bytes()
}

func writeBox(buf *bytes.Buffer, boxType string, body func(*bytes.Buffer)) {
	var inner bytes.Buffer
	body(&inner)

	binary.Write(buf, binary.BigEndian, uint32(8+inner.Len())) //nolint:errcheck
	buf.WriteString(boxType)
	buf.Write(inner.Bytes())
}
