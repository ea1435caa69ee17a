package raid

import (
	"encoding/binary"
	"hash/crc32"
	"io"
)

// HeaderSize is the fixed on-disk size in bytes of a stripe header. It is
// written at offset 0 of every stripe file, ahead of the data blocks.
const HeaderSize = 64

const headerMagic uint32 = 0x52414944 // "RAID"

// headerVersion is bumped whenever the on-disk layout of Header changes.
const headerVersion uint32 = 1

// Header describes one stripe file's place in a logical file's layout.
// It is written and re-written by the LayoutCoordinator every time the
// stripe's block count changes, and read back by HeaderValidator at Open
// to rebuild the logical-to-physical stripe map.
type Header struct {
	StripeID      uint32 // logical stripe id, 0..N+P-1
	NBlocks       uint64 // number of data+parity blocks written to this stripe
	LastBlockSize uint32 // size in bytes of the final, possibly short, block
	Valid         bool   // false marks a header HeaderValidator must not trust
}

// checksum computes the CRC32 of every header field except the checksum
// itself, so WriteTo and the decode path in ReadHeaderFrom agree on layout.
func (h *Header) checksum() uint32 {
	buf := make([]byte, HeaderSize-4)
	h.encodeInto(buf)
	return crc32.ChecksumIEEE(buf)
}

func (h *Header) encodeInto(buf []byte) {
	binary.BigEndian.PutUint32(buf[0:4], headerMagic)
	binary.BigEndian.PutUint32(buf[4:8], headerVersion)
	binary.BigEndian.PutUint32(buf[8:12], h.StripeID)
	binary.BigEndian.PutUint64(buf[12:20], h.NBlocks)
	binary.BigEndian.PutUint32(buf[20:24], h.LastBlockSize)
	if h.Valid {
		buf[24] = 1
	} else {
		buf[24] = 0
	}
}

// WriteTo serializes the header to its fixed HeaderSize representation.
func (h *Header) WriteTo(w io.Writer) (int64, error) {
	buf := make([]byte, HeaderSize)
	h.encodeInto(buf)
	binary.BigEndian.PutUint32(buf[HeaderSize-4:HeaderSize], h.checksum())

	n, err := w.Write(buf)
	return int64(n), err
}

// ReadHeaderFrom decodes a Header from its fixed HeaderSize representation.
// It always returns a non-nil Header, even on error, so a caller that needs
// to report which stripe failed can still read StripeID off a header whose
// checksum did not match - the magic/version/id fields
// sit outside the part of the layout most likely to have been torn by a
// partial write, so they often still carry useful information.
func ReadHeaderFrom(r io.Reader) (*Header, error) {
	buf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return &Header{}, err
	}

	h := &Header{
		StripeID:      binary.BigEndian.Uint32(buf[8:12]),
		NBlocks:       binary.BigEndian.Uint64(buf[12:20]),
		LastBlockSize: binary.BigEndian.Uint32(buf[20:24]),
		Valid:         buf[24] == 1,
	}

	magic := binary.BigEndian.Uint32(buf[0:4])
	version := binary.BigEndian.Uint32(buf[4:8])
	wantCRC := binary.BigEndian.Uint32(buf[HeaderSize-4 : HeaderSize])

	if magic != headerMagic || version != headerVersion || wantCRC != h.checksum() {
		return h, ErrHeaderCorrupt
	}

	return h, nil
}
