package table

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"math"
)

// Domain prefixes keep identities of different object kinds from colliding.
const (
	DomainInput   = "telefilter/input/v1"
	DomainContent = "telefilter/content/v1"
	DomainDerived = "telefilter/derived/v1"
)

// HashWithDomain computes SHA256(domain + 0x00 + part0 + 0x00 + part1 ...).
func HashWithDomain(domain string, parts ...[]byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	for _, p := range parts {
		h.Write([]byte{0x00})
		h.Write(p)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Digest hashes the name, kind and every cell of each column.
func Digest(d *Dataset) string {
	h := sha256.New()
	h.Write([]byte(DomainContent))
	h.Write([]byte{0x00})
	writeLen(h, d.rows)
	writeLen(h, len(d.cols))
	for _, c := range d.cols {
		writeString(h, c.name)
		writeString(h, string(c.kind))
		for i := 0; i < c.Len(); i++ {
			if c.null[i] {
				h.Write([]byte{0})
				continue
			}
			h.Write([]byte{1})
			if c.kind == KindNumeric {
				var b [8]byte
				binary.LittleEndian.PutUint64(b[:], math.Float64bits(c.nums[i]))
				h.Write(b[:])
			} else {
				writeString(h, c.strs[i])
			}
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeLen(h hash.Hash, n int) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(n))
	h.Write(b[:])
}

func writeString(h hash.Hash, s string) {
	writeLen(h, len(s))
	h.Write([]byte(s))
}
