// Package file implements the engine's binary resource framer: sized,
// endian-normalized reads and writes of scalars, strings, and sequences,
// plus the sub-resource envelope used by Mesh/Material/Shader serialization.
//
// Every multi-byte scalar is stored little-endian on disk. On a big-endian
// host every element is byte-reversed in place before it reaches the wire
// (and after it's read back), so a file written on one host reads
// identically on the other.
package file

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"unsafe"
)

// Mode selects how a File is opened.
type Mode int

const (
	Read Mode = iota
	Write
	ReadWrite
)

// SubResourceTag marks whether a sub-resource envelope carries its payload
// inline or by path reference. Values match the wire format exactly.
type SubResourceTag byte

const (
	Internal SubResourceTag = 'i' // 0x69
	External SubResourceTag = 'e' // 0x65
)

// hostIsBigEndian is resolved once; linmath/vulkan targets are all
// little-endian in practice, but the reversal path is kept honest so a file
// written on a big-endian host still round-trips.
var hostIsBigEndian = func() bool {
	var x uint16 = 1
	b := (*[2]byte)(unsafe.Pointer(&x))
	return b[0] == 0
}()

// File is the engine's binary stream abstraction. A nil *os.File (failed
// open) leaves the File in a "dead" state: every read/write becomes a
// logged no-op returning a neutral value, per the error-handling design.
type File struct {
	path string
	mode Mode
	f    *os.File
	err  error
	log  func(format string, args ...any)
}

// Open opens path under mode. On failure the returned File is still usable
// (reads return zero values, writes are dropped) and logFn, if non-nil, is
// invoked once with a Configuration/IO diagnostic.
func Open(path string, mode Mode, logFn func(format string, args ...any)) *File {
	fl := &File{path: path, mode: mode, log: logFn}
	var flag int
	switch mode {
	case Read:
		flag = os.O_RDONLY
	case Write:
		flag = os.O_CREATE | os.O_TRUNC | os.O_WRONLY
	case ReadWrite:
		flag = os.O_CREATE | os.O_RDWR
	default:
		fl.fail(fmt.Errorf("file: invalid mode %d for %q", mode, path))
		return fl
	}
	f, err := os.OpenFile(path, flag, 0644)
	if err != nil {
		fl.fail(fmt.Errorf("file: open %q: %w", path, err))
		return fl
	}
	fl.f = f
	return fl
}

func (fl *File) fail(err error) {
	fl.err = err
	if fl.log != nil {
		fl.log("%v", err)
	}
}

// IsValid reports whether the underlying stream opened successfully.
func (fl *File) IsValid() bool { return fl.f != nil && fl.err == nil }

// Close releases the underlying stream, if any.
func (fl *File) Close() {
	if fl.f != nil {
		fl.f.Close()
		fl.f = nil
	}
}

// Err returns the first error encountered, if any.
func (fl *File) Err() error { return fl.err }

// Seek repositions the stream at an absolute byte offset.
func (fl *File) Seek(offset int64) {
	if !fl.IsValid() {
		return
	}
	if _, err := fl.f.Seek(offset, io.SeekStart); err != nil {
		fl.fail(err)
	}
}

// Reverse moves the stream backward by n bytes relative to its current
// position.
func (fl *File) Reverse(n int64) {
	fl.Skip(-n)
}

// Skip advances the stream by n bytes relative to its current position.
func (fl *File) Skip(n int64) {
	if !fl.IsValid() {
		return
	}
	if _, err := fl.f.Seek(n, io.SeekCurrent); err != nil {
		fl.fail(err)
	}
}

func (fl *File) writeBytes(b []byte, stride int) {
	if !fl.IsValid() {
		return
	}
	if hostIsBigEndian && stride > 1 {
		b = reverseElements(b, stride)
	}
	if _, err := fl.f.Write(b); err != nil {
		fl.fail(err)
	}
}

func (fl *File) readBytes(b []byte, stride int) {
	if !fl.IsValid() {
		for i := range b {
			b[i] = 0
		}
		return
	}
	if _, err := io.ReadFull(fl.f, b); err != nil {
		fl.fail(err)
		for i := range b {
			b[i] = 0
		}
		return
	}
	if hostIsBigEndian && stride > 1 {
		reverseElementsInPlace(b, stride)
	}
}

func reverseElements(b []byte, stride int) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	reverseElementsInPlace(out, stride)
	return out
}

func reverseElementsInPlace(b []byte, stride int) {
	for off := 0; off+stride <= len(b); off += stride {
		lo, hi := off, off+stride-1
		for lo < hi {
			b[lo], b[hi] = b[hi], b[lo]
			lo++
			hi--
		}
	}
}

// WriteU32 writes a little-endian uint32. The value is packed in native
// order; writeBytes performs the per-element reversal that normalizes it to
// little-endian on big-endian hosts.
func (fl *File) WriteU32(v uint32) {
	var b [4]byte
	binary.NativeEndian.PutUint32(b[:], v)
	fl.writeBytes(b[:], 4)
}

// ReadU32 reads a little-endian uint32, or 0 on failure.
func (fl *File) ReadU32() uint32 {
	var b [4]byte
	fl.readBytes(b[:], 4)
	return binary.NativeEndian.Uint32(b[:])
}

// WriteU16 writes a little-endian uint16.
func (fl *File) WriteU16(v uint16) {
	var b [2]byte
	binary.NativeEndian.PutUint16(b[:], v)
	fl.writeBytes(b[:], 2)
}

// ReadU16 reads a little-endian uint16, or 0 on failure.
func (fl *File) ReadU16() uint16 {
	var b [2]byte
	fl.readBytes(b[:], 2)
	return binary.NativeEndian.Uint16(b[:])
}

// WriteU8 writes a single byte (no endian concerns at stride 1).
func (fl *File) WriteU8(v byte) { fl.writeBytes([]byte{v}, 1) }

// ReadU8 reads a single byte, or 0 on failure.
func (fl *File) ReadU8() byte {
	var b [1]byte
	fl.readBytes(b[:], 1)
	return b[0]
}

// WriteF32 writes a little-endian IEEE-754 float32.
func (fl *File) WriteF32(v float32) { fl.WriteU32(math.Float32bits(v)) }

// ReadF32 reads a little-endian IEEE-754 float32, or 0 on failure.
func (fl *File) ReadF32() float32 { return math.Float32frombits(fl.ReadU32()) }

// WriteF32Slice writes a fixed number of float32s back to back with no
// length prefix (used for packed vertex fields and uniform matrices).
func (fl *File) WriteF32Slice(v []float32) {
	for _, f := range v {
		fl.WriteF32(f)
	}
}

// ReadF32Slice reads n float32s with no length prefix.
func (fl *File) ReadF32Slice(n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = fl.ReadF32()
	}
	return out
}

// WriteString writes a length-prefixed UTF-8 string.
func (fl *File) WriteString(s string) {
	fl.WriteU32(uint32(len(s)))
	fl.writeBytes([]byte(s), 1)
}

// ReadString reads a length-prefixed UTF-8 string, or "" on failure.
func (fl *File) ReadString() string {
	n := fl.ReadU32()
	if !fl.IsValid() || n == 0 {
		return ""
	}
	b := make([]byte, n)
	fl.readBytes(b, 1)
	return string(b)
}

// WriteU16Seq writes a length-prefixed sequence of uint16 (e.g. mesh
// indices).
func (fl *File) WriteU16Seq(v []uint16) {
	fl.WriteU32(uint32(len(v)))
	for _, x := range v {
		fl.WriteU16(x)
	}
}

// ReadU16Seq reads a length-prefixed sequence of uint16.
func (fl *File) ReadU16Seq() []uint16 {
	n := fl.ReadU32()
	out := make([]uint16, n)
	for i := range out {
		out[i] = fl.ReadU16()
	}
	return out
}

// WriteAllText writes s as the entire remaining contents of the file.
func (fl *File) WriteAllText(s string) { fl.writeBytes([]byte(s), 1) }

// ReadAllText reads every remaining byte as a string, or "" on failure.
func (fl *File) ReadAllText() string {
	if !fl.IsValid() {
		return ""
	}
	b, err := io.ReadAll(fl.f)
	if err != nil {
		fl.fail(err)
		return ""
	}
	return string(b)
}

// WriteSubResourceInline writes the "internal" envelope tag followed by a
// caller-supplied payload writer.
func (fl *File) WriteSubResourceInline(write func(*File)) {
	fl.WriteU8(byte(Internal))
	write(fl)
}

// WriteSubResourceExternal writes the "external" envelope tag followed by
// the referenced path.
func (fl *File) WriteSubResourceExternal(path string) {
	fl.WriteU8(byte(External))
	fl.WriteString(path)
}

// ReadSubResourceTag reads the envelope tag byte that precedes every
// sub-resource.
func (fl *File) ReadSubResourceTag() SubResourceTag { return SubResourceTag(fl.ReadU8()) }
