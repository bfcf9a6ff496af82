package vm

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fxamacker/cbor/v2"
)

// ---------------------------------------------------------------------------
// Program images: ahead-of-time compiled artifacts on disk
// ---------------------------------------------------------------------------

// ImageMagic is the magic number identifying a telescope program image.
var ImageMagic = [4]byte{'T', 'L', 'S', 'C'}

// ImageVersion is the current image format version.
// v1: initial format
const ImageVersion uint32 = 1

var (
	// ErrBadImage indicates the input is not a telescope program image.
	ErrBadImage = errors.New("not a telescope program image")
	// ErrImageVersion indicates an unsupported image format version.
	ErrImageVersion = errors.New("unsupported image version")
)

// cborEncMode uses canonical encoding for deterministic images.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("vm: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// WriteImage serializes a program to w: a fixed header (magic, version,
// payload length) followed by the CBOR-encoded program.
func WriteImage(p *Program, w io.Writer) error {
	payload, err := cborEncMode.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode program: %w", err)
	}

	var header [12]byte
	copy(header[0:4], ImageMagic[:])
	binary.LittleEndian.PutUint32(header[4:8], ImageVersion)
	binary.LittleEndian.PutUint32(header[8:12], uint32(len(payload)))

	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("write image header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("write image payload: %w", err)
	}
	return nil
}

// ReadImage deserializes a program from r, validating magic and version.
func ReadImage(r io.Reader) (*Program, error) {
	var header [12]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("read image header: %w", err)
	}
	if !bytes.Equal(header[0:4], ImageMagic[:]) {
		return nil, ErrBadImage
	}
	version := binary.LittleEndian.Uint32(header[4:8])
	if version != ImageVersion {
		return nil, fmt.Errorf("%w: %d (expected %d)", ErrImageVersion, version, ImageVersion)
	}

	size := binary.LittleEndian.Uint32(header[8:12])
	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("read image payload: %w", err)
	}

	var p Program
	if err := cbor.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("decode program: %w", err)
	}
	if n := len(p.Instructions); n == 0 || p.Instructions[n-1].Op != OpHalt {
		return nil, fmt.Errorf("%w: instruction stream not terminated by HALT", ErrBadImage)
	}
	return &p, nil
}

// SaveImage writes a program image to the given path.
func SaveImage(p *Program, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create image file: %w", err)
	}
	defer f.Close()

	if err := WriteImage(p, f); err != nil {
		return err
	}
	return f.Close()
}

// LoadImage reads a program image from the given path.
func LoadImage(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image file: %w", err)
	}
	defer f.Close()

	return ReadImage(f)
}
