package qr

import (
	"encoding/binary"
	"fmt"
	"io"

	qrcode "github.com/skip2/go-qrcode"
)

// STLOptions controls the geometry of the printable QR plate. Units are
// millimeters in most slicers.
type STLOptions struct {
	// Edge length of one QR module cube
	CubeSize float64

	// Height of the raised cubes above the plate
	Height float64

	// Thickness of the background plate
	PlateThickness float64
}

// DefaultSTLOptions matches a comfortably scannable desk sign.
func DefaultSTLOptions() STLOptions {
	return STLOptions{CubeSize: 1.0, Height: 2.0, PlateThickness: 1.0}
}

// Matrix encodes url as a QR code and returns its module matrix, quiet zone
// included; true means a dark module.
func Matrix(url string) ([][]bool, error) {
	code, err := qrcode.New(url, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}
	return code.Bitmap(), nil
}

// PNG renders url as a QR code PNG of the given pixel size.
func PNG(url string, size int) ([]byte, error) {
	data, err := qrcode.Encode(url, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to render QR code: %w", err)
	}
	return data, nil
}

// WriteSTL writes a binary STL mesh of the QR matrix: a background plate with
// one cube per dark module on top, ready for two-color printing.
func WriteSTL(w io.Writer, matrix [][]bool, opts STLOptions) error {
	if len(matrix) == 0 {
		return fmt.Errorf("empty QR matrix")
	}

	rows := len(matrix)
	cols := len(matrix[0])
	c := opts.CubeSize

	var m mesh

	// Background plate spans the whole code; y grows downward so the
	// printed code reads the same way as the PNG.
	plateW := float64(cols) * c
	plateH := float64(rows) * c
	m.addBox(0, -plateH, 0, plateW, 0, opts.PlateThickness)

	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if !matrix[y][x] {
				continue
			}
			m.addBox(
				float64(x)*c, -float64(y)*c-c, opts.PlateThickness,
				float64(x)*c+c, -float64(y)*c, opts.PlateThickness+opts.Height,
			)
		}
	}

	return m.encode(w)
}

type vertex [3]float32

type triangle struct {
	normal vertex
	v      [3]vertex
}

type mesh struct {
	triangles []triangle
}

func (m *mesh) add(nx, ny, nz float32, a, b, c vertex) {
	m.triangles = append(m.triangles, triangle{normal: vertex{nx, ny, nz}, v: [3]vertex{a, b, c}})
}

// addBox appends the 12 triangles of an axis-aligned box.
func (m *mesh) addBox(x0, y0, z0, x1, y1, z1 float64) {
	a := func(x, y, z float64) vertex { return vertex{float32(x), float32(y), float32(z)} }

	// bottom (z = z0) and top (z = z1)
	m.add(0, 0, -1, a(x0, y0, z0), a(x1, y1, z0), a(x1, y0, z0))
	m.add(0, 0, -1, a(x0, y0, z0), a(x0, y1, z0), a(x1, y1, z0))
	m.add(0, 0, 1, a(x0, y0, z1), a(x1, y0, z1), a(x1, y1, z1))
	m.add(0, 0, 1, a(x0, y0, z1), a(x1, y1, z1), a(x0, y1, z1))

	// front (y = y0) and back (y = y1)
	m.add(0, -1, 0, a(x0, y0, z0), a(x1, y0, z0), a(x1, y0, z1))
	m.add(0, -1, 0, a(x0, y0, z0), a(x1, y0, z1), a(x0, y0, z1))
	m.add(0, 1, 0, a(x0, y1, z0), a(x1, y1, z1), a(x1, y1, z0))
	m.add(0, 1, 0, a(x0, y1, z0), a(x0, y1, z1), a(x1, y1, z1))

	// left (x = x0) and right (x = x1)
	m.add(-1, 0, 0, a(x0, y0, z0), a(x0, y0, z1), a(x0, y1, z1))
	m.add(-1, 0, 0, a(x0, y0, z0), a(x0, y1, z1), a(x0, y1, z0))
	m.add(1, 0, 0, a(x1, y0, z0), a(x1, y1, z1), a(x1, y0, z1))
	m.add(1, 0, 0, a(x1, y0, z0), a(x1, y1, z0), a(x1, y1, z1))
}

// encode writes the mesh in binary STL format: an 80-byte header, a uint32
// triangle count, then 50 bytes per triangle.
func (m *mesh) encode(w io.Writer) error {
	var header [80]byte
	copy(header[:], "guestsnap QR plate")
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("failed to write STL header: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(m.triangles))); err != nil {
		return fmt.Errorf("failed to write STL triangle count: %w", err)
	}

	for _, t := range m.triangles {
		if err := binary.Write(w, binary.LittleEndian, t.normal); err != nil {
			return err
		}
		for _, v := range t.v {
			if err := binary.Write(w, binary.LittleEndian, v); err != nil {
				return err
			}
		}
		if err := binary.Write(w, binary.LittleEndian, uint16(0)); err != nil {
			return err
		}
	}
	return nil
}
