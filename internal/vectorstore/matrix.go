// eventreco - personalized event recommendation engine
// SPDX-License-Identifier: AGPL-3.0-or-later

package vectorstore

import (
	"encoding/binary"
	"fmt"
	"math"
)

// EncodeMatrix serializes a row-major matrix as little-endian float32,
// the fixed on-disk layout for matrix.bin.
func EncodeMatrix(matrix [][]float32) []byte {
	if len(matrix) == 0 {
		return []byte{}
	}
	dim := len(matrix[0])
	buf := make([]byte, len(matrix)*dim*4)
	offset := 0
	for _, row := range matrix {
		for _, v := range row {
			binary.LittleEndian.PutUint32(buf[offset:offset+4], math.Float32bits(v))
			offset += 4
		}
	}
	return buf
}

// DecodeMatrix parses raw little-endian float32 bytes into a row-major
// matrix of the given dimension. An empty byte slice decodes to zero rows.
func DecodeMatrix(data []byte, dim int) ([][]float32, error) {
	if len(data) == 0 {
		return [][]float32{}, nil
	}
	if dim <= 0 {
		return nil, fmt.Errorf("invalid dimension %d", dim)
	}
	rowBytes := dim * 4
	if len(data)%rowBytes != 0 {
		return nil, fmt.Errorf("matrix byte length %d is not a multiple of row size %d", len(data), rowBytes)
	}
	rows := len(data) / rowBytes
	out := make([][]float32, rows)
	for r := 0; r < rows; r++ {
		row := make([]float32, dim)
		base := r * rowBytes
		for c := 0; c < dim; c++ {
			bits := binary.LittleEndian.Uint32(data[base+c*4 : base+c*4+4])
			row[c] = math.Float32frombits(bits)
		}
		out[r] = row
	}
	return out, nil
}
