package evaluator

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"os"

	"github.com/gofrs/uuid"
	"github.com/pkg/errors"
)

// Binary layout, little-endian:
//   - 4 bytes magic/version: 'B', 'L', major 1, minor 0
//   - 16 bytes ID, 16 bytes parent ID
//   - uint32 generation, float64 sigma, int64 fitness
//   - uint32 inputs, uint32 outputs, uint32 hidden layer count,
//     uint32 per hidden layer size
//   - per layer: row-major weights (outputs x inputs) then biases, float64
var magic = [4]byte{66, 76, 1, 0}

type header struct {
	ID         [16]byte
	ParentID   [16]byte
	Generation uint32
	Sigma      float64
	Fitness    int64
	Inputs     uint32
	Outputs    uint32
	Hidden     uint32
}

func (e *Evaluator) Save(w io.Writer) error {
	if _, err := w.Write(magic[:]); err != nil {
		return err
	}
	var h = header{
		ID:         e.ID,
		ParentID:   e.ParentID,
		Generation: uint32(e.Generation),
		Sigma:      e.Sigma,
		Fitness:    e.Fitness(),
		Inputs:     uint32(e.inputSize),
		Outputs:    1,
		Hidden:     uint32(len(HiddenNeurons)),
	}
	if err := binary.Write(w, binary.LittleEndian, &h); err != nil {
		return err
	}
	for _, n := range HiddenNeurons {
		if err := binary.Write(w, binary.LittleEndian, uint32(n)); err != nil {
			return err
		}
	}
	var err error
	e.eachParam(func(data []float64) {
		if err == nil {
			err = binary.Write(w, binary.LittleEndian, data)
		}
	})
	return err
}

func Load(r io.Reader) (*Evaluator, error) {
	var m [4]byte
	if _, err := io.ReadFull(r, m[:]); err != nil {
		return nil, errors.Wrap(err, "read magic")
	}
	if m[0] != magic[0] || m[1] != magic[1] {
		return nil, errors.New("magic word does not match expected")
	}
	if m[2] != magic[2] || m[3] != magic[3] {
		return nil, errors.Errorf("network binary format %v.%v is not supported", m[2], m[3])
	}

	var h header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, errors.Wrap(err, "read header")
	}
	if h.Outputs != 1 || h.Hidden != uint32(len(HiddenNeurons)) {
		return nil, errors.Errorf("unexpected topology %v-%v-%v", h.Inputs, h.Hidden, h.Outputs)
	}
	if _, ok := minWindowFor(int(h.Inputs)); !ok {
		return nil, errors.Wrapf(ErrDimensionMismatch, "%v inputs is not a window feature length", h.Inputs)
	}
	var hidden = make([]uint32, h.Hidden)
	if err := binary.Read(r, binary.LittleEndian, hidden); err != nil {
		return nil, errors.Wrap(err, "read topology")
	}
	for i, n := range hidden {
		if int(n) != HiddenNeurons[i] {
			return nil, errors.Errorf("unexpected hidden layer %v size %v", i, n)
		}
	}

	var e = newEmpty(int(h.Inputs))
	e.ID = uuid.UUID(h.ID)
	e.ParentID = uuid.UUID(h.ParentID)
	e.Generation = int(h.Generation)
	e.Sigma = h.Sigma
	e.fitness = h.Fitness
	var err error
	e.eachParam(func(data []float64) {
		if err == nil {
			err = binary.Read(r, binary.LittleEndian, data)
		}
	})
	if err != nil {
		return nil, errors.Wrap(err, "read parameters")
	}
	return e, nil
}

func (e *Evaluator) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(8 * (e.Params() + 16))
	if err := e.Save(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *Evaluator) UnmarshalBinary(data []byte) error {
	var loaded, err = Load(bytes.NewReader(data))
	if err != nil {
		return err
	}
	*e = *loaded
	return nil
}

func (e *Evaluator) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	var w = bufio.NewWriter(f)
	if err := e.Save(w); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return f.Close()
}

func LoadFile(path string) (*Evaluator, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	e, err := Load(bufio.NewReader(f))
	if err != nil {
		return nil, errors.Wrapf(err, "load %v", path)
	}
	return e, nil
}
