package composite

import (
	"errors"
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// Robust Video Matting ONNX graph names.
var (
	rvmInputs  = []string{"src", "r1i", "r2i", "r3i", "r4i", "downsample_ratio"}
	rvmOutputs = []string{"fgr", "pha", "r1o", "r2o", "r3o", "r4o"}
)

// The ONNX Runtime environment is process-wide.
var (
	ortMu   sync.Mutex
	ortRefs int
)

func acquireRuntime(library string) error {
	ortMu.Lock()
	defer ortMu.Unlock()
	if ortRefs == 0 {
		if library != "" {
			ort.SetSharedLibraryPath(library)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return fmt.Errorf("initialize onnxruntime: %w", err)
		}
	}
	ortRefs++
	return nil
}

func releaseRuntime() error {
	ortMu.Lock()
	defer ortMu.Unlock()
	if ortRefs == 0 {
		return nil
	}
	ortRefs--
	if ortRefs == 0 {
		return ort.DestroyEnvironment()
	}
	return nil
}

// ONNXMatter runs Robust Video Matting. The four recurrent states start as
// zeros and each frame's outputs feed the next frame.
type ONNXMatter struct {
	session   *ort.DynamicAdvancedSession
	width     int
	height    int
	src       *ort.Tensor[float32]
	ratio     *ort.Tensor[float32]
	recurrent [4]ort.Value
	fgr       []byte
	alpha     []byte
	closed    bool
}

// NewONNXMatter loads modelPath for frames of width x height.
func NewONNXMatter(modelPath, library string, downsampleRatio float64, width, height int) (*ONNXMatter, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("matting model: %w", err)
	}
	if downsampleRatio <= 0 || downsampleRatio > 1 {
		return nil, fmt.Errorf("downsample ratio %.2f must be in (0, 1]", downsampleRatio)
	}
	if err := acquireRuntime(library); err != nil {
		return nil, err
	}
	m := &ONNXMatter{
		width:  width,
		height: height,
		fgr:    make([]byte, width*height*3),
		alpha:  make([]byte, width*height),
	}

	var err error
	m.session, err = ort.NewDynamicAdvancedSession(modelPath, rvmInputs, rvmOutputs, nil)
	if err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("load matting model %s: %w", modelPath, err)
	}
	m.src, err = ort.NewEmptyTensor[float32](ort.NewShape(1, 3, int64(height), int64(width)))
	if err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("allocate input tensor: %w", err)
	}
	m.ratio, err = ort.NewTensor(ort.NewShape(1), []float32{float32(downsampleRatio)})
	if err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("allocate ratio tensor: %w", err)
	}
	for i := range m.recurrent {
		state, err := ort.NewTensor(ort.NewShape(1, 1, 1, 1), []float32{0})
		if err != nil {
			_ = m.Close()
			return nil, fmt.Errorf("allocate recurrent state: %w", err)
		}
		m.recurrent[i] = state
	}
	return m, nil
}

// Matte implements Matter.
func (m *ONNXMatter) Matte(frame []byte) ([]byte, []byte, error) {
	if m.closed {
		return nil, nil, errors.New("matter closed")
	}
	if len(frame) != m.width*m.height*3 {
		return nil, nil, fmt.Errorf("frame is %d bytes, want %d", len(frame), m.width*m.height*3)
	}
	packCHW(m.src.GetData(), frame, m.width*m.height)

	inputs := []ort.Value{m.src, m.recurrent[0], m.recurrent[1], m.recurrent[2], m.recurrent[3], m.ratio}
	outputs := make([]ort.Value, len(rvmOutputs))
	if err := m.session.Run(inputs, outputs); err != nil {
		destroyValues(outputs)
		return nil, nil, fmt.Errorf("run matting model: %w", err)
	}

	fgr, okF := outputs[0].(*ort.Tensor[float32])
	pha, okA := outputs[1].(*ort.Tensor[float32])
	if !okF || !okA {
		destroyValues(outputs)
		return nil, nil, errors.New("matting model returned non-float32 outputs")
	}
	phaData := pha.GetData()
	validAlpha := len(phaData) == len(m.alpha)
	unpackCHW(m.fgr, fgr.GetData(), m.width*m.height)
	if validAlpha {
		toBytes(m.alpha, phaData)
	}
	_ = fgr.Destroy()
	_ = pha.Destroy()

	for i := range m.recurrent {
		_ = m.recurrent[i].Destroy()
		m.recurrent[i] = outputs[i+2]
	}
	if !validAlpha {
		return m.fgr, nil, nil
	}
	return m.fgr, m.alpha, nil
}

// Close releases tensors, the session, and the runtime reference.
func (m *ONNXMatter) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	var errs []error
	for _, v := range m.recurrent {
		if v != nil {
			errs = append(errs, v.Destroy())
		}
	}
	if m.src != nil {
		errs = append(errs, m.src.Destroy())
	}
	if m.ratio != nil {
		errs = append(errs, m.ratio.Destroy())
	}
	if m.session != nil {
		errs = append(errs, m.session.Destroy())
	}
	errs = append(errs, releaseRuntime())
	return errors.Join(errs...)
}

func destroyValues(values []ort.Value) {
	for _, v := range values {
		if v != nil {
			_ = v.Destroy()
		}
	}
}

// packCHW converts interleaved rgb24 bytes to planar floats in [0, 1].
func packCHW(dst []float32, src []byte, pixels int) {
	for i := 0; i < pixels; i++ {
		dst[i] = float32(src[i*3]) / 255
		dst[pixels+i] = float32(src[i*3+1]) / 255
		dst[2*pixels+i] = float32(src[i*3+2]) / 255
	}
}

// unpackCHW converts planar floats in [0, 1] back to interleaved rgb24.
func unpackCHW(dst []byte, src []float32, pixels int) {
	if len(src) < pixels*3 {
		return
	}
	for i := 0; i < pixels; i++ {
		dst[i*3] = unitToByte(src[i])
		dst[i*3+1] = unitToByte(src[pixels+i])
		dst[i*3+2] = unitToByte(src[2*pixels+i])
	}
}

func toBytes(dst []byte, src []float32) {
	for i, v := range src {
		dst[i] = unitToByte(v)
	}
}

// unitToByte scales [0, 1] to 0..255, truncating.
func unitToByte(v float32) byte {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	default:
		return byte(v * 255)
	}
}
