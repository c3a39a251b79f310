package model

import (
	"errors"
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/multierr"
	"k8s.io/klog/v2"
)

var (
	ErrModelNotFound         = errors.New("model artifact not found")
	ErrRuntimeNotInitialized = errors.New("onnx runtime is not initialized")
)

// InitRuntime loads the onnxruntime shared library. It must be called once
// per process before any session is created.
func InitRuntime(libPath string) error {
	if libPath != "" {
		ort.SetSharedLibraryPath(libPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}
	return nil
}

func ShutdownRuntime() error {
	return ort.DestroyEnvironment()
}

// Session is a loaded model with its pre-allocated input and output tensors.
// Run calls are serialized because the tensors are shared.
type Session struct {
	Metadata Metadata

	mu           sync.Mutex
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	inputSize    int
}

func NewSession(modelPath string, meta Metadata) (*Session, error) {
	if err := CheckArtifact(modelPath); err != nil {
		return nil, err
	}
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	if !ort.IsInitialized() {
		return nil, ErrRuntimeNotInitialized
	}

	inputSize, _ := Elements(meta.InputShape)

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(meta.InputShape...))
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(meta.OutputShape...))
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{meta.InputName}, []string{meta.OutputName},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("failed to create ONNX session for %q: %w", modelPath, err)
	}

	klog.V(2).Infof("Loaded model %s (input %v, output %v)", modelPath, meta.InputShape, meta.OutputShape)

	return &Session{
		Metadata:     meta,
		session:      session,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
		inputSize:    inputSize,
	}, nil
}

// Run performs one forward pass and returns a copy of the flattened output.
func (s *Session) Run(input []float32) ([]float32, error) {
	if len(input) != s.inputSize {
		return nil, fmt.Errorf("input has %d values, model expects %d", len(input), s.inputSize)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy(s.inputTensor.GetData(), input)
	if err := s.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	out := s.outputTensor.GetData()
	result := make([]float32, len(out))
	copy(result, out)
	return result, nil
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if s.inputTensor != nil {
		err = multierr.Append(err, s.inputTensor.Destroy())
		s.inputTensor = nil
	}
	if s.outputTensor != nil {
		err = multierr.Append(err, s.outputTensor.Destroy())
		s.outputTensor = nil
	}
	if s.session != nil {
		err = multierr.Append(err, s.session.Destroy())
		s.session = nil
	}
	return err
}

// CheckArtifact verifies that path names a non-empty regular file.
func CheckArtifact(path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w at %s", ErrModelNotFound, path)
	}
	if err != nil {
		return fmt.Errorf("failed to stat model %q: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("model path %q is a directory", path)
	}
	if info.Size() == 0 {
		return fmt.Errorf("model file %q is empty", path)
	}
	return nil
}
