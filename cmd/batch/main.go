// Command batch runs a power-data series through the power model and
// prints the raw model output as a JSON array.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"k8s.io/klog/v2"

	"github.com/Brownie44l1/carbon-api/internal/batch"
	"github.com/Brownie44l1/carbon-api/internal/config"
	"github.com/Brownie44l1/carbon-api/internal/model"
)

func main() {
	klog.InitFlags(nil)
	var (
		modelPath    = flag.String("model-path", "models/carbon_emission_model.onnx", "power model path")
		metadataPath = flag.String("metadata-path", "models/carbon_emission_model.json", "optional model metadata JSON")
		ortLib       = flag.String("ort-lib", os.Getenv("CARBON_ORT_LIB"), "onnxruntime shared library path")
		inputPath    = flag.String("input", "-", "JSON array of readings, - for stdin")
		resample     = flag.Bool("resample", false, fmt.Sprintf("stretch or shrink the series to %d readings", batch.SeriesLength))
	)
	flag.Parse()

	if err := run(*modelPath, *metadataPath, *ortLib, *inputPath, *resample, os.Stdout); err != nil {
		klog.Errorf("%v", err)
		klog.Flush()
		os.Exit(1)
	}
	klog.Flush()
}

func run(modelPath, metadataPath, ortLib, inputPath string, resample bool, out io.Writer) error {
	readings, err := readSeries(inputPath)
	if err != nil {
		return err
	}
	if resample {
		if readings, err = batch.Resample(readings, batch.SeriesLength); err != nil {
			return err
		}
	}
	input, err := batch.Preprocess(readings)
	if err != nil {
		return err
	}

	root, err := config.ProjectRoot()
	if err != nil {
		return err
	}
	modelPath = config.Resolve(root, modelPath)
	if err := model.CheckArtifact(modelPath); err != nil {
		return err
	}
	meta, err := model.LoadMetadata(config.Resolve(root, metadataPath), model.PowerMetadata())
	if err != nil {
		return err
	}
	if err := model.InitRuntime(ortLib); err != nil {
		return err
	}
	defer func() {
		if err := model.ShutdownRuntime(); err != nil {
			klog.Errorf("Runtime shutdown error: %v", err)
		}
	}()

	session, err := model.NewSession(modelPath, meta)
	if err != nil {
		return err
	}
	defer func() {
		if err := session.Close(); err != nil {
			klog.Errorf("Session close error: %v", err)
		}
	}()

	predictions, err := batch.NewPredictor(session).Predict(input)
	if err != nil {
		return err
	}
	return json.NewEncoder(out).Encode(predictions)
}

func readSeries(path string) ([]float64, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}
	var readings []float64
	if err := json.NewDecoder(r).Decode(&readings); err != nil {
		return nil, fmt.Errorf("input must be a JSON array of numbers: %w", err)
	}
	return readings, nil
}
