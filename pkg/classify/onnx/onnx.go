// Package onnx runs a bundled ONNX image classification model through
// OpenCV's DNN module.
package onnx

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/teslashibe/findit/pkg/classify"
	"gocv.io/x/gocv"
)

// Config holds classifier configuration.
type Config struct {
	ModelPath  string
	LabelsPath string

	InputWidth  int
	InputHeight int

	// Scale multiplies pixel values after mean subtraction.
	Scale float64
	// Mean is subtracted per channel in RGB order.
	Mean [3]float64

	// ApplySoftmax converts raw logits into probabilities.
	ApplySoftmax bool

	// TopK limits the number of returned classifications.
	TopK int
}

// DefaultConfig returns settings for SqueezeNet 1.1 trained on ImageNet.
func DefaultConfig() Config {
	return Config{
		ModelPath:    "models/squeezenet1.1-7.onnx",
		LabelsPath:   "models/imagenet_classes.txt",
		InputWidth:   224,
		InputHeight:  224,
		Scale:        1.0 / (0.226 * 255.0),
		Mean:         [3]float64{123.675, 116.28, 103.53},
		ApplySoftmax: true,
		TopK:         5,
	}
}

// Classifier loads the model on first use and reuses it afterwards.
type Classifier struct {
	config Config
	logger *slog.Logger

	mu     sync.Mutex
	net    gocv.Net
	labels []string
	loaded bool
	closed bool
}

// New creates a classifier. The model is not loaded until the first call
// to Classify or Load.
func New(cfg Config, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{
		config: cfg,
		logger: logger.With("component", "classify.onnx"),
	}
}

// Load loads the model and labels if they are not loaded yet.
func (c *Classifier) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadLocked()
}

func (c *Classifier) loadLocked() error {
	if c.closed {
		return classify.ErrClosed
	}
	if c.loaded {
		return nil
	}

	start := time.Now()

	if _, err := os.Stat(c.config.ModelPath); os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", classify.ErrModelNotFound, c.config.ModelPath)
	}

	labels, err := classify.LoadLabels(c.config.LabelsPath)
	if err != nil {
		return fmt.Errorf("%w: %v", classify.ErrModelLoad, err)
	}

	net := gocv.ReadNetFromONNX(c.config.ModelPath)
	if net.Empty() {
		return fmt.Errorf("%w: %s", classify.ErrModelLoad, c.config.ModelPath)
	}
	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	c.net = net
	c.labels = labels
	c.loaded = true

	c.logger.Info("model loaded",
		"model", c.config.ModelPath,
		"labels", len(labels),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// Classify runs one inference over the JPEG (or PNG) image.
func (c *Classifier) Classify(ctx context.Context, jpeg []byte) ([]classify.Classification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.loadLocked(); err != nil {
		return nil, err
	}

	img, err := gocv.IMDecode(jpeg, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", classify.ErrInvalidImage, err)
	}
	defer img.Close()

	if img.Empty() {
		return nil, classify.ErrInvalidImage
	}

	start := time.Now()

	mean := gocv.NewScalar(c.config.Mean[0], c.config.Mean[1], c.config.Mean[2], 0)
	size := image.Pt(c.config.InputWidth, c.config.InputHeight)
	blob := gocv.BlobFromImage(img, c.config.Scale, size, mean, true, false)
	defer blob.Close()

	c.net.SetInput(blob, "")
	output := c.net.Forward("")
	defer output.Close()

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read output: %w", err)
	}

	// Copy out of the Mat before it is closed.
	raw := make([]float32, len(data))
	copy(raw, data)

	var scores []float64
	if c.config.ApplySoftmax {
		scores = classify.Softmax(raw)
	} else {
		scores = make([]float64, len(raw))
		for i, v := range raw {
			scores[i] = float64(v)
		}
	}

	results, err := classify.Rank(scores, c.labels, c.config.TopK)
	if err != nil {
		return nil, err
	}

	if top, ok := classify.Top(results); ok {
		c.logger.Debug("inference complete",
			"top", top.Label,
			"confidence", top.Confidence,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	}
	return results, nil
}

// Close releases the network.
func (c *Classifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loaded {
		c.net.Close()
		c.loaded = false
	}
	c.closed = true
	return nil
}

var _ classify.Classifier = (*Classifier)(nil)
