// Package config provides environment helpers for findit commands.
package config

import (
	"os"
	"strconv"
)

// Defaults used when the environment does not say otherwise.
const (
	DefaultPort        = "8181"
	DefaultModelPath   = "models/squeezenet1.1-7.onnx"
	DefaultLabelsPath  = "models/imagenet_classes.txt"
	DefaultStaticDir   = "./web"
	DefaultTTSProvider = "espeak"
)

// String returns the value of key, or def if it is unset or empty.
func String(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Int returns key parsed as an int, or def if unset or malformed.
func Int(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// Bool returns key parsed as a bool, or def if unset or malformed.
func Bool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// Port returns the HTTP port from FINDIT_PORT.
func Port() string {
	return String("FINDIT_PORT", DefaultPort)
}

// ModelPath returns the bundled classifier model path from MODEL_PATH.
func ModelPath() string {
	return String("MODEL_PATH", DefaultModelPath)
}

// LabelsPath returns the classifier labels path from LABELS_PATH.
func LabelsPath() string {
	return String("LABELS_PATH", DefaultLabelsPath)
}
