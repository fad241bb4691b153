package tts

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Provider names accepted by New.
const (
	NameEspeak = providerEspeak
	NameOpenAI = providerOpenAI
	NameGoogle = providerGoogle
	NameMock   = "mock"
)

// Keys carries credentials for the networked providers.
type Keys struct {
	OpenAI string
	Google string
}

// New builds the provider named by names. A comma-separated list such as
// "openai,espeak" builds a Chain in that order.
func New(ctx context.Context, names string, keys Keys, logger *slog.Logger, opts ...Option) (Provider, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var providers []Provider
	for _, name := range strings.Split(names, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		p, err := newSingle(ctx, name, keys, logger, opts...)
		if err != nil {
			for _, built := range providers {
				built.Close()
			}
			return nil, err
		}
		providers = append(providers, p)
	}

	switch len(providers) {
	case 0:
		return nil, ErrProviderUnavailable
	case 1:
		return providers[0], nil
	}
	return NewChain(logger, providers...)
}

func newSingle(ctx context.Context, name string, keys Keys, logger *slog.Logger, opts ...Option) (Provider, error) {
	all := append([]Option{WithLogger(logger)}, opts...)

	switch name {
	case NameEspeak:
		return NewEspeak(all...)
	case NameOpenAI:
		return NewOpenAI(append(all, WithAPIKey(keys.OpenAI))...)
	case NameGoogle:
		return NewGoogle(ctx, append(all, WithAPIKey(keys.Google))...)
	case NameMock:
		return NewMock(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
}
