package config

import (
	"fmt"
	"strings"
)

const (
	ModeAuto = "auto"
	ModeReal = "real"
	ModeMock = "mock"
)

// NormalizeMode canonicalizes the translate mode. "demo" and "offline" are
// accepted as aliases for mock.
func NormalizeMode(raw string) (string, error) {
	mode := strings.ToLower(strings.TrimSpace(raw))
	if mode == "" {
		mode = ModeAuto
	}
	switch mode {
	case ModeAuto, ModeReal, ModeMock:
		return mode, nil
	case "demo", "offline":
		return ModeMock, nil
	default:
		return "", fmt.Errorf(
			"invalid translate mode %q (expected %s|%s|%s)",
			raw,
			ModeAuto,
			ModeReal,
			ModeMock,
		)
	}
}
