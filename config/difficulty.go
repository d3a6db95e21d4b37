package config

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownDifficulty = errors.New("unknown difficulty")

// Difficulty selects the grid side length.
type Difficulty string

const (
	Small  Difficulty = "small"
	Medium Difficulty = "medium"
	Large  Difficulty = "large"
)

// ParseDifficulty accepts small/medium/large and the easy/hard aliases.
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "small", "easy":
		return Small, nil
	case "medium", "":
		return Medium, nil
	case "large", "hard":
		return Large, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDifficulty, s)
}

func (d Difficulty) Size() int {
	switch d {
	case Small:
		return 5
	case Large:
		return 10
	}
	return 7
}
