package mode

import "fmt"

// Mode decides how text values become clauses.
type Mode string

// Mode constants.
const (
	// Auto makes single ASCII words terms and anything else a phrase.
	Auto    Mode = "auto"
	Terms   Mode = "terms"
	Phrases Mode = "phrases"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Auto || m == Terms || m == Phrases
}

// Parse validates a mode name. An empty name means Auto.
func Parse(s string) (Mode, error) {
	if s == "" {
		return Auto, nil
	}
	m := Mode(s)
	if !m.IsValid() {
		return "", fmt.Errorf("invalid mode %q (want auto, terms or phrases)", s)
	}
	return m, nil
}
