package camera

import "fmt"

// FlashMode is the flash setting applied to the next still capture.
type FlashMode int

const (
	FlashOff FlashMode = iota
	FlashOn
)

// Toggle returns the opposite mode.
func (f FlashMode) Toggle() FlashMode {
	if f == FlashOff {
		return FlashOn
	}
	return FlashOff
}

// Label is the flash button title for this mode.
func (f FlashMode) Label() string {
	if f == FlashOn {
		return "FLASH ON"
	}
	return "FLASH OFF"
}

// String implements fmt.Stringer.
func (f FlashMode) String() string {
	if f == FlashOn {
		return "on"
	}
	return "off"
}

// MarshalText encodes the mode as "on" or "off".
func (f FlashMode) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText accepts "on" or "off".
func (f *FlashMode) UnmarshalText(b []byte) error {
	mode, err := ParseFlashMode(string(b))
	if err != nil {
		return err
	}
	*f = mode
	return nil
}

// ParseFlashMode parses "on" or "off".
func ParseFlashMode(s string) (FlashMode, error) {
	switch s {
	case "on":
		return FlashOn, nil
	case "off":
		return FlashOff, nil
	}
	return FlashOff, fmt.Errorf("invalid flash mode %q", s)
}
