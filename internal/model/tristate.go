package model

// Tristate is a boolean that may not be known yet
type Tristate int

const (
	Unknown Tristate = iota
	False
	True
)

// TristateOf converts a known boolean
func TristateOf(b bool) Tristate {
	if b {
		return True
	}
	return False
}

// Known reports whether the value has been determined
func (t Tristate) Known() bool {
	return t != Unknown
}

func (t Tristate) String() string {
	switch t {
	case True:
		return "true"
	case False:
		return "false"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes Unknown as null
func (t Tristate) MarshalJSON() ([]byte, error) {
	switch t {
	case True:
		return []byte("true"), nil
	case False:
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes null, true and false
func (t *Tristate) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "true":
		*t = True
	case "false":
		*t = False
	default:
		*t = Unknown
	}
	return nil
}
