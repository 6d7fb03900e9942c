package cmd

// Args contains the parsed invocation of a command.
type Args struct {
	// Positional arguments (command-specific).
	Args []string

	// Parsed flags keyed by flag name.
	Flags map[string]any

	// Raw unparsed arguments for custom parsing.
	Raw []string
}

// String returns a string flag, or its zero value when absent.
func (a *Args) String(name string) string {
	value, _ := a.Flags[name].(string)
	return value
}

// Bool returns a bool flag, false when absent.
func (a *Args) Bool(name string) bool {
	value, _ := a.Flags[name].(bool)
	return value
}

// Int returns an int flag, 0 when absent.
func (a *Args) Int(name string) int64 {
	value, _ := a.Flags[name].(int64)
	return value
}

// FlagSet defines the flags a command accepts.
type FlagSet struct {
	Flags map[string]*Flag
}

// Flag describes a single command-line flag.
type Flag struct {
	Name        string `json:"name"`
	Short       string `json:"short"`
	Type        string `json:"type"` // "string", "bool" or "int"
	Default     any    `json:"default,omitempty"`
	Required    bool   `json:"required"`
	Description string `json:"description"`
}
