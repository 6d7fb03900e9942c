package cmd

import (
	"fmt"
	"strconv"
	"strings"
)

// Parser parses raw console arguments against a command's flag set.
type Parser struct {
	flagSet *FlagSet
}

func NewParser(flagSet *FlagSet) *Parser {
	if flagSet == nil {
		flagSet = &FlagSet{Flags: make(map[string]*Flag)}
	}
	return &Parser{flagSet: flagSet}
}

func (p *Parser) Parse(raw []string) (*Args, error) {
	args := &Args{
		Flags: make(map[string]any),
		Raw:   raw,
	}

	for flagName, flag := range p.flagSet.Flags {
		if flag.Default != nil {
			args.Flags[flagName] = flag.Default
		}
	}

	longToName := make(map[string]string)
	shortToName := make(map[string]string)
	for flagName, flag := range p.flagSet.Flags {
		longToName[flag.Name] = flagName
		if flag.Short != "" {
			shortToName[flag.Short] = flagName
		}
	}

	for i := 0; i < len(raw); i++ {
		arg := raw[i]

		if arg == "--" {
			args.Args = append(args.Args, raw[i+1:]...)
			break
		}

		if strings.HasPrefix(arg, "--") {
			key, value, hasValue := splitLongFlag(arg)
			flagName, exists := longToName[key]
			if !exists {
				return nil, fmt.Errorf("unknown flag: --%s", key)
			}

			flag := p.flagSet.Flags[flagName]
			if flag.Type == "bool" {
				args.Flags[flagName] = true
			} else if hasValue {
				args.Flags[flagName] = coerce(value, flag.Type)
			} else if i+1 < len(raw) && !strings.HasPrefix(raw[i+1], "-") {
				args.Flags[flagName] = coerce(raw[i+1], flag.Type)
				i++
			} else {
				return nil, fmt.Errorf("flag %s requires a value", key)
			}
			continue
		}

		if strings.HasPrefix(arg, "-") && len(arg) > 1 && arg != "-" {
			shorts := arg[1:]

			for j, r := range shorts {
				short := string(r)
				flagName, exists := shortToName[short]
				if !exists {
					return nil, fmt.Errorf("unknown flag: -%s", short)
				}

				flag := p.flagSet.Flags[flagName]
				if flag.Type == "bool" {
					args.Flags[flagName] = true
					continue
				}

				if j+1 < len(shorts) {
					args.Flags[flagName] = coerce(shorts[j+1:], flag.Type)
					break
				}
				if i+1 < len(raw) && !strings.HasPrefix(raw[i+1], "-") {
					args.Flags[flagName] = coerce(raw[i+1], flag.Type)
					i++
					break
				}
				return nil, fmt.Errorf("flag -%s requires a value", short)
			}
			continue
		}

		args.Args = append(args.Args, arg)
	}

	for flagName, flag := range p.flagSet.Flags {
		if flag.Required {
			if _, ok := args.Flags[flagName]; !ok {
				return nil, fmt.Errorf("required flag: --%s", flag.Name)
			}
		}
	}

	return args, nil
}

func splitLongFlag(arg string) (key, value string, hasValue bool) {
	arg = strings.TrimPrefix(arg, "--")
	if idx := strings.Index(arg, "="); idx >= 0 {
		return arg[:idx], arg[idx+1:], true
	}
	return arg, "", false
}

func coerce(value string, typeStr string) any {
	switch typeStr {
	case "int":
		v, _ := strconv.ParseInt(value, 10, 64)
		return v
	case "bool":
		return value == "true" || value == "1" || value == "yes"
	default:
		return value
	}
}
