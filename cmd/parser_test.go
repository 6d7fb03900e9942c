package cmd

import "testing"

func testFlagSet() *FlagSet {
	return &FlagSet{Flags: map[string]*Flag{
		"long":  {Name: "long", Short: "l", Type: "bool"},
		"type":  {Name: "type", Short: "t", Type: "string", Default: "any"},
		"limit": {Name: "limit", Type: "int"},
	}}
}

func TestParser_LongFlags(t *testing.T) {
	parser := NewParser(testFlagSet())

	args, err := parser.Parse([]string{"--long", "--type=texture", "--limit", "5", "positional"})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if !args.Bool("long") {
		t.Error("bool flag not set")
	}
	if args.String("type") != "texture" {
		t.Errorf("type = %q", args.String("type"))
	}
	if args.Int("limit") != 5 {
		t.Errorf("limit = %d", args.Int("limit"))
	}
	if len(args.Args) != 1 || args.Args[0] != "positional" {
		t.Errorf("positionals = %v", args.Args)
	}
}

func TestParser_ShortFlags(t *testing.T) {
	parser := NewParser(testFlagSet())

	args, err := parser.Parse([]string{"-l", "-t", "audio"})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !args.Bool("long") || args.String("type") != "audio" {
		t.Error("short flags not parsed")
	}
}

func TestParser_Defaults(t *testing.T) {
	parser := NewParser(testFlagSet())

	args, err := parser.Parse(nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if args.String("type") != "any" {
		t.Error("default not applied")
	}
	if args.Bool("long") {
		t.Error("unset bool flag is true")
	}
}

func TestParser_Errors(t *testing.T) {
	parser := NewParser(testFlagSet())

	if _, err := parser.Parse([]string{"--unknown"}); err == nil {
		t.Error("unknown long flag accepted")
	}
	if _, err := parser.Parse([]string{"-x"}); err == nil {
		t.Error("unknown short flag accepted")
	}
	if _, err := parser.Parse([]string{"--type"}); err == nil {
		t.Error("missing value accepted")
	}
}

func TestParser_RequiredFlag(t *testing.T) {
	parser := NewParser(&FlagSet{Flags: map[string]*Flag{
		"name": {Name: "name", Type: "string", Required: true},
	}})

	if _, err := parser.Parse(nil); err == nil {
		t.Error("missing required flag accepted")
	}
	if _, err := parser.Parse([]string{"--name", "x"}); err != nil {
		t.Errorf("required flag provided but Parse failed: %v", err)
	}
}

func TestParser_DoubleDashStopsParsing(t *testing.T) {
	parser := NewParser(testFlagSet())

	args, err := parser.Parse([]string{"--long", "--", "--type", "raw"})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(args.Args) != 2 {
		t.Errorf("positionals after -- = %v", args.Args)
	}
}
