package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/teris-io/cli"

	"tinypy.dev/x86backend/pkg/abi"
	"tinypy.dev/x86backend/pkg/compiler"
	"tinypy.dev/x86backend/pkg/frontend"
	"tinypy.dev/x86backend/pkg/tempname"
)

var Description = strings.ReplaceAll(`
The compiler lowers a single source file written in the toy dynamically
typed language into 32-bit x86 AT&T-syntax assembly, writing the result
next to the input file with a .s extension.
`, "\n", " ")

var Compile = cli.New(Description).
	WithArg(cli.NewArg("input", "The source file to be compiled").WithType(cli.TypeString)).
	WithOption(cli.NewOption("target", "Target platform: linux or macos (default linux)").WithType(cli.TypeString)).
	WithOption(cli.NewOption("debug", "Dumps the AST before/after every pass").WithType(cli.TypeBool)).
	WithOption(cli.NewOption("bench", "Reports compile time and emitted assembly size").WithType(cli.TypeBool)).
	WithAction(Handler)

func Handler(args []string, options map[string]string) int {
	if len(args) < 1 {
		fmt.Printf("ERROR: Not enough arguments provided, use --help\n")
		return -1
	}
	input := args[0]

	platform := abi.Linux
	if target := options["target"]; target != "" {
		platform = abi.Platform(target)
	}

	_, debug := options["debug"]
	_, bench := options["bench"]

	content, err := os.ReadFile(input)
	if err != nil {
		fmt.Printf("ERROR: Unable to open input file: %s\n", err)
		return -1
	}

	names := tempname.NewContext()
	parser := frontend.NewSourceParser(strings.NewReader(string(content)), names)
	module, err := parser.Parse()
	if err != nil {
		fmt.Printf("ERROR: Unable to complete 'parsing' pass: %s\n", err)
		return -1
	}

	ctx, err := compiler.New(platform, debug, bench)
	if err != nil {
		fmt.Printf("ERROR: %s\n", err)
		return -1
	}

	asmText, err := ctx.Compile(module, names)
	if err != nil {
		fmt.Printf("ERROR: Unable to complete compilation: %s\n", err)
		return -1
	}

	output := strings.TrimSuffix(input, ".py") + ".s"
	if err := os.WriteFile(output, []byte(asmText), 0644); err != nil {
		fmt.Printf("ERROR: Unable to write output file: %s\n", err)
		return -1
	}

	return 0
}

func main() { os.Exit(Compile.Run(os.Args, os.Stdout)) }
