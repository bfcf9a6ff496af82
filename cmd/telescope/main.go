// Telescope CLI - compile and evaluate telescope programs
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/Franciman/telescope/compiler"
	"github.com/Franciman/telescope/manifest"
	"github.com/Franciman/telescope/vm"

	_ "github.com/tliron/commonlog/simple"
)

var log = commonlog.GetLogger("telescope")

func main() {
	expr := flag.String("e", "", "Evaluate an expression given on the command line")
	compileOut := flag.String("c", "", "Compile to a program image instead of evaluating")
	disassemble := flag.Bool("d", false, "Print the compiled program's disassembly")
	verbose := flag.Bool("v", false, "Verbose output")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: telescope [options] [file]\n\n")
		fmt.Fprintf(os.Stderr, "Compiles and evaluates a telescope program. With no file argument,\n")
		fmt.Fprintf(os.Stderr, "the entry point from telescope.toml in the current directory is used.\n")
		fmt.Fprintf(os.Stderr, "A .teleimg file argument is loaded as a precompiled image.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  telescope -e '(#builtin_+ 2 3)'   # Evaluate an expression\n")
		fmt.Fprintf(os.Stderr, "  telescope prog.tele               # Evaluate a source file\n")
		fmt.Fprintf(os.Stderr, "  telescope -c prog.teleimg prog.tele  # Ahead-of-time compile\n")
		fmt.Fprintf(os.Stderr, "  telescope prog.teleimg            # Run a precompiled image\n")
	}
	flag.Parse()

	if *verbose {
		commonlog.Configure(1, nil)
	}

	prog, err := loadProgram(*expr, flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *disassemble {
		fmt.Println(prog.Disassemble())
	}

	if *compileOut != "" {
		if err := vm.SaveImage(prog, *compileOut); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		log.Infof("wrote image %s", *compileOut)
		return
	}

	eval := vm.NewEvaluator(prog)
	result, err := eval.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	log.Infof("evaluation finished after %d instructions", eval.Steps())

	fmt.Println(result)
}

// loadProgram resolves the program to run: an inline expression, a
// source or image file argument, or the manifest entry point.
func loadProgram(expr string, args []string) (*vm.Program, error) {
	if expr != "" {
		log.Debugf("compiling command-line expression")
		return compiler.CompileSource(expr)
	}

	path := ""
	switch {
	case len(args) > 1:
		return nil, fmt.Errorf("expected at most one file argument, got %d", len(args))
	case len(args) == 1:
		path = args[0]
	case manifest.Exists("."):
		m, err := manifest.Load(".")
		if err != nil {
			return nil, err
		}
		path = m.EntryPath()
		log.Infof("using manifest entry %s", path)
	default:
		return nil, fmt.Errorf("no expression, file argument, or %s found", manifest.FileName)
	}

	if strings.HasSuffix(path, ".teleimg") {
		log.Debugf("loading image %s", path)
		return vm.LoadImage(path)
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	log.Debugf("compiling %s", path)
	return compiler.CompileSource(string(source))
}
