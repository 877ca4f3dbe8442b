// Command yarel runs Yarel scripts, or an interactive REPL when invoked
// with no file argument.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/peterh/liner"

	"github.com/yarel-lang/yarel"
)

// Exit codes follow sysexits: EX_DATAERR for compile errors, EX_SOFTWARE
// for runtime errors.
const (
	exitCompileError = 65
	exitRuntimeError = 70
)

func main() {
	configPath := flag.String("config", "", "path to a YAML tuning file")
	dis := flag.Bool("dis", false, "disassemble the script instead of running it")
	flag.Parse()

	var cfg *yarel.Config
	if *configPath != "" {
		c, err := yarel.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		cfg = c
	}
	vm := yarel.NewVM(cfg)

	if flag.NArg() == 0 {
		repl(vm)
		return
	}

	source, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fn, err := vm.Compile(string(source))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCompileError)
	}
	if *dis {
		yarel.Disassemble(os.Stdout, fn.Chunk(), flag.Arg(0))
		return
	}
	if _, err := vm.Interpret(fn); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitRuntimeError)
	}
}

func repl(vm *yarel.VM) {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	fmt.Println("yarel repl; ctrl-d exits")
	for {
		src, err := line.Prompt("yl> ")
		if err != nil {
			fmt.Println()
			return
		}
		if strings.TrimSpace(src) == "" {
			continue
		}
		line.AppendHistory(src)
		v, err := vm.DoString(src, "repl")
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		fmt.Println(vm.ToString(v))
	}
}
