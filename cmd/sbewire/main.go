package main

import (
	"fmt"
	"io"
	"os"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}
	var err error
	switch args[0] {
	case "encode":
		err = runEncode(args[1:], stdout)
	case "decode":
		err = runDecode(args[1:], stdin, stdout)
	case "config":
		err = runConfig(args[1:], stdout)
	case "-h", "--help", "help":
		usage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "sbewire: unknown command %q\n", args[0])
		usage(stderr)
		return 2
	}
	if err != nil {
		fmt.Fprintf(stderr, "sbewire: %v\n", err)
		return 1
	}
	return 0
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: sbewire <encode|decode|config> [flags]")
	fmt.Fprintln(w, "  encode  write framed Barrier-in-MessageContainer envelopes")
	fmt.Fprintln(w, "  decode  read frames and print their fields")
	fmt.Fprintln(w, "  config  write a default config template")
}
