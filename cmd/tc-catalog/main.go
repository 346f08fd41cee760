package main

import (
	"fmt"
	"os"

	"github.com/alexflint/go-arg"

	"github.com/edorfaus/dvs-timecode/log"
	"github.com/edorfaus/dvs-timecode/timecode"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

var args = struct {
	Build bool   `help:"build the lookup table for each format and report timing"`
	Name  string `arg:"positional" help:"only show this format"`
}{}

func run() error {
	arg.MustParse(&args)

	if args.Name != "" {
		f, err := timecode.FindDefinition(args.Name)
		if err != nil {
			return err
		}
		printFormat(f)
		return nil
	}

	for _, f := range timecode.Formats() {
		if args.Build {
			stop := log.Time(1, "Building %s...", f.Name)
			if _, err := timecode.FindDefinition(f.Name); err != nil {
				return fmt.Errorf("%s: %w", f.Name, err)
			}
			stop(" done in")
		}
		printFormat(f)
	}
	return nil
}

func printFormat(f *timecode.Format) {
	fmt.Printf(
		"%-16s %-40s res=%-5d bits=%-3d length=%-8d safe=%-8d built=%v\n",
		f.Name, f.Desc, f.Resolution, f.Bits, f.Length, f.Safe, f.Built(),
	)
}
