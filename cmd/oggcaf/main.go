// Command oggcaf converts between Ogg-Opus and CAF-Opus files in either
// direction, detected either from file extension or forced with --to.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jt274/ogg-caf-converter/convert"
	"github.com/jt274/ogg-caf-converter/ogg"
)

var log = logrus.WithField("component", "cmd")

type options struct {
	input     string
	output    string
	direction string
	deleteIn  bool
	serial    uint32
	vendor    string
	logLevel  string
}

func main() {
	opts := &options{}

	root := &cobra.Command{
		Use:   "oggcaf",
		Short: "Convert between Ogg-Opus and CAF-Opus containers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts)
		},
	}

	flags := root.Flags()
	flags.StringVarP(&opts.input, "input", "i", "", "input file path (required)")
	flags.StringVarP(&opts.output, "output", "o", "", "output file path (required)")
	flags.StringVar(&opts.direction, "to", "", `conversion direction: "caf" or "ogg" (inferred from extensions if omitted)`)
	flags.BoolVar(&opts.deleteIn, "delete-input", false, "remove the input file after a successful conversion")
	flags.Uint32Var(&opts.serial, "serial", 0, "Ogg logical bitstream serial number (caf-to-ogg only; defaults to a time-derived value)")
	flags.StringVar(&opts.vendor, "vendor", "", "OpusTags vendor string (caf-to-ogg only; defaults to \"oggcaf\")")
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level: trace, debug, info, warn, error")

	_ = root.MarkFlagRequired("input")
	_ = root.MarkFlagRequired("output")

	if err := root.Execute(); err != nil {
		log.WithError(err).Error("conversion failed")
		os.Exit(1)
	}
}

func run(opts *options) error {
	level, err := logrus.ParseLevel(opts.logLevel)
	if err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}
	logrus.SetLevel(level)

	direction := opts.direction
	if direction == "" {
		direction = inferDirection(opts.output)
	}

	var buildOpts []ogg.Option
	if opts.serial != 0 {
		buildOpts = append(buildOpts, ogg.WithSerial(opts.serial))
	}
	if opts.vendor != "" {
		buildOpts = append(buildOpts, ogg.WithVendor(opts.vendor))
	}

	switch direction {
	case "caf":
		log.WithFields(logrus.Fields{"input": opts.input, "output": opts.output}).Info("converting ogg to caf")
		return convert.ConvertOggToCafFile(opts.input, opts.output, opts.deleteIn)
	case "ogg":
		log.WithFields(logrus.Fields{"input": opts.input, "output": opts.output}).Info("converting caf to ogg")
		return convert.ConvertCafToOggFile(opts.input, opts.output, opts.deleteIn, buildOpts...)
	default:
		return fmt.Errorf("cannot determine conversion direction: pass --to caf or --to ogg")
	}
}

// inferDirection guesses the target format from the output path's
// extension: .caf means we're building a CAF file, .ogg or .opus means we're
// building an Ogg-Opus stream, and any other extension yields "".
func inferDirection(outputPath string) string {
	switch strings.ToLower(filepath.Ext(outputPath)) {
	case ".caf":
		return "caf"
	case ".ogg", ".opus":
		return "ogg"
	default:
		return ""
	}
}
