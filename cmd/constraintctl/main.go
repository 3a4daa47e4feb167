package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"

	"github.com/fernlabs/constraints/pkg/constraints"
	"github.com/fernlabs/constraints/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	verboseFlag := flag.Bool("verbose", false, "enable verbose (debug) logging")

	inputFlag := flag.String("input", "", "path to a constraints document (or set CONSTRAINTS_INPUT env var)")
	inFormatFlag := flag.String("in-format", "", "input document format: json or binary (default: inferred from extension)")

	// Commands
	inspectFlag := flag.Bool("inspect", false, "Print the document's constraints and their verdict counters")
	convertFlag := flag.Bool("convert", false, "Transcode the document to --out-format and write it to --output")

	outputFlag := flag.String("output", "", "output path for --convert (default: stdout)")
	outFormatFlag := flag.String("out-format", "json", "output document format for --convert: json or binary")

	flag.Parse()

	log := logger.New(*verboseFlag)

	if envInput := os.Getenv("CONSTRAINTS_INPUT"); envInput != "" && *inputFlag == "" {
		*inputFlag = envInput
	}

	if !*inspectFlag && !*convertFlag {
		flag.Usage()
		return nil
	}
	if *inputFlag == "" {
		return fmt.Errorf("--input is required")
	}

	inFormat := *inFormatFlag
	if inFormat == "" {
		inFormat = inferFormat(*inputFlag)
	}

	data, err := os.ReadFile(*inputFlag)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	doc, err := decode(data, inFormat)
	if err != nil {
		return fmt.Errorf("failed to decode %s document: %w", inFormat, err)
	}
	log.Debug("decoded constraints document", "input", *inputFlag, "format", inFormat)

	if *inspectFlag {
		return inspect(doc)
	}
	return convert(log, doc, *outputFlag, *outFormatFlag)
}

func inferFormat(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return "json"
	}
	return "binary"
}

func decode(data []byte, format string) (*constraints.DatasetConstraints, error) {
	switch format {
	case "json":
		return constraints.DecodeJSON(data)
	case "binary":
		return constraints.DecodeBinary(data)
	default:
		return nil, fmt.Errorf("unknown format %q (expected json or binary)", format)
	}
}

func inspect(doc *constraints.DatasetConstraints) error {
	props := doc.Properties()
	fmt.Printf("schema version: %d.%d\n", props.SchemaMajorVersion, props.SchemaMinorVersion)
	if props.SessionID != "" {
		fmt.Printf("session: %s (%s)\n", props.SessionID, props.SessionTimestamp.Format("2006-01-02T15:04:05Z07:00"))
	}

	report := doc.Report()
	if len(report) == 0 {
		fmt.Println("no constraints")
		return nil
	}
	for _, column := range report {
		fmt.Printf("column %s:\n", column.Column)
		for _, c := range column.Constraints {
			fmt.Printf("  %-60s total=%d failures=%d\n", c.Name, c.Total, c.Failures)
		}
	}
	return nil
}

func convert(log *slog.Logger, doc *constraints.DatasetConstraints, output, outFormat string) error {
	var (
		data []byte
		err  error
	)
	switch outFormat {
	case "json":
		data, err = doc.EncodeJSON()
	case "binary":
		data, err = doc.EncodeBinary()
	default:
		return fmt.Errorf("unknown format %q (expected json or binary)", outFormat)
	}
	if err != nil {
		return fmt.Errorf("failed to encode %s document: %w", outFormat, err)
	}

	if output == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	log.Debug("wrote constraints document", "output", output, "format", outFormat)
	return nil
}
