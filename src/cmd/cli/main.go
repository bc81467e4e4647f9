package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"

	"circle-to-search/src/config"
	"circle-to-search/src/logutil"
	"circle-to-search/src/ocr"
	"circle-to-search/src/runtimeinit"
	"circle-to-search/src/screenshot"
	"circle-to-search/src/search"
)

const (
	maxFileSizeMB = 10
	maxFileSize   = maxFileSizeMB * 1024 * 1024
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}

type cliOptions struct {
	filePath   string
	jsonOutput bool
	verbose    bool
	search     bool
	apiKeyPath string
}

type recognizer interface {
	Recognize(ctx context.Context, img *screenshot.Image) ocr.Result
	EngineName() string
}

type dispatcher interface {
	Dispatch(ctx context.Context, q search.Query) (search.Outcome, error)
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return runWithArgs(normalizeLegacyArgs(os.Args))
}

func runWithArgs(args []string) error {
	if len(args) == 0 {
		args = []string{"circle-to-search-cli"}
	}
	opts := &cliOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args[1:])
	return cmd.Execute()
}

func newRootCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "circle-to-search-cli",
		Short:         "Recognize a PNG and optionally search it",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithOptions(cmd.Context(), *opts, os.Stdin, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.filePath, "file", "", "Path to PNG file (use '-' for stdin)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output to stderr")
	cmd.Flags().BoolVar(&opts.search, "search", false, "Dispatch the result to the search provider and open it")
	cmd.Flags().StringVar(&opts.apiKeyPath, "api-key-path", "", "Path to API key file (highest precedence)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runWithOptions(ctx context.Context, opts cliOptions, stdin io.Reader, stdout io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	// Configure logging BEFORE any other operations.
	if opts.verbose {
		log.SetOutput(os.Stderr)
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetOutput(io.Discard)
	}

	cfg, err := config.LoadWithOptions(config.LoadOptions{APIKeyPathOverride: opts.apiKeyPath})
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	log.Printf("Config loaded: engine=%s model=%s key=%s", cfg.OCREngine, cfg.Model, logutil.RedactKey(cfg.APIKey))

	data, err := readInput(opts.filePath, stdin)
	if err != nil {
		return err
	}

	rec := runtimeinit.NewRecognizer(ctx, cfg)
	var disp dispatcher
	if opts.search {
		disp = runtimeinit.NewDispatcher(cfg)
	}

	res, err := processImage(ctx, data, opts.filePath, rec, disp, cfg.MaxQueryChars)
	if err != nil {
		return err
	}
	return writeResult(stdout, res, opts.jsonOutput)
}

func readInput(filePath string, stdin io.Reader) ([]byte, error) {
	var data []byte
	var err error
	if filePath == "-" {
		log.Printf("Reading image from stdin")
		data, err = io.ReadAll(io.LimitReader(stdin, maxFileSize+1))
		if err != nil {
			return nil, fmt.Errorf("failed to read from stdin: %w", err)
		}
	} else {
		log.Printf("Reading image from file: %s", filePath)
		data, err = os.ReadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
		}
	}
	if err := validatePNG(data); err != nil {
		return nil, err
	}
	return data, nil
}

func validatePNG(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("input file is empty")
	}
	if len(data) > maxFileSize {
		return fmt.Errorf("input file exceeds maximum size of %d MB", maxFileSizeMB)
	}
	if len(data) < len(pngMagic) || !bytes.Equal(data[:len(pngMagic)], pngMagic) {
		return fmt.Errorf("input is not a valid PNG file (invalid magic number)")
	}
	return nil
}

// CLIResult is the JSON document printed with --json.
type CLIResult struct {
	Kind       string  `json:"kind"`
	Text       string  `json:"text,omitempty"`
	Confidence float64 `json:"confidence"`
	Engine     string  `json:"engine"`
	Degraded   string  `json:"degraded,omitempty"`
	URL        string  `json:"url,omitempty"`
	Source     string  `json:"source"`
	Timestamp  string  `json:"timestamp"`
	Duration   float64 `json:"duration_seconds"`
	CharCount  int     `json:"character_count"`
}

func processImage(ctx context.Context, data []byte, source string, rec recognizer, disp dispatcher, maxQueryChars int) (CLIResult, error) {
	decoded, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return CLIResult{}, fmt.Errorf("failed to decode PNG: %w", err)
	}
	img := screenshot.NewImage(decoded)

	start := time.Now()
	res := rec.Recognize(ctx, img)
	out := CLIResult{
		Kind:       res.Kind.String(),
		Text:       res.Text,
		Confidence: res.Confidence,
		Engine:     rec.EngineName(),
		Source:     source,
		CharCount:  len([]rune(res.Text)),
	}
	if res.Degraded != nil {
		out.Degraded = res.Degraded.Error()
	}
	log.Printf("Recognized %dx%d image as %s (confidence %.2f) in %v", img.Width(), img.Height(), res.Kind, res.Confidence, time.Since(start))

	if disp != nil {
		q, err := search.NewQuery(res, maxQueryChars)
		if err != nil {
			return CLIResult{}, fmt.Errorf("failed to build query: %w", err)
		}
		outcome, err := disp.Dispatch(ctx, q)
		if err != nil {
			return CLIResult{}, fmt.Errorf("search failed: %w", err)
		}
		out.URL = outcome.URL
	}

	out.Duration = time.Since(start).Seconds()
	out.Timestamp = time.Now().UTC().Format(time.RFC3339)
	return out, nil
}

func writeResult(w io.Writer, res CLIResult, jsonOutput bool) error {
	if jsonOutput {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(res); err != nil {
			return fmt.Errorf("failed to encode JSON output: %w", err)
		}
		return nil
	}
	if res.Kind == ocr.KindText.String() {
		fmt.Fprintln(w, res.Text)
	} else {
		fmt.Fprintln(os.Stderr, "No usable text found; the image would be searched by upload")
	}
	if res.URL != "" {
		fmt.Fprintln(w, res.URL)
	}
	return nil
}

func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}
	normalized := make([]string, len(args))
	copy(normalized, args)
	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		for _, name := range []string{"file", "json", "verbose", "search", "api-key-path"} {
			if arg == "-"+name || strings.HasPrefix(arg, "-"+name+"=") {
				normalized[i] = "-" + arg
				break
			}
		}
	}
	return normalized
}
