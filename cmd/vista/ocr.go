package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"vista-ocr/backend"
	"vista-ocr/config"
	"vista-ocr/gemini"
	"vista-ocr/imaging"
	"vista-ocr/localocr"
	"vista-ocr/logutil"
	"vista-ocr/prompt"
)

const (
	maxFileSizeMB = 10
	maxFileSize   = maxFileSizeMB * 1024 * 1024
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}

var (
	ocrFile    string
	ocrJSON    bool
	ocrBackend string
)

var ocrCmd = &cobra.Command{
	Use:   "ocr",
	Short: "Extract text from a PNG file or stdin",
	RunE: func(cmd *cobra.Command, args []string) error {
		if ocrFile == "" {
			return fmt.Errorf("required flag --file not specified")
		}
		return runOCR(cmd.Context())
	},
}

func init() {
	ocrCmd.Flags().StringVarP(&ocrFile, "file", "f", "", "path to PNG file (use '-' for stdin)")
	ocrCmd.Flags().BoolVar(&ocrJSON, "json", false, "emit a JSON result envelope")
	ocrCmd.Flags().StringVar(&ocrBackend, "backend", "", "backend override for this run")
}

func runOCR(ctx context.Context) error {
	data, err := readImage(ocrFile)
	if err != nil {
		return err
	}

	store, err := config.NewStore(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	snap := store.Snapshot()
	logutil.Setup(snap.EnableFileLogging)

	cloud := gemini.New(snap.APIKey)
	local := localocr.New()
	local.ApplySettings(snap.LocalSettings())
	selector := backend.NewSelector(cloud, local)

	id := snap.Backend
	if ocrBackend != "" {
		id, err = backend.ParseID(ocrBackend)
		if err != nil {
			return err
		}
	}
	if err := selector.SetBackend(id); err != nil {
		return err
	}

	if snap.ResolutionLimitEnabled {
		scaled, err := imaging.Downscale(data, snap.MaxImageWidth, snap.MaxImageHeight)
		if err == nil {
			data = scaled
		}
	}

	instruction := snap.CustomPrompt
	if !snap.CustomPromptEnabled || instruction == "" {
		instruction = prompt.Build(snap.PromptOptions())
	}

	start := time.Now()
	text, err := selector.Dispatch(ctx, data, instruction)
	elapsed := time.Since(start)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	return writeResult(text, ocrFile, elapsed)
}

func readImage(path string) ([]byte, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read from stdin: %w", err)
		}
	} else {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", path, err)
		}
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("input is empty")
	}
	if len(data) > maxFileSize {
		return nil, fmt.Errorf("input exceeds maximum size of %d MB", maxFileSizeMB)
	}
	if len(data) < len(pngMagic) || !bytes.Equal(data[:len(pngMagic)], pngMagic) {
		return nil, fmt.Errorf("input is not a valid PNG file")
	}
	return data, nil
}

type ocrResult struct {
	Text      string  `json:"text"`
	Source    string  `json:"source"`
	Timestamp string  `json:"timestamp"`
	Duration  float64 `json:"duration_seconds"`
	CharCount int     `json:"character_count"`
}

func writeResult(text, source string, elapsed time.Duration) error {
	if !ocrJSON {
		fmt.Print(text)
		return nil
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(ocrResult{
		Text:      text,
		Source:    source,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Duration:  elapsed.Seconds(),
		CharCount: len(text),
	})
}
