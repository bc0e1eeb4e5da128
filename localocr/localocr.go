// Package localocr recognizes text entirely on-device through the
// Tesseract engine. It has no instruction-following capability: the
// prompt argument is accepted and ignored so the adapter stays
// interchangeable with the cloud backend at the call site.
package localocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "image/jpeg"
	_ "image/png"

	"github.com/otiai10/gosseract"

	"vista-ocr/backend"
)

// Engine is the local backend adapter. Settings updates are partial:
// only the supplied fields change.
type Engine struct {
	mu                 sync.RWMutex
	level              backend.RecognitionLevel
	languages          []string
	languageCorrection bool
	customWords        []string
}

// New returns an engine with accurate recognition and language
// correction enabled, matching the application defaults.
func New() *Engine {
	return &Engine{
		level:              backend.RecognitionAccurate,
		languageCorrection: true,
	}
}

// ApplySettings merges a partial settings update. Nil fields leave the
// current value untouched.
func (e *Engine) ApplySettings(s backend.LocalSettings) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s.Level != nil {
		e.level = *s.Level
	}
	if s.Languages != nil {
		e.languages = append([]string(nil), (*s.Languages)...)
	}
	if s.LanguageCorrection != nil {
		e.languageCorrection = *s.LanguageCorrection
	}
	if s.CustomWords != nil {
		e.customWords = append([]string(nil), (*s.CustomWords)...)
	}
}

type settings struct {
	level              backend.RecognitionLevel
	languages          []string
	languageCorrection bool
	customWords        []string
}

func (e *Engine) snapshot() settings {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return settings{
		level:              e.level,
		languages:          e.languages,
		languageCorrection: e.languageCorrection,
		customWords:        e.customWords,
	}
}

// Process recognizes text in the image bytes. The prompt is unused.
func (e *Engine) Process(ctx context.Context, imageData []byte, prompt string) (string, error) {
	_ = prompt // no instruction-following capability

	if _, _, err := image.DecodeConfig(bytes.NewReader(imageData)); err != nil {
		return "", backend.NewError(backend.InvalidImageData, fmt.Sprintf("cannot decode image: %v", err))
	}

	snap := e.snapshot()

	// Recognition itself is not interruptible, so run it in a
	// sub-goroutine and let ctx preempt the wait.
	type outcome struct {
		text string
		err  error
	}
	resCh := make(chan outcome, 1)
	go func() {
		text, err := recognize(imageData, snap)
		resCh <- outcome{text, err}
	}()

	select {
	case r := <-resCh:
		return r.text, r.err
	case <-ctx.Done():
		return "", backend.NewError(backend.ProcessingCancelled, "recognition abandoned")
	}
}

func recognize(imageData []byte, snap settings) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetImageFromBytes(imageData); err != nil {
		return "", backend.NewError(backend.InvalidImageData, fmt.Sprintf("engine rejected image: %v", err))
	}

	if len(snap.languages) > 0 {
		if err := client.SetLanguage(snap.languages...); err != nil {
			return "", backend.NewError(backend.RecognitionFailed, fmt.Sprintf("unsupported language hints %v: %v", snap.languages, err))
		}
	}

	// Fast tier uses the legacy engine, accurate tier the LSTM engine.
	engineMode := "1"
	if snap.level == backend.RecognitionFast {
		engineMode = "0"
	}
	if err := client.SetVariable("tessedit_ocr_engine_mode", engineMode); err != nil {
		log.Printf("localocr: failed to set engine mode: %v", err)
	}

	correction := "0"
	if snap.languageCorrection {
		correction = "1"
	}
	if err := client.SetVariable("tessedit_enable_dict_correction", correction); err != nil {
		log.Printf("localocr: failed to set dictionary correction: %v", err)
	}

	if len(snap.customWords) > 0 {
		if path, err := writeUserWords(snap.customWords); err == nil {
			defer os.Remove(path)
			if err := client.SetVariable("user_words_file", path); err != nil {
				log.Printf("localocr: failed to set custom vocabulary: %v", err)
			}
		} else {
			log.Printf("localocr: failed to stage custom vocabulary: %v", err)
		}
	}

	text, err := client.Text()
	if err != nil {
		return "", backend.NewError(backend.RecognitionFailed, err.Error())
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", backend.NewError(backend.NoTextDetected, "recognition found no text")
	}
	return text, nil
}

// writeUserWords stages the custom vocabulary as a one-word-per-line
// file, the form the engine's user_words_file parameter expects.
func writeUserWords(words []string) (string, error) {
	f, err := os.CreateTemp("", "vista_user_words_*.txt")
	if err != nil {
		return "", err
	}
	for _, w := range words {
		if _, err := fmt.Fprintln(f, w); err != nil {
			f.Close()
			os.Remove(f.Name())
			return "", err
		}
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return filepath.Clean(f.Name()), nil
}
