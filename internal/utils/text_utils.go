package utils

import (
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

const (
	// SentenceSeparator splits a body into display segments
	SentenceSeparator = ". "
	// PreviewSentences is how many segments a collapsed body shows
	PreviewSentences = 2
	// Ellipsis marks a truncated preview
	Ellipsis = "..."
)

// TextProcessor provides utilities for preparing message bodies for display
type TextProcessor struct {
	logger *zap.Logger
}

// NewTextProcessor creates a new TextProcessor
func NewTextProcessor(logger *zap.Logger) *TextProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TextProcessor{
		logger: logger,
	}
}

// SanitizeUTF8 ensures the string contains only valid UTF-8 characters
func (tp *TextProcessor) SanitizeUTF8(text string) string {
	if utf8.ValidString(text) {
		return text
	}

	// Drop invalid UTF-8 sequences
	result := make([]rune, 0, len(text))
	for i, r := range text {
		if r == utf8.RuneError {
			_, size := utf8.DecodeRuneInString(text[i:])
			if size == 1 {
				continue
			}
		}
		result = append(result, r)
	}

	tp.logger.Debug("Text sanitized",
		zap.Int("original_size", len(text)),
		zap.Int("sanitized_size", len(string(result))))

	return string(result)
}

// Normalize sanitizes text and brings it to NFC form
func (tp *TextProcessor) Normalize(text string) string {
	return norm.NFC.String(tp.SanitizeUTF8(text))
}

// Sentences splits a body on ". " the way the dashboard segments it
func (tp *TextProcessor) Sentences(body string) []string {
	return strings.Split(tp.Normalize(body), SentenceSeparator)
}

// Preview returns the first two segments, followed by an ellipsis when more were cut
func (tp *TextProcessor) Preview(body string) string {
	sentences := tp.Sentences(body)
	if len(sentences) <= PreviewSentences {
		return strings.Join(sentences, SentenceSeparator)
	}
	return strings.Join(sentences[:PreviewSentences], SentenceSeparator) + Ellipsis
}

// Full returns every segment rejoined
func (tp *TextProcessor) Full(body string) string {
	return strings.Join(tp.Sentences(body), SentenceSeparator)
}
