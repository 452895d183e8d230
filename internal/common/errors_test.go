package common

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStageErrorsUnwrap(t *testing.T) {
	cause := errors.New("pdfcpu: xref corrupt")

	err := ExtractionError("a.pdf", cause)
	assert.ErrorIs(t, err, ErrExtraction)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrRecognition)
	assert.Contains(t, err.Error(), "a.pdf")

	err = RecognitionError("load model", nil)
	assert.ErrorIs(t, err, ErrRecognition)
}

func TestWrapError(t *testing.T) {
	assert.NoError(t, WrapError(nil, "ignored"))
	err := WrapError(ErrArtifact, "write a_processed.json")
	assert.ErrorIs(t, err, ErrArtifact)
	assert.Equal(t, "write a_processed.json: artifact i/o failed", err.Error())
}

func TestValidatorRules(t *testing.T) {
	v := NewValidator().
		Field("name", "", Required).
		Field("currency", "usd", CurrencyCode).
		Field("currency2", "EUR", CurrencyCode)

	assert.True(t, v.HasErrors())
	assert.Len(t, v.Errors(), 2)
	assert.ErrorIs(t, v.Error(), ErrInvalidInput)
	assert.Contains(t, v.ErrorMessage(), "name")
}

func TestLoggerFromContext(t *testing.T) {
	var buf bytes.Buffer
	base := NewLogger(LogConfig{Level: "info", Format: "json"}, &buf)

	ctx := WithDocument(WithRunID(context.Background(), "run-1"), "a.pdf")
	LoggerFrom(ctx, base).Info("hello")

	assert.Contains(t, buf.String(), `"run_id":"run-1"`)
	assert.Contains(t, buf.String(), `"document":"a.pdf"`)
}
