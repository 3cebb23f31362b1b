package adapters

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"github.com/cockroachdb/errors"
	openai "github.com/sashabaranov/go-openai"
)

// WhisperTranscriber implements Transcriber by slicing one fixed-duration
// chunk out of the source audio with ffmpeg (the teacher's util.go
// runFFmpeg idiom) and transcribing that slice with the OpenAI
// speech-to-text endpoint requesting WEBVTT output directly, so the
// pipeline's caption parser (C7) can consume the result unmodified.
type WhisperTranscriber struct {
	Client *openai.Client
	Model  string
}

func NewWhisperTranscriber(client *openai.Client, model string) *WhisperTranscriber {
	if model == "" {
		model = openai.Whisper1
	}
	return &WhisperTranscriber{Client: client, Model: model}
}

func (w *WhisperTranscriber) TranscribeChunk(ctx context.Context, audioPath string, chunkIndex int, chunkDurationSec float64) (string, error) {
	slicePath := audioPath + ".chunk" + strconv.Itoa(chunkIndex) + ".mp3"
	startSec := float64(chunkIndex) * chunkDurationSec
	if err := sliceAudio(ctx, audioPath, slicePath, startSec, chunkDurationSec); err != nil {
		return "", errors.Wrapf(err, "slice chunk %d", chunkIndex)
	}
	defer os.Remove(slicePath)

	resp, err := w.Client.CreateTranscription(ctx, openai.AudioRequest{
		Model:          w.Model,
		FilePath:       slicePath,
		Format:         openai.AudioResponseFormatVTT,
	})
	if err != nil {
		return "", errors.Wrapf(err, "transcribe chunk %d", chunkIndex)
	}
	return resp.Text, nil
}

// sliceAudio extracts [startSec, startSec+durationSec) from src into dst,
// the same -ss/-t ffmpeg invocation shape as the teacher's extractAudioCPU.
func sliceAudio(ctx context.Context, src, dst string, startSec, durationSec float64) error {
	args := []string{
		"-y",
		"-ss", fmt.Sprintf("%.3f", startSec),
		"-t", fmt.Sprintf("%.3f", durationSec),
		"-i", src,
		"-ac", "1", "-ar", "16000",
		dst,
	}
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	return cmd.Run()
}
