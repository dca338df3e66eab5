package client

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// SampleRate is the rate whisper models expect.
const SampleRate = 16000

// ErrUnsupportedAudio is returned for input the native backend cannot decode.
var ErrUnsupportedAudio = errors.New("unsupported audio: native backend reads PCM WAV only")

// LoadSamples decodes a PCM WAV file into mono float32 samples in [-1, 1]
// at SampleRate. maxDuration > 0 keeps only the start of the recording.
func LoadSamples(path string, maxDuration time.Duration) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedAudio)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode wav: %w", err)
	}
	if buf.Format == nil || buf.Format.NumChannels <= 0 || buf.Format.SampleRate <= 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedAudio)
	}

	samples := resample(downmix(buf, int(dec.BitDepth)), buf.Format.SampleRate, SampleRate)

	if maxDuration > 0 {
		limit := int(maxDuration.Seconds() * SampleRate)
		if limit < len(samples) {
			samples = samples[:limit]
		}
	}
	return samples, nil
}

// downmix averages interleaved channels and normalises to [-1, 1].
func downmix(buf *audio.IntBuffer, bitDepth int) []float32 {
	if bitDepth <= 0 {
		bitDepth = 16
	}
	channels := buf.Format.NumChannels
	scale := float32(int64(1) << (bitDepth - 1))
	offset := 0
	if bitDepth == 8 {
		// 8-bit PCM is unsigned
		offset = 128
		scale = 128
	}

	frames := len(buf.Data) / channels
	out := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for ch := 0; ch < channels; ch++ {
			sum += float32(buf.Data[i*channels+ch]-offset) / scale
		}
		out[i] = sum / float32(channels)
	}
	return out
}

// resample converts between rates with linear interpolation.
func resample(in []float32, from, to int) []float32 {
	if from == to || len(in) == 0 {
		return in
	}
	n := int(int64(len(in)) * int64(to) / int64(from))
	out := make([]float32, n)
	step := float64(from) / float64(to)
	for i := range out {
		pos := float64(i) * step
		j := int(pos)
		if j >= len(in)-1 {
			out[i] = in[len(in)-1]
			continue
		}
		frac := float32(pos - float64(j))
		out[i] = in[j]*(1-frac) + in[j+1]*frac
	}
	return out
}
