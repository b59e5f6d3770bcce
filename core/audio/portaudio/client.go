// Package portaudio is a portaudio-backed capture client, an alternative
// to the miniaudio one for platforms where portaudio integrates better.
package portaudio

import (
	"context"
	"fmt"
	"math"

	"github.com/gordonklaus/portaudio"
	"github.com/parley-ai/parley-core/core/audio"
)

const defaultFrameSamples = 480

type Client struct {
	frameSamples int
	stream       *portaudio.Stream
	in           []int16
}

type ClientOption func(*Client)

// WithFrameSize overrides the number of samples delivered per frame.
func WithFrameSize(samples int) ClientOption {
	return func(c *Client) { c.frameSamples = samples }
}

func NewClient(opts ...ClientOption) (*Client, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	c := &Client{frameSamples: defaultFrameSamples}
	for _, opt := range opts {
		opt(c)
	}

	c.in = make([]int16, c.frameSamples)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(audio.DefaultInputSampleRate), c.frameSamples, c.in)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("failed to open portaudio stream: %w", err)
	}
	c.stream = stream

	return c, nil
}

// Stream reads microphone frames until ctx is cancelled. Each frame handed
// to onFrame is exactly the configured frame size.
func (c *Client) Stream(ctx context.Context, onFrame func(samples []float32)) error {
	if err := c.stream.Start(); err != nil {
		return fmt.Errorf("failed to start portaudio stream: %w", err)
	}
	defer c.stream.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
			if err := c.stream.Read(); err != nil {
				return fmt.Errorf("failed to read from portaudio stream: %w", err)
			}

			frame := make([]float32, len(c.in))
			for i, sample := range c.in {
				frame[i] = float32(sample) / math.MaxInt16
			}
			onFrame(frame)
		}
	}
}

func (c *Client) Close() error {
	if err := c.stream.Close(); err != nil {
		return fmt.Errorf("failed to close portaudio stream: %w", err)
	}
	return portaudio.Terminate()
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.GetDefaultInputEncodingInfo()
}
