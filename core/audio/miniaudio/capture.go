package miniaudio

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/parley-ai/parley-core/core/audio"
)

// captureFrameSamples is 30ms at the input sample rate. The device may
// deliver callbacks of any size; frames handed to the consumer are always
// exactly this long.
const captureFrameSamples = 480

type captureClient struct {
	audioContext *malgo.AllocatedContext
	device       *malgo.Device
	config       malgo.DeviceConfig

	onFrame func(samples []float32)
	pending []float32

	mu sync.Mutex
}

func (c *captureClient) Init(audioContext *malgo.AllocatedContext) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sampleRate := uint32(audio.DefaultInputSampleRate)
	channels := 1
	format := malgo.FormatS16
	bytesPerFrame := malgo.SampleSizeInBytes(format) * channels

	c.config = malgo.DefaultDeviceConfig(malgo.Capture)
	c.config.SampleRate = sampleRate
	c.config.Capture.Format = format
	c.config.Capture.Channels = uint32(channels)
	c.config.Alsa.NoMMap = 1
	c.config.PerformanceProfile = malgo.LowLatency
	c.config.PeriodSizeInFrames = captureFrameSamples
	c.config.Periods = 3

	c.audioContext = audioContext

	var err error
	c.device, err = malgo.InitDevice(c.audioContext.Context, c.config, malgo.DeviceCallbacks{
		Data: func(_, pInput []byte, frameCount uint32) {
			n := int(frameCount) * bytesPerFrame
			if len(pInput) < n || n == 0 {
				return
			}
			c.consume(pInput[:n])
		},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize capture device: %w", err)
	}

	return nil
}

// consume converts raw s16le capture bytes to float samples and emits
// whole fixed-size frames.
func (c *captureClient) consume(raw []byte) {
	c.mu.Lock()
	onFrame := c.onFrame
	if onFrame == nil {
		c.mu.Unlock()
		return
	}

	for i := 0; i+1 < len(raw); i += 2 {
		quantized := int16(uint16(raw[i]) | uint16(raw[i+1])<<8)
		c.pending = append(c.pending, float32(quantized)/math.MaxInt16)
	}

	var frames [][]float32
	for len(c.pending) >= captureFrameSamples {
		frame := make([]float32, captureFrameSamples)
		copy(frame, c.pending[:captureFrameSamples])
		c.pending = c.pending[captureFrameSamples:]
		frames = append(frames, frame)
	}
	c.mu.Unlock()

	for _, frame := range frames {
		onFrame(frame)
	}
}

// Stream starts capture and delivers frames until ctx is cancelled. The
// device stays initialized across sessions; Uninit releases it.
func (c *captureClient) Stream(ctx context.Context, onFrame func(samples []float32)) error {
	c.mu.Lock()
	if c.device == nil {
		c.mu.Unlock()
		return fmt.Errorf("device not initialized")
	}
	c.onFrame = onFrame
	c.pending = nil

	if !c.device.IsStarted() {
		if err := c.device.Start(); err != nil {
			c.onFrame = nil
			c.mu.Unlock()
			return fmt.Errorf("failed to start capture device: %w", err)
		}
	}
	c.mu.Unlock()

	<-ctx.Done()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.onFrame = nil
	if c.device != nil && c.device.IsStarted() {
		if err := c.device.Stop(); err != nil {
			return fmt.Errorf("failed to stop capture device: %w", err)
		}
	}
	return nil
}

func (c *captureClient) Close() error {
	return c.Uninit()
}

func (c *captureClient) Uninit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device != nil {
		c.device.Uninit()
		c.device = nil
	}

	c.onFrame = nil
	c.pending = nil
	return nil
}

func (c *captureClient) EncodingInfo() audio.EncodingInfo {
	return audio.GetDefaultInputEncodingInfo()
}
