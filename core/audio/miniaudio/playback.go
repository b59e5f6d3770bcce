package miniaudio

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gen2brain/malgo"
	"github.com/parley-ai/parley-core/core/audio"
)

// playbackClient renders segments scheduled at absolute positions on its
// output clock. The clock is a frame counter that starts at zero when the
// device starts and advances with every rendered period, silent or not.
type playbackClient struct {
	audioContext *malgo.AllocatedContext
	device       *malgo.Device
	config       malgo.DeviceConfig

	mu          sync.Mutex
	clockFrames uint64
	segments    []*scheduledSegment
}

type scheduledSegment struct {
	samples    []int16
	startFrame uint64
	stopped    bool
	onDone     func()
}

// segmentHandle lets the scheduler stop one segment mid-flight.
type segmentHandle struct {
	client  *playbackClient
	segment *scheduledSegment
}

func (h *segmentHandle) Stop() {
	h.client.mu.Lock()
	defer h.client.mu.Unlock()
	h.segment.stopped = true
}

func (c *playbackClient) Init(audioContext *malgo.AllocatedContext) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sampleRate := uint32(audio.DefaultOutputSampleRate)
	channels := 1
	format := malgo.FormatS16
	bytesPerFrame := malgo.SampleSizeInBytes(format) * channels

	c.config = malgo.DefaultDeviceConfig(malgo.Playback)
	c.config.SampleRate = sampleRate
	c.config.Playback.Format = format
	c.config.Playback.Channels = uint32(channels)
	c.config.Alsa.NoMMap = 1
	c.config.PeriodSizeInFrames = sampleRate / 10 // ~100ms of audio
	c.config.Periods = 4

	c.audioContext = audioContext

	var err error
	if c.device, err = malgo.InitDevice(
		c.audioContext.Context,
		c.config,
		malgo.DeviceCallbacks{Data: c.renderAudio(bytesPerFrame)},
	); err != nil {
		return err
	}

	return nil
}

func (c *playbackClient) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return fmt.Errorf("device not initialized")
	}

	if err := c.device.Start(); err != nil {
		return fmt.Errorf("failed to start playback device: %w", err)
	}

	return nil
}

// Now reports the output clock position.
func (c *playbackClient) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	return time.Duration(float64(c.clockFrames) / float64(audio.DefaultOutputSampleRate) * float64(time.Second))
}

// PlayAt schedules samples to start at the given output-clock time. Start
// times already behind the clock are clamped to the next rendered period.
func (c *playbackClient) PlayAt(samples []float32, at time.Duration, onDone func()) (audio.PlaybackHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device == nil {
		return nil, fmt.Errorf("device not initialized")
	} else if !c.device.IsStarted() {
		return nil, fmt.Errorf("device not started")
	}

	quantized := make([]int16, len(samples))
	for i, sample := range samples {
		if sample > 1 {
			sample = 1
		} else if sample < -1 {
			sample = -1
		}
		quantized[i] = int16(math.Round(float64(sample) * math.MaxInt16))
	}

	startFrame := uint64(float64(at) / float64(time.Second) * float64(audio.DefaultOutputSampleRate))
	if startFrame < c.clockFrames {
		startFrame = c.clockFrames
	}

	segment := &scheduledSegment{
		samples:    quantized,
		startFrame: startFrame,
		onDone:     onDone,
	}
	c.segments = append(c.segments, segment)

	return &segmentHandle{client: c, segment: segment}, nil
}

// renderAudio copies the slices of scheduled segments overlapping the
// rendered window into the output buffer. Segments never overlap in normal
// flow, so plain copies stand in for mixing.
func (c *playbackClient) renderAudio(bytesPerFrame int) malgo.DataProc {
	return func(pOutput, _ []byte, frameCount uint32) {
		c.mu.Lock()

		windowStart := c.clockFrames
		windowEnd := windowStart + uint64(frameCount)
		c.clockFrames = windowEnd

		var finished []func()
		remaining := c.segments[:0]
		for _, segment := range c.segments {
			if segment.stopped {
				continue
			}

			segmentEnd := segment.startFrame + uint64(len(segment.samples))
			if segmentEnd <= windowStart {
				// Fully rendered in an earlier window.
				if segment.onDone != nil {
					finished = append(finished, segment.onDone)
				}
				continue
			}
			if segment.startFrame < windowEnd {
				copySegmentWindow(pOutput, segment, windowStart, windowEnd, bytesPerFrame)
			}
			if segmentEnd <= windowEnd {
				if segment.onDone != nil {
					finished = append(finished, segment.onDone)
				}
				continue
			}
			remaining = append(remaining, segment)
		}
		c.segments = remaining
		c.mu.Unlock()

		if len(finished) > 0 {
			go func() {
				for _, onDone := range finished {
					onDone()
				}
			}()
		}
	}
}

func copySegmentWindow(pOutput []byte, segment *scheduledSegment, windowStart, windowEnd uint64, bytesPerFrame int) {
	from := segment.startFrame
	if from < windowStart {
		from = windowStart
	}
	to := segment.startFrame + uint64(len(segment.samples))
	if to > windowEnd {
		to = windowEnd
	}

	for frame := from; frame < to; frame++ {
		sample := segment.samples[frame-segment.startFrame]
		offset := int(frame-windowStart) * bytesPerFrame
		if offset+1 >= len(pOutput) {
			return
		}
		pOutput[offset] = byte(sample)
		pOutput[offset+1] = byte(uint16(sample) >> 8)
	}
}

func (c *playbackClient) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return fmt.Errorf("device not initialized")
	}

	if err := c.device.Stop(); err != nil {
		return fmt.Errorf("failed to stop playback device: %w", err)
	}

	c.segments = nil
	return nil
}

func (c *playbackClient) Close() error {
	return c.Uninit()
}

func (c *playbackClient) Uninit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device == nil {
		return fmt.Errorf("device not initialized")
	}

	c.device.Uninit()
	c.device = nil
	c.segments = nil

	return nil
}

func (c *playbackClient) EncodingInfo() audio.EncodingInfo {
	return audio.GetDefaultOutputEncodingInfo()
}
