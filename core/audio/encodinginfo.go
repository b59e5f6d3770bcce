package audio

import "time"

const (
	DefaultInputSampleRate  = 16000
	DefaultOutputSampleRate = 24000
	DefaultFormat           = "linear16"
)

func GetDefaultInputEncodingInfo() EncodingInfo {
	return EncodingInfo{SampleRate: DefaultInputSampleRate, Format: encodingFormat(DefaultFormat)}
}

func GetDefaultOutputEncodingInfo() EncodingInfo {
	return EncodingInfo{SampleRate: DefaultOutputSampleRate, Format: encodingFormat(DefaultFormat)}
}

type EncodingInfo struct {
	SampleRate int
	Format     encodingFormat
}

func (e EncodingInfo) IsZero() bool {
	return e.SampleRate == 0 || e.Format.Name() == ""
}

// Duration converts a sample count to wall-clock playback time at this
// encoding's sample rate.
func (e EncodingInfo) Duration(sampleCount int) time.Duration {
	if e.SampleRate == 0 {
		return 0
	}
	return time.Duration(float64(sampleCount) / float64(e.SampleRate) * float64(time.Second))
}

// Samples converts a wall-clock duration to a sample count at this
// encoding's sample rate.
func (e EncodingInfo) Samples(duration time.Duration) int {
	return int(float64(duration) / float64(time.Second) * float64(e.SampleRate))
}

type encodingFormat string

func (e encodingFormat) Name() string {
	return string(e)
}

func (e encodingFormat) ByteSize() int {
	switch e {
	case EncodingMulaw, EncodingALaw:
		return 1
	case EncodingLinear16:
		return 2
	}
	return -1
}

const (
	EncodingMulaw    encodingFormat = "mulaw"
	EncodingALaw     encodingFormat = "alaw"
	EncodingLinear16 encodingFormat = "linear16"
)
