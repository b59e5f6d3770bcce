package audio

// PlaybackHandle controls one scheduled playback segment.
type PlaybackHandle interface {
	// Stop silences the segment immediately, however much has played.
	Stop()
}
