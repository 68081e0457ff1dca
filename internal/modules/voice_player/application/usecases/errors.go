package usecases

import "errors"

// Errors returned by the voice player use cases.
var (
	// ErrNotConnected is returned when an operation requires the bot to be in a voice channel.
	ErrNotConnected = errors.New("not connected to a voice channel")

	// ErrUserNotInVoice is returned when the user is not in a voice channel.
	ErrUserNotInVoice = errors.New("you must be in a voice channel")

	// ErrAlreadyConnected is returned when joining the channel the bot is already in.
	ErrAlreadyConnected = errors.New("already in your voice channel")

	// ErrNotPlaying is returned when no track is currently playing.
	ErrNotPlaying = errors.New("nothing is currently playing")

	// ErrAlreadyPaused is returned when trying to pause while already paused.
	ErrAlreadyPaused = errors.New("playback is already paused")

	// ErrNotPaused is returned when trying to resume while not paused.
	ErrNotPaused = errors.New("playback is not paused")

	// ErrEmptyQuery is returned when play is called without a query.
	ErrEmptyQuery = errors.New("provide a URL or search term")

	// ErrNoResults is returned when a search yields no results.
	ErrNoResults = errors.New("no results found")

	// ErrQueueEmpty is returned when the queue is empty.
	ErrQueueEmpty = errors.New("the queue is empty")

	// ErrNotEnoughToShuffle is returned when shuffling fewer than two tracks.
	ErrNotEnoughToShuffle = errors.New("need at least 2 items in the queue to shuffle")

	// ErrNothingToResume is returned when a snapshot has nothing to re-apply.
	ErrNothingToResume = errors.New("nothing to resume")

	// ErrResolutionFailed is returned when the media resolver fails or times out.
	ErrResolutionFailed = errors.New("failed to resolve media")

	// ErrVoiceTransport is returned when the voice transport fails or times out.
	ErrVoiceTransport = errors.New("voice transport failed")

	// ErrNothingToSeek is returned when seeking without a loaded track.
	ErrNothingToSeek = errors.New("nothing to seek, no track is loaded")

	// ErrNotSeekable is returned when seeking a live or segmented source.
	ErrNotSeekable = errors.New("current source is not seekable (live/HLS)")

	// ErrRefuseInterrupt is returned when speech would interrupt a source
	// that cannot be resumed afterwards.
	ErrRefuseInterrupt = errors.New("current source is not resumable, not interrupting it")

	// ErrEmptySpeech is returned when there is no text to speak.
	ErrEmptySpeech = errors.New("nothing to say")
)
