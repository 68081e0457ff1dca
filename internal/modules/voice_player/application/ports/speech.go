package ports

// SpeechSynthesizer turns text into a stream endpoint that speaks it.
type SpeechSynthesizer interface {
	Endpoint(text string) (StreamEndpoint, error)
}
