package config

const (
	defaultEndpoint       = "http://localhost:11434/api/generate"
	defaultModel          = "dolphin-llama3:latest"
	defaultTimeoutSeconds = 120

	defaultLookupBaseURL   = "https://en.wikipedia.org"
	defaultLookupUserAgent = "parley/0.1 (https://github.com/papercomputeco/parley)"
	defaultLookupMaxChars  = 600
	defaultLookupTrigger   = "search"

	defaultDocumentMaxChars = 1000
	defaultDocumentMaxPages = 3

	defaultStorageProvider = "sqlite"

	defaultSpeechMaxChars = 300
	defaultSynthCommand   = "espeak-ng -w {output} {text}"
	defaultPlayerCommand  = "aplay -q {file}"

	defaultAPIListen = ":8082"

	defaultEventsProvider = "nop"
	defaultEventsTopic    = "parley.memory"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Inference: InferenceConfig{
			Endpoint:       defaultEndpoint,
			Model:          defaultModel,
			TimeoutSeconds: defaultTimeoutSeconds,
		},
		Lookup: LookupConfig{
			BaseURL:   defaultLookupBaseURL,
			UserAgent: defaultLookupUserAgent,
			MaxChars:  defaultLookupMaxChars,
			Trigger:   defaultLookupTrigger,
		},
		Document: DocumentConfig{
			MaxChars: defaultDocumentMaxChars,
			MaxPages: defaultDocumentMaxPages,
		},
		Storage: StorageConfig{
			Provider: defaultStorageProvider,
		},
		Speech: SpeechConfig{
			MaxChars:      defaultSpeechMaxChars,
			SynthCommand:  defaultSynthCommand,
			PlayerCommand: defaultPlayerCommand,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Events: EventsConfig{
			Provider: defaultEventsProvider,
			Topic:    defaultEventsTopic,
		},
	}
}
