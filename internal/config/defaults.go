package config

const (
	defaultConfigPath            = "~/.config/yubimoji/config.toml"
	defaultClassifierBaseURL     = "https://tk-2423.onrender.com"
	defaultClassifierTimeout     = 10
	defaultRequestsPerSecond     = 2
	defaultThreshold             = 0.5
	defaultCameraFPS             = 30
	defaultMaxHands              = 2
	defaultMinConfidence         = 0.5
	defaultMinTrackingConfidence = 0.5
	defaultSpeechCommand         = "say"
	defaultSpeechTimeout         = 5
	defaultServerBind            = "127.0.0.1:8080"
	defaultPluginTimeout         = 5
	defaultDataDir               = "~/.local/share/yubimoji"
	defaultLogFormat             = "auto"
	defaultLogLevel              = "info"
	classifierURLEnv             = "YUBIMOJI_CLASSIFIER_URL"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Classifier: Classifier{
			BaseURL:           defaultClassifierBaseURL,
			TimeoutSeconds:    defaultClassifierTimeout,
			RequestsPerSecond: defaultRequestsPerSecond,
			Threshold:         defaultThreshold,
		},
		Camera: Camera{
			FPS: defaultCameraFPS,
		},
		Detector: Detector{
			MaxHands:              defaultMaxHands,
			MinConfidence:         defaultMinConfidence,
			MinTrackingConfidence: defaultMinTrackingConfidence,
		},
		Speech: Speech{
			Command:        defaultSpeechCommand,
			TimeoutSeconds: defaultSpeechTimeout,
		},
		Server: Server{
			Bind: defaultServerBind,
		},
		Plugins: Plugins{
			TimeoutSeconds: defaultPluginTimeout,
		},
		Paths: Paths{
			DataDir: defaultDataDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
