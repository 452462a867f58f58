package model

// ================ Config ================
type ChatModelConfig struct {
	Model       string  `envconfig:"CHAT_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"CHAT_MAX_TOKENS" default:"4000"`
	Temperature float32 `envconfig:"CHAT_TEMPERATURE" default:"0.4"`
}

type PromptConfig struct {
	AssistantName string `envconfig:"PROMPT_ASSISTANT_NAME" default:"demo assistant"`
	// Extra instructions appended verbatim to the rendered system prompt.
	Instructions string `envconfig:"PROMPT_INSTRUCTIONS"`
}

type ConversationConfig struct {
	Context struct {
		// MaxTurns bounds how many transcript messages are replayed to the
		// model; zero means the full transcript.
		MaxTurns int `envconfig:"CONVERSATION_CONTEXT_MAX_TURNS" default:"0"`
	}
	Tools struct {
		MaxCalls int `envconfig:"CONVERSATION_TOOL_MAX_CALLS" default:"5"`
	}
}

type FilesConfig struct {
	// Dir is the directory exposed by the /files/ endpoints and used to
	// resolve selected_files context.
	Dir string `envconfig:"FILES_DIR" default:"."`
}

type ServerConfig struct {
	Host string `envconfig:"SERVER_HOST" default:"localhost"`
	Port int    `envconfig:"SERVER_PORT" default:"8000"`
}
