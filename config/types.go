package config

import (
	"github.com/forgetools/forge/errors"
	"github.com/mitchellh/mapstructure"
)

//go:generate sh -c "cd .. && go run ./tools/schema-generator/"

// ServerConfig holds settings for the background HTTP daemon.
type ServerConfig struct {
	ListenAddr  string   `yaml:"listen_addr,omitempty" toml:"listen_addr,omitempty" jsonschema:"description=Address the daemon listens on (default: 127.0.0.1:4117)"`
	CORSOrigins []string `yaml:"cors_origins,omitempty" toml:"cors_origins,omitempty" jsonschema:"description=Allowed CORS origins for browser clients"`
}

// LLMConfig holds settings for the language model backend.
type LLMConfig struct {
	Model                 string `yaml:"model,omitempty" toml:"model,omitempty" jsonschema:"description=Model identifier (default: gemini-2.0-flash)"`
	APIKeyEnv             string `yaml:"api_key_env,omitempty" toml:"api_key_env,omitempty" jsonschema:"description=Environment variable holding the API key (default: GOOGLE_API_KEY)"`
	MaxRetries            int    `yaml:"max_retries,omitempty" toml:"max_retries,omitempty" jsonschema:"description=Retries per generation request (default: 3)"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds,omitempty" toml:"request_timeout_seconds,omitempty" jsonschema:"description=Per-request timeout in seconds (default: 120)"`
}

// EditorConfig holds settings for launching the user's editor.
type EditorConfig struct {
	Command           string `yaml:"command,omitempty" toml:"command,omitempty" jsonschema:"description=Editor command; falls back to $EDITOR then $VISUAL then nvim"`
	DisableNvimAttach bool   `yaml:"disable_nvim_attach,omitempty" toml:"disable_nvim_attach,omitempty" jsonschema:"description=Skip attaching to a running Neovim via NVIM_LISTEN_ADDRESS"`
}

// FilesConfig holds settings for project file discovery and storage.
type FilesConfig struct {
	Extensions       []string `yaml:"extensions,omitempty" toml:"extensions,omitempty" jsonschema:"description=File extensions considered project source files"`
	IgnoreFile       string   `yaml:"ignore_file,omitempty" toml:"ignore_file,omitempty" jsonschema:"description=Ignore pattern file name (default: .forgeignore)"`
	UploadDir        string   `yaml:"upload_dir,omitempty" toml:"upload_dir,omitempty" jsonschema:"description=Directory under the project root for uploaded files (default: uploads)"`
	InstructionsFile string   `yaml:"instructions_file,omitempty" toml:"instructions_file,omitempty" jsonschema:"description=Optional prompt preamble file relative to the project root"`
}

// SyncConfig bounds the project summary sent to the model.
type SyncConfig struct {
	MaxFiles         int   `yaml:"max_files,omitempty" toml:"max_files,omitempty" jsonschema:"description=Maximum files included in a sync summary (default: 50)"`
	MaxFileSizeBytes int64 `yaml:"max_file_size_bytes,omitempty" toml:"max_file_size_bytes,omitempty" jsonschema:"description=Maximum size of a file included in a sync summary (default: 102400)"`
}

// ChatConfig holds conversation history settings.
type ChatConfig struct {
	HistoryTurns int   `yaml:"history_turns,omitempty" toml:"history_turns,omitempty" jsonschema:"description=User and model turn pairs kept in the prompt window (default: 10)"`
	Persist      *bool `yaml:"persist,omitempty" toml:"persist,omitempty" jsonschema:"description=Persist the session to .forge/session.json (default: true)"`
}

// Config is the root forge.yml structure.
type Config struct {
	Version string `yaml:"version" toml:"version" jsonschema:"required,description=Configuration version (e.g. '1')"`
	Name    string `yaml:"name,omitempty" toml:"name,omitempty" jsonschema:"description=Name of the project"`

	Server ServerConfig `yaml:"server,omitempty" toml:"server,omitempty" jsonschema:"description=HTTP daemon settings"`
	LLM    LLMConfig    `yaml:"llm,omitempty" toml:"llm,omitempty" jsonschema:"description=Language model settings"`
	Editor EditorConfig `yaml:"editor,omitempty" toml:"editor,omitempty" jsonschema:"description=Editor launch settings"`
	Files  FilesConfig  `yaml:"files,omitempty" toml:"files,omitempty" jsonschema:"description=Project file discovery settings"`
	Sync   SyncConfig   `yaml:"sync,omitempty" toml:"sync,omitempty" jsonschema:"description=Project summary limits"`
	Chat   ChatConfig   `yaml:"chat,omitempty" toml:"chat,omitempty" jsonschema:"description=Conversation history settings"`

	// Extensions captures unknown top-level keys so other tools can store
	// their own sections in forge.yml without failing validation here.
	Extensions map[string]interface{} `yaml:",inline" toml:"-" jsonschema:"-"`
}

// DefaultFileExtensions are the source file extensions listed and synced
// when files.extensions is not configured.
var DefaultFileExtensions = []string{
	".go", ".py", ".js", ".ts", ".jsx", ".tsx",
	".html", ".css", ".json", ".md",
	".yml", ".yaml", ".toml", ".sh", ".sql",
}

// SetDefaults fills in default values for unset fields.
func (c *Config) SetDefaults() {
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = "127.0.0.1:4117"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gemini-2.0-flash"
	}
	if c.LLM.APIKeyEnv == "" {
		c.LLM.APIKeyEnv = "GOOGLE_API_KEY"
	}
	if c.LLM.MaxRetries == 0 {
		c.LLM.MaxRetries = 3
	}
	if c.LLM.RequestTimeoutSeconds == 0 {
		c.LLM.RequestTimeoutSeconds = 120
	}
	if len(c.Files.Extensions) == 0 {
		c.Files.Extensions = append([]string(nil), DefaultFileExtensions...)
	}
	if c.Files.IgnoreFile == "" {
		c.Files.IgnoreFile = ".forgeignore"
	}
	if c.Files.UploadDir == "" {
		c.Files.UploadDir = "uploads"
	}
	if c.Files.InstructionsFile == "" {
		c.Files.InstructionsFile = ".forge/instructions.md"
	}
	if c.Sync.MaxFiles == 0 {
		c.Sync.MaxFiles = 50
	}
	if c.Sync.MaxFileSizeBytes == 0 {
		c.Sync.MaxFileSizeBytes = 100 * 1024
	}
	if c.Chat.HistoryTurns == 0 {
		c.Chat.HistoryTurns = 10
	}
	if c.Chat.Persist == nil {
		persist := true
		c.Chat.Persist = &persist
	}
}

// Validate checks semantic constraints that the schema cannot express.
func (c *Config) Validate() error {
	if c.Version == "" {
		return errors.New(errors.ErrCodeConfigValidation, "version is required")
	}
	if c.LLM.MaxRetries < 0 {
		return errors.New(errors.ErrCodeConfigValidation, "llm.max_retries must not be negative").
			WithDetail("value", c.LLM.MaxRetries)
	}
	if c.Sync.MaxFiles < 0 {
		return errors.New(errors.ErrCodeConfigValidation, "sync.max_files must not be negative").
			WithDetail("value", c.Sync.MaxFiles)
	}
	if c.Sync.MaxFileSizeBytes < 0 {
		return errors.New(errors.ErrCodeConfigValidation, "sync.max_file_size_bytes must not be negative").
			WithDetail("value", c.Sync.MaxFileSizeBytes)
	}
	if c.Chat.HistoryTurns < 0 {
		return errors.New(errors.ErrCodeConfigValidation, "chat.history_turns must not be negative").
			WithDetail("value", c.Chat.HistoryTurns)
	}
	return nil
}

// UnmarshalExtension decodes an extension section into a typed struct.
// Extension structs use yaml tags for field names.
func (c *Config) UnmarshalExtension(key string, target interface{}) error {
	raw, ok := c.Extensions[key]
	if !ok {
		return errors.New(errors.ErrCodeConfigInvalid, "extension not found in configuration").
			WithDetail("key", key)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  target,
		TagName: "yaml",
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to create extension decoder")
	}

	if err := decoder.Decode(raw); err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to decode extension").
			WithDetail("key", key)
	}

	return nil
}

// HasExtension reports whether an extension section is present.
func (c *Config) HasExtension(key string) bool {
	_, ok := c.Extensions[key]
	return ok
}
