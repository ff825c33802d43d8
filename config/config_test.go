package config

import (
	"os"
	"path/filepath"
	"testing"
)

// TestExtensions verifies that custom extensions in forge.yml are properly loaded
func TestExtensions(t *testing.T) {
	yamlContent := []byte(`
version: "1"
llm:
  model: gemini-2.0-flash

# Extension fields from a hypothetical companion tool
deploy:
  target: "staging"
  max_parallel: 4
`)

	cfg, err := LoadFromBytes(yamlContent)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Extensions == nil {
		t.Fatal("Extensions map should not be nil")
	}
	if !cfg.HasExtension("deploy") {
		t.Fatal("Expected 'deploy' extension to be present")
	}

	type DeployConfig struct {
		Target      string `yaml:"target"`
		MaxParallel int    `yaml:"max_parallel"`
	}

	var deployCfg DeployConfig
	if err := cfg.UnmarshalExtension("deploy", &deployCfg); err != nil {
		t.Fatalf("Failed to unmarshal deploy extension: %v", err)
	}
	if deployCfg.Target != "staging" {
		t.Errorf("Expected target to be 'staging', got '%s'", deployCfg.Target)
	}
	if deployCfg.MaxParallel != 4 {
		t.Errorf("Expected max_parallel to be 4, got %d", deployCfg.MaxParallel)
	}

	// Known sections must not leak into Extensions
	if cfg.HasExtension("llm") {
		t.Error("'llm' should be a typed section, not an extension")
	}
}

func TestSetDefaults(t *testing.T) {
	cfg := &Config{Version: "1"}
	cfg.SetDefaults()

	if cfg.Server.ListenAddr != "127.0.0.1:4117" {
		t.Errorf("Expected default listen addr, got %q", cfg.Server.ListenAddr)
	}
	if cfg.LLM.Model != "gemini-2.0-flash" {
		t.Errorf("Expected default model, got %q", cfg.LLM.Model)
	}
	if cfg.LLM.MaxRetries != 3 {
		t.Errorf("Expected 3 retries, got %d", cfg.LLM.MaxRetries)
	}
	if cfg.Sync.MaxFiles != 50 {
		t.Errorf("Expected 50 max sync files, got %d", cfg.Sync.MaxFiles)
	}
	if cfg.Sync.MaxFileSizeBytes != 100*1024 {
		t.Errorf("Expected 100KB max file size, got %d", cfg.Sync.MaxFileSizeBytes)
	}
	if cfg.Chat.HistoryTurns != 10 {
		t.Errorf("Expected 10 history turns, got %d", cfg.Chat.HistoryTurns)
	}
	if cfg.Chat.Persist == nil || !*cfg.Chat.Persist {
		t.Error("Expected chat persistence on by default")
	}
	if cfg.Files.UploadDir != "uploads" {
		t.Errorf("Expected default upload dir, got %q", cfg.Files.UploadDir)
	}
}

func TestEnvVarExpansion(t *testing.T) {
	os.Setenv("FORGE_TEST_MODEL", "gemini-2.5-pro")
	defer os.Unsetenv("FORGE_TEST_MODEL")

	yamlContent := []byte(`
version: "1"
llm:
  model: ${FORGE_TEST_MODEL}
server:
  listen_addr: "${FORGE_TEST_ADDR:-127.0.0.1:9000}"
`)

	cfg, err := LoadFromBytes(yamlContent)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.LLM.Model != "gemini-2.5-pro" {
		t.Errorf("Expected env-expanded model, got %q", cfg.LLM.Model)
	}
	if cfg.Server.ListenAddr != "127.0.0.1:9000" {
		t.Errorf("Expected default-value expansion, got %q", cfg.Server.ListenAddr)
	}
}

func TestSchemaValidationRejectsUnknownSectionFields(t *testing.T) {
	yamlContent := []byte(`
version: "1"
llm:
  modle: gemini-2.0-flash
`)

	if _, err := LoadFromBytes(yamlContent); err == nil {
		t.Fatal("Expected schema validation to reject a misspelled llm field")
	}
}

func TestValidateRejectsMissingVersion(t *testing.T) {
	if _, err := LoadFromBytes([]byte(`name: demo`)); err == nil {
		t.Fatal("Expected validation error for missing version")
	}
}

func TestLoadTOML(t *testing.T) {
	tomlContent := []byte(`
version = "1"

[llm]
model = "gemini-2.0-flash"
max_retries = 5
`)

	cfg, err := LoadFromTOMLBytes(tomlContent)
	if err != nil {
		t.Fatalf("Failed to load TOML config: %v", err)
	}
	if cfg.LLM.MaxRetries != 5 {
		t.Errorf("Expected 5 retries, got %d", cfg.LLM.MaxRetries)
	}
}

func TestFindConfigFileWalksUp(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	configPath := filepath.Join(root, "forge.yml")
	if err := os.WriteFile(configPath, []byte("version: \"1\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	found, err := FindConfigFile(nested)
	if err != nil {
		t.Fatalf("FindConfigFile failed: %v", err)
	}
	if found != configPath {
		t.Errorf("Expected %s, got %s", configPath, found)
	}
}
