package config

import "testing"

func TestMergeConfigs(t *testing.T) {
	base := &Config{
		Version: "1",
		Server:  ServerConfig{ListenAddr: "127.0.0.1:4117"},
		LLM:     LLMConfig{Model: "gemini-2.0-flash", MaxRetries: 3},
		Extensions: map[string]interface{}{
			"deploy": map[string]interface{}{
				"target": "staging",
				"region": "us-east1",
			},
		},
	}
	override := &Config{
		LLM: LLMConfig{Model: "gemini-2.5-pro"},
		Extensions: map[string]interface{}{
			"deploy": map[string]interface{}{
				"target": "production",
			},
		},
	}

	merged := mergeConfigs(base, override)

	if merged.Server.ListenAddr != "127.0.0.1:4117" {
		t.Errorf("Base listen addr should survive, got %q", merged.Server.ListenAddr)
	}
	if merged.LLM.Model != "gemini-2.5-pro" {
		t.Errorf("Override model should win, got %q", merged.LLM.Model)
	}
	if merged.LLM.MaxRetries != 3 {
		t.Errorf("Base retries should survive, got %d", merged.LLM.MaxRetries)
	}

	deploy, ok := merged.Extensions["deploy"].(map[string]interface{})
	if !ok {
		t.Fatal("deploy extension should be a map")
	}
	if deploy["target"] != "production" {
		t.Errorf("Override extension key should win, got %v", deploy["target"])
	}
	if deploy["region"] != "us-east1" {
		t.Errorf("Base extension key should survive, got %v", deploy["region"])
	}
}

func TestMergeChatPersist(t *testing.T) {
	off := false
	base := &Config{Version: "1"}
	override := &Config{Chat: ChatConfig{Persist: &off}}

	merged := mergeConfigs(base, override)
	if merged.Chat.Persist == nil || *merged.Chat.Persist {
		t.Error("Override should be able to turn persistence off")
	}
}
