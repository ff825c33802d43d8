package config

// mergeConfigs merges override configuration into base. Only fields the
// override actually sets win; zero values leave the base untouched.
func mergeConfigs(base, override *Config) *Config {
	result := *base

	if override.Version != "" {
		result.Version = override.Version
	}
	if override.Name != "" {
		result.Name = override.Name
	}

	result.Server = mergeServer(result.Server, override.Server)
	result.LLM = mergeLLM(result.LLM, override.LLM)
	result.Editor = mergeEditor(result.Editor, override.Editor)
	result.Files = mergeFiles(result.Files, override.Files)
	result.Sync = mergeSync(result.Sync, override.Sync)
	result.Chat = mergeChat(result.Chat, override.Chat)

	if override.Extensions != nil {
		if result.Extensions == nil {
			result.Extensions = make(map[string]interface{})
		}
		for key, value := range override.Extensions {
			// Same extension key in both layers: merge map-valued sections
			// key by key, replace anything else wholesale.
			if baseValue, exists := result.Extensions[key]; exists {
				if baseMap, baseOk := baseValue.(map[string]interface{}); baseOk {
					if overrideMap, overrideOk := value.(map[string]interface{}); overrideOk {
						merged := make(map[string]interface{}, len(baseMap)+len(overrideMap))
						for k, v := range baseMap {
							merged[k] = v
						}
						for k, v := range overrideMap {
							merged[k] = v
						}
						result.Extensions[key] = merged
						continue
					}
				}
			}
			result.Extensions[key] = value
		}
	}

	return &result
}

func mergeServer(base, override ServerConfig) ServerConfig {
	result := base
	if override.ListenAddr != "" {
		result.ListenAddr = override.ListenAddr
	}
	if len(override.CORSOrigins) > 0 {
		result.CORSOrigins = override.CORSOrigins
	}
	return result
}

func mergeLLM(base, override LLMConfig) LLMConfig {
	result := base
	if override.Model != "" {
		result.Model = override.Model
	}
	if override.APIKeyEnv != "" {
		result.APIKeyEnv = override.APIKeyEnv
	}
	if override.MaxRetries != 0 {
		result.MaxRetries = override.MaxRetries
	}
	if override.RequestTimeoutSeconds != 0 {
		result.RequestTimeoutSeconds = override.RequestTimeoutSeconds
	}
	return result
}

func mergeEditor(base, override EditorConfig) EditorConfig {
	result := base
	if override.Command != "" {
		result.Command = override.Command
	}
	if override.DisableNvimAttach {
		result.DisableNvimAttach = true
	}
	return result
}

func mergeFiles(base, override FilesConfig) FilesConfig {
	result := base
	if len(override.Extensions) > 0 {
		result.Extensions = override.Extensions
	}
	if override.IgnoreFile != "" {
		result.IgnoreFile = override.IgnoreFile
	}
	if override.UploadDir != "" {
		result.UploadDir = override.UploadDir
	}
	if override.InstructionsFile != "" {
		result.InstructionsFile = override.InstructionsFile
	}
	return result
}

func mergeSync(base, override SyncConfig) SyncConfig {
	result := base
	if override.MaxFiles != 0 {
		result.MaxFiles = override.MaxFiles
	}
	if override.MaxFileSizeBytes != 0 {
		result.MaxFileSizeBytes = override.MaxFileSizeBytes
	}
	return result
}

func mergeChat(base, override ChatConfig) ChatConfig {
	result := base
	if override.HistoryTurns != 0 {
		result.HistoryTurns = override.HistoryTurns
	}
	if override.Persist != nil {
		result.Persist = override.Persist
	}
	return result
}
