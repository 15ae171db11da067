package provider

import "sort"

// catalog lists the model identifiers asq knows about, per provider. Models
// outside the catalog can still be used with an explicit provider prefix.
var catalog = map[string][]string{
	OpenAI: {
		"gpt-3.5-turbo",
		"gpt-4-turbo",
		"gpt-4.1",
		"gpt-4.1-mini",
		"gpt-4.1-nano",
		"gpt-4o",
		"gpt-4o-mini",
		"o1",
		"o3",
		"o3-mini",
		"o4-mini",
	},
	Anthropic: {
		"claude-3-5-haiku-20241022",
		"claude-3-5-sonnet-20241022",
		"claude-3-7-sonnet-20250219",
		"claude-opus-4-20250514",
		"claude-sonnet-4-20250514",
	},
	OpenRouter: {
		"anthropic/claude-3.5-sonnet",
		"meta-llama/llama-3.1-70b-instruct",
		"openai/gpt-4o",
	},
	Groq: {
		"llama-3.1-8b-instant",
		"llama-3.3-70b-versatile",
	},
	DeepSeek: {
		"deepseek-chat",
		"deepseek-reasoner",
	},
	Ollama: {
		"llama3.1",
		"mistral",
		"qwen2.5",
	},
	ClaudeCode: {
		"haiku",
		"opus",
		"sonnet",
	},
}

// bareProviders are listed without a prefix; their models resolve by name.
var bareProviders = map[string]bool{
	OpenAI:    true,
	Anthropic: true,
}

// ListModels returns every catalogued model identifier in sorted order.
// Identifiers of providers other than OpenAI and Anthropic carry a
// "provider/" prefix, matching what ParseModel accepts.
func ListModels() []string {
	var models []string
	for name, entries := range catalog {
		for _, model := range entries {
			if bareProviders[name] {
				models = append(models, model)
				continue
			}
			models = append(models, name+"/"+model)
		}
	}
	sort.Strings(models)
	return models
}

// lookupBare finds the provider of a catalogued bare model name.
func lookupBare(model string) (string, bool) {
	for name := range bareProviders {
		for _, entry := range catalog[name] {
			if entry == model {
				return name, true
			}
		}
	}
	return "", false
}
