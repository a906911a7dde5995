package backend

import (
	"fmt"
	"sort"

	"github.com/mhoran/kubesift/internal/errdefs"
)

// Provider describes one supported LLM provider for kubectl-ai.
type Provider struct {
	Name          string
	EnvKey        string // credential environment variable; empty when no key is needed
	EnvEndpoint   string // endpoint environment variable, if the provider takes one
	DefaultModel  string
	AllowsBaseURL bool // whether an api_base_url override is honored
	Description   string
}

// providers is the fixed table of supported backends.
var providers = map[string]Provider{
	"gemini": {
		Name:         "gemini",
		EnvKey:       "GEMINI_API_KEY",
		DefaultModel: "gemini-2.0-flash",
		Description:  "Google Gemini API",
	},
	"openai": {
		Name:          "openai",
		EnvKey:        "OPENAI_API_KEY",
		DefaultModel:  "gpt-4o",
		AllowsBaseURL: true,
		Description:   "OpenAI (GPT-4, GPT-4o) or any OpenAI-compatible endpoint",
	},
	"azopenai": {
		Name:          "azopenai",
		EnvKey:        "AZURE_OPENAI_API_KEY",
		EnvEndpoint:   "AZURE_OPENAI_ENDPOINT",
		DefaultModel:  "gpt-4o",
		AllowsBaseURL: true,
		Description:   "Azure OpenAI",
	},
	"grok": {
		Name:         "grok",
		EnvKey:       "GROK_API_KEY",
		DefaultModel: "grok-2",
		Description:  "xAI Grok",
	},
	"ollama": {
		Name:         "ollama",
		DefaultModel: "llama3",
		Description:  "Local Ollama (no API key needed)",
	},
	"vertexai": {
		Name:         "vertexai",
		DefaultModel: "gemini-2.0-flash",
		Description:  "Google Cloud Vertex AI (ambient cloud identity)",
	},
}

// LookupProvider returns the provider entry for name.
func LookupProvider(name string) (Provider, error) {
	p, ok := providers[name]
	if !ok {
		return Provider{}, fmt.Errorf("%w: unknown llm provider %q", errdefs.ErrValidation, name)
	}
	return p, nil
}

// ProviderNames returns the supported provider names in sorted order.
func ProviderNames() []string {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
