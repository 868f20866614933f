package config

type AI string

const (
	AIGemini      AI = "gemini"
	AIOpenAI      AI = "openai"
	AIOllama      AI = "ollama"
	AIHuggingFace AI = "huggingface"
	AIMock        AI = "mock"
)

type Model string

const (
	ModelGeminiV25Pro       Model = "gemini-2.5-pro"
	ModelGeminiV25Flash     Model = "gemini-2.5-flash"
	ModelGeminiV25FlashLite Model = "gemini-2.5-flash-lite"

	ModelGPTV4o     Model = "gpt-4o"
	ModelGPTV4oMini Model = "gpt-4o-mini"

	ModelLlama32   Model = "llama3.2"
	ModelQwen25    Model = "qwen2.5-coder"
	ModelNGramWord Model = "ngram"
	ModelMock      Model = "mock"
)

func SupportedAIs() []AI {
	return []AI{
		AIGemini,
		AIOpenAI,
		AIOllama,
		AIHuggingFace,
		AIMock,
	}
}

// IsSupported reports whether provider names a known backend.
func IsSupported(provider string) bool {
	for _, ai := range SupportedAIs() {
		if string(ai) == provider {
			return true
		}
	}
	return false
}

func ModelsForAI(ai AI) []Model {
	switch ai {
	case AIGemini:
		return []Model{
			ModelGeminiV25Flash,
			ModelGeminiV25Pro,
			ModelGeminiV25FlashLite,
		}
	case AIOpenAI:
		return []Model{
			ModelGPTV4oMini,
			ModelGPTV4o,
		}
	case AIOllama:
		return []Model{
			ModelLlama32,
			ModelQwen25,
		}
	case AIHuggingFace:
		return []Model{ModelNGramWord}
	case AIMock:
		return []Model{ModelMock}
	default:
		return []Model{}
	}
}

func DefaultModelForAI(ai AI) Model {
	models := ModelsForAI(ai)
	if len(models) == 0 {
		return ""
	}
	return models[0]
}
