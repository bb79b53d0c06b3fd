package openaiadapter

import (
	"browsertools/internal/domain/entity"

	"github.com/sashabaranov/go-openai"
)

// ToOpenAITool renders a tool definition as an OpenAI function tool.
func ToOpenAITool(def entity.ToolDefinition) openai.Tool {
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        def.Name.String(),
			Description: def.Description,
			Parameters:  def.Parameters(),
		},
	}
}

func ToOpenAITools(defs []entity.ToolDefinition) []openai.Tool {
	result := make([]openai.Tool, 0, len(defs))
	for _, def := range defs {
		result = append(result, ToOpenAITool(def))
	}
	return result
}
