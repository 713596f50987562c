package domain

import (
	"fmt"
	"strings"
)

// ModelType is a model family understood by the catalog proxy.
type ModelType struct {
	Label    string
	APIValue string
}

var (
	ModelTypeCheckpoint = ModelType{Label: "Checkpoints", APIValue: "Checkpoint"}
	ModelTypeLoRA       = ModelType{Label: "LoRAs", APIValue: "LORA"}
	ModelTypeEmbedding  = ModelType{Label: "Embeddings", APIValue: "TextualInversion"}
)

var ModelTypes = []ModelType{ModelTypeCheckpoint, ModelTypeLoRA, ModelTypeEmbedding}

// ParseModelType accepts either the label or the API value, case-insensitive.
// An empty string means "any type".
func ParseModelType(raw string) (ModelType, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ModelType{}, nil
	}
	for _, t := range ModelTypes {
		if strings.EqualFold(trimmed, t.APIValue) || strings.EqualFold(trimmed, t.Label) {
			return t, nil
		}
	}
	return ModelType{}, fmt.Errorf("unsupported model type %q", raw)
}
