package pipeline

import (
	"fmt"

	"github.com/knights-analytics/hugot"
	"github.com/radarhk/radar/helper"
)

// EmbedFunc turns a text into a dense vector for semantic search over saved
// places
type EmbedFunc func(text string) ([]float32, error)

// EmbeddingDim is the output dimension of the default embedding model
const EmbeddingDim = 384

// DefaultEmbedder creates an embedder backed by the all-MiniLM-L6-v2 sentence
// transformer, which produces 384-dimensional embeddings. The model is
// downloaded on first use.
func DefaultEmbedder() (EmbedFunc, error) {
	modelName := "sentence-transformers/all-MiniLM-L6-v2"
	modelPath, err := helper.PrepareModel(modelName, "model.onnx")
	if err != nil {
		return nil, err
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "embedder-pipeline",
	}
	sentencePipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create sentence pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create sentence pipeline: %w", err)
	}

	return func(text string) ([]float32, error) {
		result, err := sentencePipeline.RunPipeline([]string{text})
		if err != nil {
			return nil, fmt.Errorf("failed to generate embedding: %w", err)
		}

		if len(result.Embeddings) == 0 {
			return nil, fmt.Errorf("no embedding generated")
		}

		return result.Embeddings[0], nil
	}, nil
}

// EmbeddingText builds the text embedded for one saved place
func EmbeddingText(name, address, category string, tags []string) string {
	text := name
	if category != "" {
		text += " " + category
	}
	if address != "" {
		text += " " + address
	}
	for _, tag := range tags {
		text += " " + tag
	}
	return text
}
