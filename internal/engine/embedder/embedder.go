// Package embedder produces dense sentence embeddings with a local ONNX
// MiniLM-style encoder. The encoder is treated as a black box: same text and
// same weights always yield the same vector.
package embedder

import "fmt"

// Embedder produces fixed-dimension vector embeddings from text.
type Embedder interface {
	Embed(text string) ([]float32, error)
	EmbedBatch(texts []string) ([][]float32, error)
	Dim() int
	Close() error
}

// ONNXEmbedder wraps the ONNX runtime session and WordPiece tokenizer for
// local embedding inference: tokenize → transformer → masked mean pooling.
type ONNXEmbedder struct {
	session *onnxSession
	tok     *tokenizer
}

// New creates an ONNXEmbedder from an encoder model file, its WordPiece
// vocabulary, and the ONNX Runtime shared library.
func New(modelPath, vocabPath, libPath string) (*ONNXEmbedder, error) {
	sess, err := newONNXSession(modelPath, libPath)
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}

	tok, err := newTokenizer(vocabPath)
	if err != nil {
		sess.close()
		return nil, fmt.Errorf("embedder: %w", err)
	}

	return &ONNXEmbedder{session: sess, tok: tok}, nil
}

// Dim returns the embedding dimensionality reported by the encoder.
func (e *ONNXEmbedder) Dim() int {
	return int(e.session.embedDim)
}

// Embed produces a single embedding vector. Text beyond the encoder's
// maximum sequence length is truncated at a token boundary, keeping the head
// of the text (titles and opening sentences carry the category signal).
func (e *ONNXEmbedder) Embed(text string) ([]float32, error) {
	vecs, err := e.EmbedBatch([]string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch produces embedding vectors for multiple texts in one inference
// pass. The result for each text matches what Embed would return for it
// alone: padding positions are masked out of the pooled mean.
func (e *ONNXEmbedder) EmbedBatch(texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	batch := e.tok.tokenizeBatch(texts)

	hidden, err := e.session.infer(
		batch.inputIDs, batch.attentionMask, batch.tokenTypeIDs,
		batch.batchSize, batch.seqLen,
	)
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}

	pooled := meanPool(hidden, batch.attentionMask, batch.batchSize, batch.seqLen, e.session.embedDim)

	dim := e.session.embedDim
	results := make([][]float32, batch.batchSize)
	for i := int64(0); i < batch.batchSize; i++ {
		vec := make([]float32, dim)
		copy(vec, pooled[i*dim:(i+1)*dim])
		results[i] = vec
	}
	return results, nil
}

// Close releases ONNX Runtime resources.
func (e *ONNXEmbedder) Close() error {
	if e.session != nil {
		return e.session.close()
	}
	return nil
}
