package response

import (
	"fmt"

	"healthmate/internal/core/domain"
)

// listKeys are the wrapper keys backends put lists under, in lookup order
var listKeys = []string{"results", "documents", "data", "items"}

// totalKeys are the wrapper keys backends put counts under
var totalKeys = []string{"count", "total"}

// UnwrapList converts a decoded backend payload into a DocumentList.
// Accepted shapes: {results, count}, {documents, total}, {data, total},
// {success, data: {...list shape...}} and a bare array.
func UnwrapList(payload any) (domain.DocumentList, error) {
	switch v := payload.(type) {
	case []any:
		docs, err := toDocuments(v)
		if err != nil {
			return domain.DocumentList{}, err
		}
		return domain.DocumentList{Documents: docs, Total: len(docs)}, nil

	case map[string]any:
		for _, key := range listKeys {
			inner, ok := v[key]
			if !ok {
				continue
			}
			switch items := inner.(type) {
			case []any:
				docs, err := toDocuments(items)
				if err != nil {
					return domain.DocumentList{}, err
				}
				return domain.DocumentList{Documents: docs, Total: totalOf(v, len(docs))}, nil
			case map[string]any:
				// {success, data: {results, count}}
				return UnwrapList(items)
			}
		}
		return domain.DocumentList{}, fmt.Errorf("%w: object without a list (keys: %v)", domain.ErrUnexpectedPayload, keysOf(v))

	case nil:
		return domain.DocumentList{Documents: []domain.Document{}}, nil
	}
	return domain.DocumentList{}, fmt.Errorf("%w: %T", domain.ErrUnexpectedPayload, payload)
}

// UnwrapDocument converts a decoded backend payload into a single Document.
// A {success, data: {...}} envelope is unwrapped; anything else that is an
// object is returned as is.
func UnwrapDocument(payload any) (domain.Document, error) {
	obj, ok := payload.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected object, got %T", domain.ErrUnexpectedPayload, payload)
	}
	if _, isEnvelope := obj["success"]; isEnvelope {
		if inner, ok := obj["data"].(map[string]any); ok {
			return domain.Document(inner), nil
		}
	}
	return domain.Document(obj), nil
}

func toDocuments(items []any) ([]domain.Document, error) {
	docs := make([]domain.Document, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: list item %d is %T", domain.ErrUnexpectedPayload, i, item)
		}
		docs = append(docs, domain.Document(obj))
	}
	return docs, nil
}

func totalOf(obj map[string]any, fallback int) int {
	for _, key := range totalKeys {
		if n, ok := obj[key].(float64); ok {
			return int(n)
		}
	}
	return fallback
}

func keysOf(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	return keys
}
