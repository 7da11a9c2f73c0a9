// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package gemini

import (
	"google.golang.org/genai"

	"github.com/sigil-dev/ragdesk/internal/rag"
)

// Safety filtering is disabled for grounded answers over the user's own
// documents.
var querySafetyCategories = []genai.HarmCategory{
	genai.HarmCategoryDangerousContent,
	genai.HarmCategoryHarassment,
	genai.HarmCategoryHateSpeech,
	genai.HarmCategorySexuallyExplicit,
}

func buildQueryConfig(storeID string) *genai.GenerateContentConfig {
	safety := make([]*genai.SafetySetting, 0, len(querySafetyCategories))
	for _, cat := range querySafetyCategories {
		safety = append(safety, &genai.SafetySetting{
			Category:  cat,
			Threshold: genai.HarmBlockThresholdBlockNone,
		})
	}

	return &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{
			FileSearch: &genai.FileSearch{FileSearchStoreNames: []string{storeID}},
		}},
		SafetySettings: safety,
	}
}

func convertResponse(resp *genai.GenerateContentResponse) *rag.QueryResult {
	result := &rag.QueryResult{AnswerText: resp.Text(), Citations: []rag.Citation{}}
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].GroundingMetadata == nil {
		return result
	}

	for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
		if chunk == nil || chunk.RetrievedContext == nil {
			continue
		}
		rc := chunk.RetrievedContext
		c := rag.Citation{Title: rc.Title, DocumentName: rc.DocumentName}
		if rc.Text != "" {
			text := rc.Text
			c.SourceText = &text
		}
		result.Citations = append(result.Citations, c)
	}
	return result
}

func convertStore(s *genai.FileSearchStore) rag.Store {
	return rag.Store{
		ID:               s.Name,
		DisplayName:      s.DisplayName,
		ActiveDocuments:  s.ActiveDocumentsCount,
		PendingDocuments: s.PendingDocumentsCount,
		FailedDocuments:  s.FailedDocumentsCount,
		SizeBytes:        s.SizeBytes,
		CreateTime:       s.CreateTime,
	}
}

func convertDocument(d *genai.Document) rag.Document {
	return rag.Document{
		ID:          d.Name,
		DisplayName: d.DisplayName,
		Metadata:    fromCustomMetadata(d.CustomMetadata),
		State:       convertState(d.State),
		SizeBytes:   d.SizeBytes,
		MIMEType:    d.MIMEType,
		CreateTime:  d.CreateTime,
	}
}

func convertState(s genai.DocumentState) rag.DocumentState {
	switch s {
	case genai.DocumentStatePending:
		return rag.DocumentStatePending
	case genai.DocumentStateActive:
		return rag.DocumentStateActive
	case genai.DocumentStateFailed:
		return rag.DocumentStateFailed
	default:
		return rag.DocumentStateUnspecified
	}
}

// The wire format carries numbers as float32.
func toCustomMetadata(entries []rag.KeyValue) []*genai.CustomMetadata {
	if len(entries) == 0 {
		return nil
	}
	out := make([]*genai.CustomMetadata, 0, len(entries))
	for _, kv := range entries {
		cm := &genai.CustomMetadata{Key: kv.Key}
		switch kv.Kind() {
		case rag.KindString:
			cm.StringValue = *kv.StringValue
		case rag.KindStringList:
			cm.StringListValue = &genai.StringList{Values: kv.StringListValue}
		case rag.KindNumeric:
			cm.NumericValue = genai.Ptr(float32(*kv.NumericValue))
		default:
			continue
		}
		out = append(out, cm)
	}
	return out
}

func fromCustomMetadata(entries []*genai.CustomMetadata) []rag.KeyValue {
	if len(entries) == 0 {
		return nil
	}
	out := make([]rag.KeyValue, 0, len(entries))
	for _, cm := range entries {
		if cm == nil {
			continue
		}
		switch {
		case cm.NumericValue != nil:
			out = append(out, rag.NumericKV(cm.Key, float64(*cm.NumericValue)))
		case cm.StringListValue != nil:
			out = append(out, rag.StringListKV(cm.Key, cm.StringListValue.Values...))
		default:
			out = append(out, rag.StringKV(cm.Key, cm.StringValue))
		}
	}
	return out
}
