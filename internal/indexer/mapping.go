package indexer

import "github.com/stackfield/tracksearch/internal/esquery"

// Analyzer applied to every free-text field: standard tokenization,
// lowercasing, diacritic folding and stemming.
const analyzerName = "tracker_analyzer"

func indexSettings() esquery.M {
	return esquery.M{
		"analysis": esquery.M{
			"analyzer": esquery.M{
				analyzerName: esquery.M{
					"type":      "custom",
					"tokenizer": "standard",
					"filter":    []string{"lowercase", "asciifolding", "snowball"},
				},
			},
		},
	}
}

// indexMappings is the wire schema of domain.Document. Keep in sync with the
// json tags there: keyword/date/boolean/integer for exact-match and range
// fields, analyzed text for free text, nested arrays for journals, custom
// fields and attachments so queries apply per sub-document.
func indexMappings() esquery.M {
	text := esquery.M{"type": "text", "analyzer": analyzerName}

	return esquery.M{
		"properties": esquery.M{
			"type":              esquery.M{"type": "keyword"},
			"project_id":        esquery.M{"type": "integer"},
			"project_is_public": esquery.M{"type": "boolean"},
			"created_on":        esquery.M{"type": "date"},
			"updated_on":        esquery.M{"type": "date"},
			"title": esquery.M{
				"type":     "text",
				"analyzer": analyzerName,
				"fields":   esquery.M{"raw": esquery.M{"type": "keyword"}},
			},
			"content":   text,
			"author_id": esquery.M{"type": "integer"},
			"work_item_fields": esquery.M{
				"properties": esquery.M{
					"is_private":       esquery.M{"type": "boolean"},
					"author_id":        esquery.M{"type": "integer"},
					"assigned_to_id":   esquery.M{"type": "integer"},
					"tracker_id":       esquery.M{"type": "integer"},
					"status_id":        esquery.M{"type": "integer"},
					"status_is_closed": esquery.M{"type": "boolean"},
					"priority_id":      esquery.M{"type": "integer"},
					"journals": esquery.M{
						"type": "nested",
						"properties": esquery.M{
							"id":         esquery.M{"type": "integer"},
							"notes":      text,
							"is_private": esquery.M{"type": "boolean"},
							"user_id":    esquery.M{"type": "integer"},
							"created_on": esquery.M{"type": "date"},
						},
					},
				},
			},
			"custom_fields": esquery.M{
				"type": "nested",
				"properties": esquery.M{
					"id":    esquery.M{"type": "integer"},
					"name":  esquery.M{"type": "keyword"},
					"value": text,
				},
			},
			"attachments": esquery.M{
				"type": "nested",
				"properties": esquery.M{
					"id":               esquery.M{"type": "integer"},
					"filename":         esquery.M{"type": "text"},
					"description":      esquery.M{"type": "text"},
					"fulltext_content": text,
				},
			},
			// Forum post
			"board_id":  esquery.M{"type": "integer"},
			"parent_id": esquery.M{"type": "integer"},
			// Commit
			"repository_id": esquery.M{"type": "integer"},
			// File
			"category_id": esquery.M{"type": "integer"},
			// Project
			"status": esquery.M{"type": "integer"},
		},
	}
}

func indexBody() map[string]any {
	return map[string]any{
		"settings": indexSettings(),
		"mappings": indexMappings(),
	}
}
