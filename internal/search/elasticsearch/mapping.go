package elasticsearch

// DefaultIndexName is the index holding catalog entries.
const DefaultIndexName = "knowmoreqr_tags"

// indexMapping stores documents in the CatalogEntry JSON shape. name and
// series get a lowercase-normalised keyword subfield so wildcard queries
// give case-insensitive substring matches.
const indexMapping = `{
  "settings": {
    "number_of_shards": 1,
    "number_of_replicas": 0,
    "analysis": {
      "normalizer": {
        "lowercase_normalizer": {
          "type": "custom",
          "filter": ["lowercase"]
        }
      }
    }
  },
  "mappings": {
    "properties": {
      "id":                      { "type": "keyword" },
      "companyId":               { "type": "long" },
      "name":                    { "type": "text", "fields": { "lower": { "type": "keyword", "normalizer": "lowercase_normalizer", "ignore_above": 512 } } },
      "series":                  { "type": "text", "fields": { "lower": { "type": "keyword", "normalizer": "lowercase_normalizer", "ignore_above": 512 } } },
      "unitPrice":               { "type": "keyword", "index": false },
      "salePrice":               { "type": "keyword", "index": false },
      "description":             { "type": "text" },
      "colourways":              { "type": "object", "enabled": false },
      "carbonFootprint":         { "type": "double" },
      "waterUsage":              { "type": "double" },
      "recycledContentPercent":  { "type": "double" },
      "wasteReductionPractices": { "type": "text" },
      "views":                   { "type": "long" },
      "saves":                   { "type": "long" },
      "createdAt":               { "type": "date" }
    }
  }
}`
