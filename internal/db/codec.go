package db

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/Flarenzy/vpc-provisioner/internal/domain"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// tagDoc keeps the Key/Value casing clients send, so stored documents read
// back the same way they were submitted.
type tagDoc struct {
	Key   string `json:"Key"`
	Value string `json:"Value"`
}

type subnetDoc struct {
	CIDR string   `json:"cidr"`
	AZ   string   `json:"az,omitempty"`
	Tags []tagDoc `json:"tags,omitempty"`
}

func readSchema(name string) (string, error) {
	schema, err := schemaFS.ReadFile("schema/" + name)
	if err != nil {
		return "", fmt.Errorf("reading schema %s: %w", name, err)
	}
	return string(schema), nil
}

func encodeTags(tags []domain.Tag) ([]byte, error) {
	docs := make([]tagDoc, 0, len(tags))
	for _, t := range tags {
		docs = append(docs, tagDoc{Key: t.Key, Value: t.Value})
	}
	return json.Marshal(docs)
}

func decodeTags(raw []byte) ([]domain.Tag, error) {
	var docs []tagDoc
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &docs); err != nil {
			return nil, fmt.Errorf("decode tags: %w", err)
		}
	}
	return tagsFromDocs(docs), nil
}

func encodeSubnets(specs []domain.SubnetSpec) ([]byte, error) {
	docs := make([]subnetDoc, 0, len(specs))
	for _, s := range specs {
		tags := make([]tagDoc, 0, len(s.Tags))
		for _, t := range s.Tags {
			tags = append(tags, tagDoc{Key: t.Key, Value: t.Value})
		}
		docs = append(docs, subnetDoc{CIDR: s.CIDR, AZ: s.AvailabilityZone, Tags: tags})
	}
	return json.Marshal(docs)
}

func decodeSubnets(raw []byte) ([]domain.SubnetSpec, error) {
	var docs []subnetDoc
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &docs); err != nil {
			return nil, fmt.Errorf("decode subnets: %w", err)
		}
	}

	out := make([]domain.SubnetSpec, 0, len(docs))
	for _, d := range docs {
		out = append(out, domain.SubnetSpec{
			CIDR:             d.CIDR,
			AvailabilityZone: d.AZ,
			Tags:             tagsFromDocs(d.Tags),
		})
	}
	return out, nil
}

func tagsFromDocs(docs []tagDoc) []domain.Tag {
	out := make([]domain.Tag, 0, len(docs))
	for _, d := range docs {
		out = append(out, domain.Tag{Key: d.Key, Value: d.Value})
	}
	return out
}

// recordDocs is the JSON-encoded form shared by the SQL backends.
type recordDocs struct {
	tags    []byte
	subnets []byte
}

func encodeRecord(record domain.NetworkRecord) (recordDocs, error) {
	tags, err := encodeTags(record.Tags)
	if err != nil {
		return recordDocs{}, fmt.Errorf("encode tags: %w", err)
	}
	subnets, err := encodeSubnets(record.Subnets)
	if err != nil {
		return recordDocs{}, fmt.Errorf("encode subnets: %w", err)
	}
	return recordDocs{tags: tags, subnets: subnets}, nil
}
