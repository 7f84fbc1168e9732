package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"pagebuilder/internal/domain"
)

// encodeList serializes a section list as an ordered JSON array.
func encodeList(l domain.SectionList) (string, error) {
	if l == nil {
		l = domain.SectionList{}
	}
	data, err := json.Marshal(l)
	if err != nil {
		return "", fmt.Errorf("encode section list: %w", err)
	}
	return string(data), nil
}

// encodeNullableList keeps nil distinct from empty so "never published"
// survives a round trip.
func encodeNullableList(l domain.SectionList) (sql.NullString, error) {
	if l == nil {
		return sql.NullString{}, nil
	}
	s, err := encodeList(l)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: s, Valid: true}, nil
}

func decodeList(s string) (domain.SectionList, error) {
	if s == "" {
		return domain.SectionList{}, nil
	}
	var l domain.SectionList
	if err := json.Unmarshal([]byte(s), &l); err != nil {
		return nil, fmt.Errorf("decode section list: %w", err)
	}
	if l == nil {
		l = domain.SectionList{}
	}
	for i := range l {
		if l[i].Settings == nil {
			l[i].Settings = map[string]any{}
		}
	}
	return l, nil
}

func decodeNullableList(s sql.NullString) (domain.SectionList, error) {
	if !s.Valid {
		return nil, nil
	}
	return decodeList(s.String)
}
