package config

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// CatalogEntry is one row of the room catalog
type CatalogEntry struct {
	Name string // building-room_number
	Type string
}

// Catalog maps room codes to their names and types
type Catalog map[string]CatalogEntry

// LoadCatalog reads the room catalog CSV. An empty path yields an empty catalog.
func LoadCatalog(path string) (Catalog, error) {
	if path == "" {
		return Catalog{}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening room catalog: %w", err)
	}
	defer f.Close()

	return ParseCatalog(f)
}

// ParseCatalog parses catalog CSV with room_code, building, room_number and
// dorm_type columns in any order
func ParseCatalog(r io.Reader) (Catalog, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading catalog header: %w", err)
	}

	codeCol, buildingCol, numberCol, typeCol := -1, -1, -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))) {
		case "room_code":
			codeCol = i
		case "building":
			buildingCol = i
		case "room_number":
			numberCol = i
		case "dorm_type":
			typeCol = i
		}
	}

	if codeCol == -1 || buildingCol == -1 || numberCol == -1 || typeCol == -1 {
		return nil, fmt.Errorf("catalog header must contain room_code, building, room_number and dorm_type. Header: %v", header)
	}

	catalog := Catalog{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading catalog row: %w", err)
		}

		maxCol := max(codeCol, buildingCol, numberCol, typeCol)
		if len(record) <= maxCol {
			continue
		}

		code := strings.TrimSpace(record[codeCol])
		if code == "" {
			continue
		}

		catalog[code] = CatalogEntry{
			Name: fmt.Sprintf("%s-%s", strings.TrimSpace(record[buildingCol]), strings.TrimSpace(record[numberCol])),
			Type: strings.TrimSpace(record[typeCol]),
		}
	}

	return catalog, nil
}
