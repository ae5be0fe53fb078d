package airports

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/dharmasatrya/flightgraph/internal/models"
)

var excludedWords = map[string]bool{
	"base":     true,
	"military": true,
	"heliport": true,
	"helipad":  true,
}

var importanceByType = map[string]float64{
	"large_airport":  100,
	"medium_airport": 50,
	"small_airport":  10,
}

var requiredColumns = []string{"type", "name", "latitude_deg", "longitude_deg", "iata_code"}

// IsNonCommercial matches whole words so "Basel" is not taken for a base.
func IsNonCommercial(name string) bool {
	words := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, word := range words {
		if excludedWords[word] {
			return true
		}
	}
	return false
}

// LoadCSV reads an OurAirports-style export. Rows without a 3-letter IATA
// code, of a non-airport type, or named like a military base or heliport are
// skipped.
func LoadCSV(r io.Reader) ([]models.Airport, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read airports header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			return nil, fmt.Errorf("airports csv: missing column %q", name)
		}
	}

	field := func(record []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var result []models.Airport
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read airports row: %w", err)
		}

		iata := strings.ToUpper(field(record, "iata_code"))
		name := field(record, "name")
		importance, allowed := importanceByType[field(record, "type")]
		if len(iata) != 3 || !allowed || IsNonCommercial(name) {
			continue
		}

		lat, err := strconv.ParseFloat(field(record, "latitude_deg"), 64)
		if err != nil || lat < -90 || lat > 90 {
			continue
		}
		lon, err := strconv.ParseFloat(field(record, "longitude_deg"), 64)
		if err != nil || lon < -180 || lon > 180 {
			continue
		}

		city := field(record, "municipality")
		if city == "" {
			city = name
		}
		result = append(result, models.Airport{
			IATA:            iata,
			Name:            name,
			City:            city,
			Country:         field(record, "iso_country"),
			ImportanceScore: importance,
			Longitude:       lon,
			Latitude:        lat,
		})
	}
	return result, nil
}

func LoadCSVFile(path string) ([]models.Airport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadCSV(f)
}
