package metadata

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	keyDate     = "Incident Date"
	keyType     = "Incident Type"
	keySeverity = "Charge Severity"
	keyArrest   = "Arrest Made"

	DateLayout = "2006-01-02"
)

var IncidentTypes = []string{
	"Domestic Dispute",
	"Drug Related",
	"Fraud and Financial",
	"Impaired Driving",
	"Informational Report",
	"Missing Person",
	"Property Crime",
	"Public Disorder",
	"Sexual Offense",
	"Traffic Incident",
	"Violent Crime",
	"Other",
}

var ChargeSeverities = []string{"Misdemeanor", "Felony", "Infraction", "No Charges"}

// Field is a key/value line not covered by the known fields.
type Field struct {
	Key   string
	Value string
}

// Metadata describes the incident an interview belongs to. It is given to
// the model as shared context for every report sample.
type Metadata struct {
	IncidentDate   string
	IncidentType   string
	ChargeSeverity string
	ArrestMade     bool
	Extra          []Field
}

func (m Metadata) fields() []Field {
	arrest := "No"
	if m.ArrestMade {
		arrest = "Yes"
	}
	fields := []Field{
		{keyDate, m.IncidentDate},
		{keyType, m.IncidentType},
		{keySeverity, m.ChargeSeverity},
		{keyArrest, arrest},
	}
	return append(fields, m.Extra...)
}

// Context renders the "Key: Value" block written to disk and sent to the model.
func (m Metadata) Context() string {
	var b strings.Builder
	for _, f := range m.fields() {
		fmt.Fprintf(&b, "%s: %s\n", f.Key, f.Value)
	}
	return b.String()
}

// Path is where the metadata for name lives in dir.
func Path(dir, name string) string {
	return filepath.Join(dir, name+"_metadata.txt")
}

func Write(dir, name string, m Metadata) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create metadata dir: %w", err)
	}
	path := Path(dir, name)
	if err := os.WriteFile(path, []byte(m.Context()), 0644); err != nil {
		return "", fmt.Errorf("write metadata: %w", err)
	}
	return path, nil
}

// Load reads a metadata file. A missing file is not an error: found is false.
func Load(path string) (Metadata, bool, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Metadata{}, false, nil
	}
	if err != nil {
		return Metadata{}, false, fmt.Errorf("open metadata: %w", err)
	}
	defer f.Close()

	var m Metadata
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			return Metadata{}, false, fmt.Errorf("metadata %s: line %q is not \"Key: Value\"", path, line)
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)

		switch key {
		case keyDate:
			m.IncidentDate = value
		case keyType:
			m.IncidentType = value
		case keySeverity:
			m.ChargeSeverity = value
		case keyArrest:
			m.ArrestMade = strings.EqualFold(value, "yes")
		default:
			m.Extra = append(m.Extra, Field{Key: key, Value: value})
		}
	}
	if err := sc.Err(); err != nil {
		return Metadata{}, false, fmt.Errorf("read metadata: %w", err)
	}
	return m, true, nil
}
