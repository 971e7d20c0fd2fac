package matcher

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"imagededup/types"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// Listing formats
const (
	FormatTSV  = "tsv"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ValidFormats defines the allowed listing formats.
var ValidFormats = []string{FormatTSV, FormatJSON, FormatYAML}

// IsValidFormat checks if the format is one of the allowed values.
func IsValidFormat(format string) bool {
	return lo.Contains(ValidFormats, format)
}

// WritePairs prints pairs in the requested format. The tsv format writes one
// "a<TAB>b<TAB>distance" line per pair.
func WritePairs(w io.Writer, pairs []types.Pair, format string) error {
	if pairs == nil {
		pairs = []types.Pair{}
	}

	switch format {
	case FormatTSV, "":
		for _, pair := range pairs {
			if _, err := fmt.Fprintf(w, "%s\t%s\t%s\n", pair.A, pair.B, FormatDistance(pair.Distance)); err != nil {
				return err
			}
		}
		return nil
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(pairs)
	case FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(pairs); err != nil {
			return err
		}
		return encoder.Close()
	default:
		return fmt.Errorf("invalid format %q: must be one of %v", format, ValidFormats)
	}
}

// FormatDistance renders a distance with the shortest exact representation
func FormatDistance(distance float64) string {
	return strconv.FormatFloat(distance, 'f', -1, 64)
}
