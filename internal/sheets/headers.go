package sheets

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// concept identifies one logical column of the shift-change sheet
type concept int

const (
	conceptDate concept = iota
	conceptBuilding
	conceptSector
	conceptOutgoing
	conceptIncoming
	conceptNotes
	conceptCount
)

// headerCandidates lists the accepted header spellings per concept, in
// priority order. The ward staff renames sheet columns freely ("Sai",
// "Sai (Motivo)", "Observações", "obs"), so matching is by folded substring
// against the first candidate that hits
var headerCandidates = [conceptCount][]string{
	conceptDate:     {"data"},
	conceptBuilding: {"predio", "unidade"},
	conceptSector:   {"setor"},
	conceptOutgoing: {"sai"},
	conceptIncoming: {"entra"},
	conceptNotes:    {"observacoes", "obs"},
}

// absentColumn marks a concept with no matching header. Cells for that
// concept resolve to "" rather than failing the fetch
const absentColumn = -1

var headerFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldHeader lowercases a header cell and strips combining marks so that
// "Prédio" and "predio" compare equal
func foldHeader(s string) string {
	folded, _, err := transform.String(headerFolder, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

// resolveColumns maps every concept to a column index in the header row.
// Resolution is deterministic: candidates are tried in priority order and
// the first header containing the candidate wins
func resolveColumns(header []string) [conceptCount]int {
	folded := make([]string, len(header))
	for i, h := range header {
		folded[i] = foldHeader(h)
	}

	var indices [conceptCount]int
	for c := concept(0); c < conceptCount; c++ {
		indices[c] = absentColumn
	candidates:
		for _, candidate := range headerCandidates[c] {
			for i, h := range folded {
				if h != "" && strings.Contains(h, candidate) {
					indices[c] = i
					break candidates
				}
			}
		}
	}
	return indices
}

// cellAt retrieves row[idx] safely: ragged rows and absent columns both
// resolve to the empty string
func cellAt(row []string, idx int) string {
	if idx == absentColumn || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
