package reconcile

import (
	"fmt"
	"strconv"
	"strings"
)

// VersionRecord is one entry of the remote edit history.
type VersionRecord struct {
	// SequenceID is the globally monotonic identifier assigned by the remote source.
	SequenceID uint64

	// ItemID identifies the content item the edit belongs to.
	ItemID uint32

	// Revision is the ordinal of this edit within the item's history.
	Revision uint32

	// Payload carries the store-specific body of the record.
	// The reconcile package never inspects it.
	Payload any
}

// SequenceGap is a half-open range [Start, End) of sequence ids never observed locally.
type SequenceGap struct {
	Start uint64 `json:"start"`
	End   uint64 `json:"end"`
}

// Len returns the number of missing ids covered by the gap.
func (g SequenceGap) Len() uint64 {
	if g.End <= g.Start {
		return 0
	}
	return g.End - g.Start
}

func (g SequenceGap) String() string {
	return fmt.Sprintf("[%d, %d)", g.Start, g.End)
}

// MissingRevision is a hole in one item's revision run.
type MissingRevision struct {
	ItemID   uint32 `json:"item_id"`
	Revision uint32 `json:"revision"`
}

// String renders the pair in the report format "item_id,revision".
func (m MissingRevision) String() string {
	return strconv.FormatUint(uint64(m.ItemID), 10) + "," + strconv.FormatUint(uint64(m.Revision), 10)
}

// Analysis is the output of one SequenceAnalyzer pass.
type Analysis struct {
	// Gaps lists every globally missing sequence range, ascending.
	Gaps []SequenceGap `json:"gaps"`

	// Missing lists every missing (item, revision) pair, ordered by item then revision.
	Missing []MissingRevision `json:"missing"`

	// Summary provides aggregate counts.
	Summary AnalysisSummary `json:"summary"`
}

// AnalysisSummary provides aggregate statistics for an analysis pass.
type AnalysisSummary struct {
	// Records is the number of records scanned.
	Records int `json:"records"`

	// MissingIDs is the total number of sequence ids covered by Gaps.
	MissingIDs uint64 `json:"missing_ids"`

	// ItemsWithMissing counts items that still had pending revisions at the end of the scan.
	ItemsWithMissing int `json:"items_with_missing"`
}

// Mode selects what a reconciliation pass does.
type Mode int

const (
	// ModeCheck only reports missing revisions.
	ModeCheck Mode = iota + 1
	// ModeFillByRevision re-fetches every missing (item, revision) pair individually.
	ModeFillByRevision
	// ModeFillByRange re-fetches every gap through packed multi-id requests.
	ModeFillByRange
)

// ParseMode maps the command-line mode names onto a Mode.
// Matching is case-insensitive: "check", "post" (fill by revision) and "version" (fill by range).
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "check":
		return ModeCheck, nil
	case "post":
		return ModeFillByRevision, nil
	case "version":
		return ModeFillByRange, nil
	default:
		return 0, &UsageError{Msg: `fetch_by must be "check", "post" or "version"`}
	}
}

func (m Mode) String() string {
	switch m {
	case ModeCheck:
		return "check"
	case ModeFillByRevision:
		return "post"
	case ModeFillByRange:
		return "version"
	default:
		return "unknown"
	}
}

// Fills reports whether the mode performs remote requests.
func (m Mode) Fills() bool {
	return m == ModeFillByRevision || m == ModeFillByRange
}

// Filter describes the records one remote request asks for.
// The only implementations are IDFilter and RevisionFilter.
type Filter interface {
	// Params returns the search parameters of the request, in a stable order.
	Params() []Param
	filter()
}

// Param is a single query parameter.
type Param struct {
	Key   string
	Value string
}

// IDTerm is one element of an IDFilter: a single id when End == Start+1,
// otherwise the half-open range [Start, End).
type IDTerm struct {
	Start uint64
	End   uint64
}

// Len returns the number of ids the term covers.
func (t IDTerm) Len() uint64 {
	return t.End - t.Start
}

// Units returns the expression cost of the term.
func (t IDTerm) Units() int {
	if t.Len() == 1 {
		return 1
	}
	return 2
}

func (t IDTerm) String() string {
	if t.Len() == 1 {
		return strconv.FormatUint(t.Start, 10)
	}
	return strconv.FormatUint(t.Start, 10) + "..." + strconv.FormatUint(t.End, 10)
}

// IDFilter selects records whose sequence id is one of the listed ids or ranges.
type IDFilter struct {
	Terms []IDTerm
}

func (IDFilter) filter() {}

// Params renders the filter as a single search[id] parameter.
func (f IDFilter) Params() []Param {
	parts := make([]string, len(f.Terms))
	for i, t := range f.Terms {
		parts[i] = t.String()
	}
	return []Param{{Key: "search[id]", Value: strings.Join(parts, ",")}}
}

// RevisionFilter selects the record of one item at one revision.
type RevisionFilter struct {
	ItemID   uint32
	Revision uint32
}

func (RevisionFilter) filter() {}

// Params renders the filter as search[post_id] and search[version].
func (f RevisionFilter) Params() []Param {
	return []Param{
		{Key: "search[post_id]", Value: strconv.FormatUint(uint64(f.ItemID), 10)},
		{Key: "search[version]", Value: strconv.FormatUint(uint64(f.Revision), 10)},
	}
}

// Batch is one packed remote request.
type Batch struct {
	// Filter is the request filter.
	Filter IDFilter

	// Count is the exact number of ids the batch covers.
	Count int

	// Units is the expression cost of the batch.
	Units int
}

// PassSummary describes what a fill pass did.
type PassSummary struct {
	// Requests is the number of remote requests issued.
	Requests int `json:"requests"`

	// Fetched is the number of records returned by the remote source.
	Fetched int `json:"fetched"`

	// Commits is the number of committed window transactions.
	Commits int `json:"commits"`

	// Processed is the progress counter at the end of the pass.
	Processed uint64 `json:"processed"`

	// Expected is the progress total of the pass.
	Expected uint64 `json:"expected"`
}
