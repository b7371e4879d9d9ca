package matcher

import (
	"strings"

	"github.com/dlclark/regexp2"
	"go.uber.org/zap"

	"github.com/truconsent/truscanner/pkg/fpfilter"
	"github.com/truconsent/truscanner/pkg/prefilter"
	"github.com/truconsent/truscanner/pkg/types"
)

// Config for matcher initialization.
type Config struct {
	// Catalog of elements to match. Read-only, may be shared.
	Catalog *types.Catalog

	// Filter discards false positives. Defaults to fpfilter.New().
	Filter *fpfilter.Filter

	// Logger for pattern failures and suppression decisions. Defaults to a no-op logger.
	Logger *zap.Logger
}

// Matcher applies catalog elements to text and returns line findings.
// All per-call state is local to Match, so one Matcher can serve
// concurrent scans.
type Matcher struct {
	catalog   *types.Catalog
	prefilter *prefilter.Prefilter
	filter    *fpfilter.Filter
	logger    *zap.Logger
}

// New creates a matcher over cfg.Catalog.
func New(cfg Config) *Matcher {
	m := &Matcher{
		catalog: cfg.Catalog,
		filter:  cfg.Filter,
		logger:  cfg.Logger,
	}
	if m.catalog == nil {
		m.catalog = &types.Catalog{}
	}
	if m.filter == nil {
		m.filter = fpfilter.New()
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	m.prefilter = prefilter.New(m.catalog.Elements)
	m.logger.Debug("matcher ready",
		zap.Int("elements", m.catalog.Len()),
		zap.Int("keywords", len(m.prefilter.Keywords())))
	return m
}

// Catalog returns the catalog the matcher was built from.
func (m *Matcher) Catalog() *types.Catalog {
	return m.catalog
}

// Match scans text and returns findings in element order, then pattern
// order, then position. context is copied into every finding.
func (m *Matcher) Match(text, context string) []types.Finding {
	return m.MatchWithStats(text, context).Findings
}

// MatchWithStats scans text like Match and also reports per-pattern
// execution statistics.
func (m *Matcher) MatchWithStats(text, context string) *Result {
	res := &Result{
		Summary: Summary{
			Elements:   m.catalog.Len(),
			Suppressed: make(map[string]int),
		},
	}
	if text == "" {
		res.Summary.ElementsSkipped = res.Summary.Elements
		return res
	}

	selected := m.prefilter.Filter(text)
	res.Summary.ElementsSkipped = res.Summary.Elements - len(selected)

	index := types.NewLineIndex(text)
	dedup := NewLineDeduplicator()

	for _, sel := range selected {
		for _, p := range sel.Patterns {
			stat := m.runPattern(text, context, sel.Element, p, index, dedup, res)
			res.Stats = append(res.Stats, stat)
			res.Summary.PatternsRun++
			switch stat.Status {
			case PatternTimedOut:
				res.Summary.TimedOut++
			case PatternError:
				res.Summary.Errors++
			}
		}
	}
	return res
}

// runPattern walks every non-overlapping match of p and appends the
// survivors to res.Findings.
func (m *Matcher) runPattern(text, context string, e *types.PatternElement, p *types.Pattern,
	index *types.LineIndex, dedup *LineDeduplicator, res *Result) PatternStat {
	stat := PatternStat{Element: e.Name, Pattern: p.Source}

	match, err := p.Regexp.FindStringMatch(text)
	for err == nil && match != nil {
		stat.Matches++
		m.consider(match, context, e, index, dedup, res)
		match, err = p.Regexp.FindNextMatch(match)
	}
	if err != nil {
		stat.Error = err
		stat.Status = PatternError
		if strings.Contains(err.Error(), "match timeout") {
			stat.Status = PatternTimedOut
		}
		m.logger.Warn("pattern failed, skipping it for this text",
			zap.String("element", e.Name),
			zap.String("pattern", p.Source),
			zap.String("context", context),
			zap.Error(err))
	}
	return stat
}

// consider turns one raw match into a finding unless its line is already
// claimed for the element or the false-positive filter discards it.
// The first match on a line claims it for the element even when the filter
// then discards it, so a later match cannot report from a suppressed line.
func (m *Matcher) consider(match *regexp2.Match, context string, e *types.PatternElement,
	index *types.LineIndex, dedup *LineDeduplicator, res *Result) {
	line := index.Line(match.Index)
	if dedup.IsClaimed(e, line) {
		res.Summary.Duplicates++
		return
	}
	dedup.Claim(e, line)

	raw := index.Content(line)
	cand := fpfilter.NewCandidate(raw, index.Column(match.Index), match.String())
	if name, fired := m.filter.Check(cand); fired {
		res.Summary.Suppressed[name]++
		m.logger.Debug("match suppressed",
			zap.String("element", e.Name),
			zap.String("heuristic", name),
			zap.String("context", context),
			zap.Int("line", line))
		return
	}

	res.Findings = append(res.Findings, types.NewFinding(e, line, cand.Trimmed, cand.Matched, context))
}
