package gitx

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/skaphos/gg/internal/model"
)

// ParsePorcelainStatus parses the output of `git status --porcelain=v1`
// into one entry per path. Ignored entries are dropped.
func ParsePorcelainStatus(output string) []model.StatusEntry {
	var entries []model.StatusEntry
	lines := strings.Split(output, "\n")
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if len(line) < 4 {
			continue
		}
		x := line[0]
		y := line[1]
		if x == '!' {
			continue
		}
		path := line[3:]
		// Renames and copies report "orig -> new".
		if i := strings.Index(path, " -> "); i >= 0 && (x == 'R' || x == 'C' || y == 'R' || y == 'C') {
			path = path[i+len(" -> "):]
		}
		entries = append(entries, model.StatusEntry{
			Path:     path,
			Index:    x,
			Worktree: y,
		})
	}
	return entries
}

// ForEachRefEntry represents a single line from git for-each-ref output.
type ForEachRefEntry struct {
	Branch     string
	Upstream   string
	Track      string // e.g. "[ahead 2]", "[behind 1]", "[gone]", ""
	TrackShort string // e.g. ">", "<", "<>", "="
}

// ParseForEachRef parses the pipe-delimited output of:
//
//	git for-each-ref refs/heads --format="%(refname:short)|%(upstream:short)|%(upstream:track)|%(upstream:trackshort)"
func ParseForEachRef(output string) []ForEachRefEntry {
	if output == "" {
		return nil
	}
	var entries []ForEachRefEntry
	lines := strings.Split(strings.TrimRight(output, "\n"), "\n")
	for _, line := range lines {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "|", 4)
		entry := ForEachRefEntry{}
		if len(parts) > 0 {
			entry.Branch = parts[0]
		}
		if len(parts) > 1 {
			entry.Upstream = parts[1]
		}
		if len(parts) > 2 {
			entry.Track = parts[2]
		}
		if len(parts) > 3 {
			entry.TrackShort = parts[3]
		}
		entries = append(entries, entry)
	}
	return entries
}

// ParseRevListCount parses the output of:
//
//	git rev-list --left-right --count <branch>...<upstream>
//
// Returns (ahead, behind).
func ParseRevListCount(output string) (int, int) {
	output = strings.TrimSpace(output)
	if output == "" {
		return 0, 0
	}
	parts := strings.Fields(output)
	if len(parts) != 2 {
		return 0, 0
	}
	ahead, _ := strconv.Atoi(parts[0])
	behind, _ := strconv.Atoi(parts[1])
	return ahead, behind
}

var (
	receivingRe = regexp.MustCompile(`^(?:Receiving|Unpacking) objects:\s+\d+% \((\d+)/(\d+)\)(?:, ([\d.]+ (?:bytes|[KMGT]iB)))?`)
	deltasRe    = regexp.MustCompile(`^Resolving deltas:\s+\d+% \((\d+)/(\d+)\)(?:, completed with (\d+) local objects?)?`)
)

func isProgressLine(line string) bool {
	return strings.HasPrefix(line, "remote: ") ||
		receivingRe.MatchString(line) ||
		deltasRe.MatchString(line)
}

// ParseTransferProgress folds one git progress line into p. It reports
// whether the line carried transfer counters. Counters only move forward so
// that redraws of an older line never rewind the snapshot.
func ParseTransferProgress(line string, p *model.TransferProgress) bool {
	line = strings.TrimSpace(line)
	if m := receivingRe.FindStringSubmatch(line); m != nil {
		received, _ := strconv.Atoi(m[1])
		total, _ := strconv.Atoi(m[2])
		p.ReceivedObjects = max(p.ReceivedObjects, received)
		p.TotalObjects = max(p.TotalObjects, total)
		if m[3] != "" {
			if n, err := humanize.ParseBytes(strings.Replace(m[3], "bytes", "B", 1)); err == nil {
				p.ReceivedBytes = max(p.ReceivedBytes, n)
			}
		}
		if p.Indexing() {
			p.IndexedObjects = p.TotalObjects
		}
		return true
	}
	if m := deltasRe.FindStringSubmatch(line); m != nil {
		indexed, _ := strconv.Atoi(m[1])
		total, _ := strconv.Atoi(m[2])
		p.IndexedDeltas = max(p.IndexedDeltas, indexed)
		p.TotalDeltas = max(p.TotalDeltas, total)
		if m[3] != "" {
			local, _ := strconv.Atoi(m[3])
			p.LocalObjects = max(p.LocalObjects, local)
		}
		return true
	}
	return false
}
