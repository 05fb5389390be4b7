package ftp

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// EntryKind classifies a RemoteFileEntry.
type EntryKind int

const (
	EntryFile EntryKind = iota
	EntryDir
	EntryLink
)

// RemoteFileEntry is one row of a parsed directory listing.
type RemoteFileEntry struct {
	Name       string
	Size       uint64
	Modified   time.Time
	HasModTime bool
	Kind       EntryKind
	LinkTarget string
}

// ListParser recognizes one directory-listing dialect. Parse must fail with
// a non-nil error (conventionally *ListParseError) when it doesn't
// recognize the input, so the registry can fall through to the next
// candidate.
type ListParser interface {
	Parse(lines []string) ([]RemoteFileEntry, error)
}

// unixListParser parses the traditional "ls -l" style listing used by the
// great majority of Unix FTP daemons.
type unixListParser struct{}

var unixListRe = regexp.MustCompile(
	`^([\-dlbcps])([\-rwxXsStT]{9})\s+\d+\s+\S+\s+\S+\s+(\d+)\s+(\w+\s+\d+\s+[\d:]+)\s+(.+)$`)

func (unixListParser) Parse(lines []string) ([]RemoteFileEntry, error) {
	var entries []RemoteFileEntry
	for _, line := range lines {
		if line == "" || strings.HasPrefix(line, "total ") {
			continue
		}
		m := unixListRe.FindStringSubmatch(line)
		if m == nil {
			return nil, &ListParseError{Lines: lines}
		}
		size, err := strconv.ParseUint(m[3], 10, 64)
		if err != nil {
			return nil, &ListParseError{Lines: lines}
		}
		entry := RemoteFileEntry{Size: size, Name: m[5]}
		switch m[1] {
		case "d":
			entry.Kind = EntryDir
		case "l":
			entry.Kind = EntryLink
			if idx := strings.Index(entry.Name, " -> "); idx >= 0 {
				entry.LinkTarget = entry.Name[idx+4:]
				entry.Name = entry.Name[:idx]
			}
		default:
			entry.Kind = EntryFile
		}
		entries = append(entries, entry)
	}
	if entries == nil {
		return nil, &ListParseError{Lines: lines}
	}
	return entries, nil
}

// dosListParser parses the IIS/DOS-style listing:
// "10-23-23  01:23PM       <DIR>          sub" or "... 1234 file.txt".
type dosListParser struct{}

var dosListRe = regexp.MustCompile(
	`^(\d{2}-\d{2}-\d{2,4})\s+(\d{2}:\d{2}(?:AM|PM))\s+(<DIR>|\d+)\s+(.+)$`)

func (dosListParser) Parse(lines []string) ([]RemoteFileEntry, error) {
	var entries []RemoteFileEntry
	for _, line := range lines {
		if line == "" {
			continue
		}
		m := dosListRe.FindStringSubmatch(line)
		if m == nil {
			return nil, &ListParseError{Lines: lines}
		}
		entry := RemoteFileEntry{Name: m[4]}
		if m[3] == "<DIR>" {
			entry.Kind = EntryDir
		} else {
			size, err := strconv.ParseUint(m[3], 10, 64)
			if err != nil {
				return nil, &ListParseError{Lines: lines}
			}
			entry.Size = size
			entry.Kind = EntryFile
		}
		entries = append(entries, entry)
	}
	if entries == nil {
		return nil, &ListParseError{Lines: lines}
	}
	return entries, nil
}

// eplfListParser parses the Easily Parsed List Format: a plus sign, a
// comma-separated set of facts, a tab, then the name.
// e.g. "+i8388621.48594,m825718503,r,s280,\tfile.txt"
type eplfListParser struct{}

func (eplfListParser) Parse(lines []string) ([]RemoteFileEntry, error) {
	var entries []RemoteFileEntry
	for _, line := range lines {
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "+") {
			return nil, &ListParseError{Lines: lines}
		}
		tab := strings.IndexByte(line, '\t')
		if tab < 0 {
			return nil, &ListParseError{Lines: lines}
		}
		facts := strings.Split(line[1:tab], ",")
		name := line[tab+1:]
		entry := RemoteFileEntry{Name: name, Kind: EntryFile}
		for _, f := range facts {
			if f == "" {
				continue
			}
			switch f[0] {
			case '/':
				entry.Kind = EntryDir
			case 's':
				if size, err := strconv.ParseUint(f[1:], 10, 64); err == nil {
					entry.Size = size
				}
			case 'm':
				if secs, err := strconv.ParseInt(f[1:], 10, 64); err == nil {
					entry.Modified = time.Unix(secs, 0).UTC()
					entry.HasModTime = true
				}
			}
		}
		entries = append(entries, entry)
	}
	if entries == nil {
		return nil, &ListParseError{Lines: lines}
	}
	return entries, nil
}

// netwareListParser parses Novell NetWare FTP server listings:
// "d [R----F--] supervisor            512 Jan 16 18:53 login"
type netwareListParser struct{}

var netwareListRe = regexp.MustCompile(
	`^([d\-])\s+\[([^\]]+)\]\s+\S+\s+(\d+)\s+(\w+\s+\d+\s+[\d:]+)\s+(.+)$`)

func (netwareListParser) Parse(lines []string) ([]RemoteFileEntry, error) {
	var entries []RemoteFileEntry
	for _, line := range lines {
		if line == "" {
			continue
		}
		m := netwareListRe.FindStringSubmatch(line)
		if m == nil {
			return nil, &ListParseError{Lines: lines}
		}
		size, err := strconv.ParseUint(m[3], 10, 64)
		if err != nil {
			return nil, &ListParseError{Lines: lines}
		}
		entry := RemoteFileEntry{Name: m[5], Size: size}
		if m[1] == "d" {
			entry.Kind = EntryDir
		} else {
			entry.Kind = EntryFile
		}
		entries = append(entries, entry)
	}
	if entries == nil {
		return nil, &ListParseError{Lines: lines}
	}
	return entries, nil
}

// defaultListParsers is the registration order used by Dial/DialHostPort:
// Unix first (the overwhelming majority of servers), then DOS, EPLF, and
// NetWare.
func defaultListParsers() []ListParser {
	return []ListParser{
		unixListParser{},
		dosListParser{},
		eplfListParser{},
		netwareListParser{},
	}
}

// parserRegistry implements the cache-first-success behavior of 4.7: once a
// parser has succeeded on this connection, later listings try only that
// parser, never re-probing the others.
type parserRegistry struct {
	parsers []ListParser
	cached  ListParser
}

func newParserRegistry(parsers []ListParser) *parserRegistry {
	return &parserRegistry{parsers: parsers}
}

func (r *parserRegistry) reset() {
	r.cached = nil
}

func (r *parserRegistry) parse(lines []string) ([]RemoteFileEntry, error) {
	if r.cached != nil {
		return r.cached.Parse(lines)
	}
	for _, p := range r.parsers {
		entries, err := p.Parse(lines)
		if err == nil {
			r.cached = p
			return entries, nil
		}
	}
	return nil, &ListParseError{Lines: lines}
}
