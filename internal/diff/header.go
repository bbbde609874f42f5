package diff

import "strings"

// HeaderInfo summarises the file header lines of a snapshot.
type HeaderInfo struct {
	OldPath   string // empty for a new file
	NewPath   string // empty for a deleted file
	NewFile   bool
	Deleted   bool
	FileMode  string // mode from "new file mode"/"deleted file mode"
	ModeLines []string
}

// Info inspects the snapshot header.
func (s *Snapshot) Info() HeaderInfo {
	var info HeaderInfo
	if s == nil {
		return info
	}
	for _, line := range s.Header {
		switch {
		case strings.HasPrefix(line, "diff --git "):
			tokens := diffLineTokens(strings.TrimSpace(line[len("diff --git "):]))
			if len(tokens) >= 2 {
				info.OldPath = strings.TrimPrefix(tokens[0], "a/")
				info.NewPath = strings.TrimPrefix(tokens[1], "b/")
			}
		case strings.HasPrefix(line, "new file mode "):
			info.NewFile = true
			info.FileMode = strings.TrimPrefix(line, "new file mode ")
		case strings.HasPrefix(line, "deleted file mode "):
			info.Deleted = true
			info.FileMode = strings.TrimPrefix(line, "deleted file mode ")
		case strings.HasPrefix(line, "old mode "), strings.HasPrefix(line, "new mode "):
			info.ModeLines = append(info.ModeLines, line)
		case line == "--- /dev/null":
			info.NewFile = true
		case line == "+++ /dev/null":
			info.Deleted = true
		case strings.HasPrefix(line, "--- "):
			info.OldPath = headerPath(line[len("--- "):], "a/")
		case strings.HasPrefix(line, "+++ "):
			info.NewPath = headerPath(line[len("+++ "):], "b/")
		}
	}
	if info.NewFile {
		info.OldPath = ""
	}
	if info.Deleted {
		info.NewPath = ""
	}
	if info.OldPath == "" && info.NewPath == "" {
		info.OldPath, info.NewPath = s.Path, s.Path
		if info.NewFile {
			info.OldPath = ""
		}
		if info.Deleted {
			info.NewPath = ""
		}
	}
	return info
}

func pathFromHeader(header []string) string {
	s := Snapshot{Header: header}
	info := s.Info()
	if info.NewPath != "" {
		return info.NewPath
	}
	return info.OldPath
}

// headerPath reads the path of a "---" or "+++" line, dropping only the
// prefix of its own side.
func headerPath(raw, prefix string) string {
	// Drop the tab-separated timestamp some diff tools append.
	if i := strings.IndexByte(raw, '\t'); i >= 0 {
		raw = raw[:i]
	}
	tokens := diffLineTokens(strings.TrimSpace(raw))
	if len(tokens) == 0 {
		return ""
	}
	return strings.TrimPrefix(tokens[0], prefix)
}

func diffLineTokens(s string) []string {
	var tokens []string
	for {
		s = strings.TrimLeft(s, " \t")
		if s == "" {
			break
		}
		if s[0] == '"' {
			var buf strings.Builder
			escaped := false
			i := 1
			for i < len(s) {
				ch := s[i]
				if escaped {
					buf.WriteByte(ch)
					escaped = false
					i++
					continue
				}
				if ch == '\\' {
					escaped = true
					i++
					continue
				}
				if ch == '"' {
					i++
					break
				}
				buf.WriteByte(ch)
				i++
			}
			tokens = append(tokens, buf.String())
			s = s[i:]
			continue
		}
		j := 0
		for j < len(s) && s[j] != ' ' && s[j] != '\t' {
			j++
		}
		tokens = append(tokens, s[:j])
		s = s[j:]
	}
	return tokens
}
