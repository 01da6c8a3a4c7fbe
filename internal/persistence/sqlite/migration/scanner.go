package migration

import (
	"crypto/sha256"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// fileNamePattern matches {version}_{description}.sql
var fileNamePattern = regexp.MustCompile(`^(\d+)_([a-zA-Z0-9_-]+)\.sql$`)

// Scanner reads migration files from a directory of an fs.FS.
type Scanner struct {
	fsys fs.FS
	dir  string
}

// NewScanner returns a Scanner over dir inside fsys.
func NewScanner(fsys fs.FS, dir string) *Scanner {
	if dir == "" {
		dir = "."
	}
	return &Scanner{fsys: fsys, dir: dir}
}

// Scan returns every migration in the directory ordered by version.
func (s *Scanner) Scan() ([]Migration, error) {
	entries, err := fs.ReadDir(s.fsys, s.dir)
	if err != nil {
		return nil, NewMigrationError(0, s.dir, "read directory", err)
	}

	var migrations []Migration
	seen := make(map[int]string)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		migration, err := s.parse(entry.Name())
		if err != nil {
			return nil, err
		}
		if existing, dup := seen[migration.Version]; dup {
			return nil, NewMigrationError(migration.Version, entry.Name(), "check duplicates",
				fmt.Errorf("%w: also defined by %s", ErrDuplicateVersion, existing))
		}
		seen[migration.Version] = entry.Name()
		migrations = append(migrations, migration)
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

// ParseFileName splits a migration file name into its version and description.
func ParseFileName(name string) (int, string, error) {
	matches := fileNamePattern.FindStringSubmatch(name)
	if matches == nil {
		return 0, "", fmt.Errorf("%w: %q does not match {version}_{description}.sql", ErrInvalidMigrationFile, name)
	}
	version, err := strconv.Atoi(matches[1])
	if err != nil || version <= 0 {
		return 0, "", fmt.Errorf("%w: version of %q must be a positive number", ErrInvalidMigrationFile, name)
	}
	return version, strings.ReplaceAll(matches[2], "_", " "), nil
}

func (s *Scanner) parse(name string) (Migration, error) {
	version, description, err := ParseFileName(name)
	if err != nil {
		return Migration{}, NewMigrationError(0, name, "validate filename", err)
	}

	raw, err := fs.ReadFile(s.fsys, path.Join(s.dir, name))
	if err != nil {
		return Migration{}, NewMigrationError(version, name, "read file", err)
	}
	content := string(raw)
	if len(SplitStatements(content)) == 0 {
		return Migration{}, NewMigrationError(version, name, "validate content",
			fmt.Errorf("%w: no SQL statements", ErrInvalidMigrationFile))
	}

	if fromHeader := headerDescription(content); fromHeader != "" {
		description = fromHeader
	}

	return Migration{
		Version:     version,
		Name:        name,
		Description: description,
		SQL:         content,
		Checksum:    fmt.Sprintf("%x", sha256.Sum256(raw)),
	}, nil
}

// headerDescription reads a leading "-- Description: ..." comment.
func headerDescription(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "--") {
			return ""
		}
		if rest, ok := strings.CutPrefix(line, "-- Description:"); ok {
			return strings.TrimSpace(rest)
		}
	}
	return ""
}

// SplitStatements splits a script on semicolons and drops comment-only lines.
// Statements must not embed semicolons in string literals or trigger bodies.
func SplitStatements(script string) []string {
	var statements []string
	for _, chunk := range strings.Split(script, ";") {
		var lines []string
		for _, line := range strings.Split(chunk, "\n") {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || strings.HasPrefix(trimmed, "--") {
				continue
			}
			lines = append(lines, trimmed)
		}
		if len(lines) > 0 {
			statements = append(statements, strings.Join(lines, "\n"))
		}
	}
	return statements
}
