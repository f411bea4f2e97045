// Package envfile edits the KEY=value configuration files shipped with the
// sub-applications. Edits are line-oriented: the targeted line is
// replaced and every other byte of the file is left untouched.
package envfile

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
)

// ErrMissingConfigFile is returned when the file to patch does not exist.
var ErrMissingConfigFile = errors.New("configuration file not found")

// PatchKey sets key to value in the file at path. Every line assigning key
// is rewritten to `key=value`; when no such line exists one is appended.
// Unlike a plain `sed -i s/^KEY=.*/.../` a file without the key is not
// left unchanged.
// The file mode and all other lines, including comments, blank lines and
// the trailing newline, are preserved.
func PatchKey(path, key, value string) error {
	if key == "" {
		return fmt.Errorf("key must not be empty")
	}
	if strings.ContainsAny(value, "\r\n") {
		return fmt.Errorf("value for %s must be a single line", key)
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrMissingConfigFile, path)
		}
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	patched := Patch(string(data), key, value)
	if patched == string(data) {
		return nil
	}

	if err := os.WriteFile(path, []byte(patched), info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Patch applies the PatchKey rewrite to content.
func Patch(content, key, value string) string {
	line := regexp.MustCompile(`(?m)^[ \t]*(?:export[ \t]+)?` + regexp.QuoteMeta(key) + `[ \t]*=.*?(\r?)$`)
	replacement := key + "=" + value

	if line.MatchString(content) {
		return line.ReplaceAllStringFunc(content, func(match string) string {
			if strings.HasSuffix(match, "\r") {
				return replacement + "\r"
			}
			return replacement
		})
	}

	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return content + replacement + "\n"
}

// Read parses the file into a map.
func Read(path string) (map[string]string, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingConfigFile, path)
		}
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return values, nil
}

// Lookup returns the value of key in the file at path.
func Lookup(path, key string) (string, bool, error) {
	values, err := Read(path)
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}
