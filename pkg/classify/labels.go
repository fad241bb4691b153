package classify

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// synsetPrefix matches ImageNet WordNet IDs such as "n07753592 ".
var synsetPrefix = regexp.MustCompile(`^n\d{8}\s+`)

// LoadLabels reads one label per line from path.
func LoadLabels(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open labels: %w", err)
	}
	defer f.Close()

	return ParseLabels(f)
}

// ParseLabels reads one label per line. ImageNet synset lines like
// "n07753592 banana" or "n03063599 coffee mug, cup" are reduced to the
// first human-readable name. Blank lines are skipped.
func ParseLabels(r io.Reader) ([]string, error) {
	var labels []string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		line = synsetPrefix.ReplaceAllString(line, "")
		if i := strings.Index(line, ","); i >= 0 {
			line = line[:i]
		}
		labels = append(labels, strings.TrimSpace(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read labels: %w", err)
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("read labels: no labels found")
	}
	return labels, nil
}
