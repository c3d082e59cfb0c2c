package harvester

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/samber/lo"
)

var accountToken = regexp.MustCompile(`[^,;\s]+`)

// ParseAccounts splits a list of handles separated by commas, semicolons or
// whitespace. A leading @ is dropped and duplicates are removed.
func ParseAccounts(s string) []string {
	handles := lo.Map(accountToken.FindAllString(s, -1), func(h string, _ int) string {
		return strings.TrimPrefix(h, "@")
	})
	return lo.Uniq(lo.Compact(handles))
}

// ParseAccountsFile reads handles from a file. Lines starting with # are
// comments.
func ParseAccountsFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open accounts file: %w", err)
	}
	defer f.Close()

	var accounts []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		accounts = append(accounts, ParseAccounts(line)...)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read accounts file: %w", err)
	}
	return lo.Uniq(accounts), nil
}
