package opf

import (
	"errors"
	"fmt"
	"os"
)

// ErrNotFound is returned by a Fetcher when the locator does not
// resolve to a resource.
var ErrNotFound = errors.New("resource not found")

// Fetcher retrieves the raw bytes behind a locator. The engine itself
// never fetches; callers fetch and parse before validation.
type Fetcher interface {
	Fetch(locator string) ([]byte, error)
}

// FileFetcher resolves locators as filesystem paths.
type FileFetcher struct{}

func (FileFetcher) Fetch(locator string) ([]byte, error) {
	data, err := os.ReadFile(locator)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", locator, ErrNotFound)
		}
		return nil, fmt.Errorf("reading %s: %w", locator, err)
	}
	return data, nil
}
