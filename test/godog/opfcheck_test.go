package godog_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cucumber/godog"

	"github.com/epubtools/opfcheck/pkg/report"
	"github.com/epubtools/opfcheck/pkg/validate"
)

// testdataRoot returns the absolute path to the testdata directory.
func testdataRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return filepath.Join(dir, "testdata")
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find repo root (no go.mod)")
		}
		dir = parent
	}
}

func TestFeatures(t *testing.T) {
	root := testdataRoot(t)
	featuresDir := filepath.Join(root, "features")
	fixturesDir := filepath.Join(root, "fixtures")

	suite := godog.TestSuite{
		ScenarioInitializer: func(ctx *godog.ScenarioContext) {
			initializeScenario(ctx, fixturesDir)
		},
		Options: &godog.Options{
			Format:        "pretty",
			Paths:         []string{featuresDir},
			TestingT:      t,
			StopOnFailure: false,
			Strict:        true,
		},
	}

	suite.Run()
}

// scenarioState holds per-scenario state for step definitions.
type scenarioState struct {
	fixturesDir string
	result      *report.Report

	// assertedIndices tracks which message indices have been explicitly
	// asserted. Used by the "no other errors or warnings" step.
	assertedIndices map[int]bool

	epubVersion validate.Version
	profile     validate.Profile
}

func (s *scenarioState) markAsserted(idx int) {
	if s.assertedIndices == nil {
		s.assertedIndices = make(map[int]bool)
	}
	s.assertedIndices[idx] = true
}

func formatMessages(msgs []report.Message) string {
	if len(msgs) == 0 {
		return "  (none)"
	}
	var b strings.Builder
	for _, m := range msgs {
		fmt.Fprintf(&b, "  %s\n", m.String())
	}
	return b.String()
}

func initializeScenario(ctx *godog.ScenarioContext, fixturesDir string) {
	s := &scenarioState{
		fixturesDir: fixturesDir,
		epubVersion: validate.Version3,
	}

	ctx.Step(`^the validator configured with default settings$`, func() error {
		s.epubVersion = validate.Version3
		s.profile = validate.ProfileDefault
		return nil
	})
	ctx.Step(`^the validator configured to check EPUB 2 rules$`, func() error {
		s.epubVersion = validate.Version2
		return nil
	})
	ctx.Step(`^the validator configured to check EPUB 3 rules$`, func() error {
		s.epubVersion = validate.Version3
		return nil
	})
	ctx.Step(`^the validator configured with the '([^']*)' profile$`, func(profile string) error {
		s.profile = validate.Profile(profile)
		return nil
	})

	ctx.Step(`^checking package document '([^']*)'$`, func(name string) error {
		s.result = nil
		s.assertedIndices = nil

		data, err := os.ReadFile(filepath.Join(fixturesDir, name))
		if err != nil {
			return fmt.Errorf("reading fixture: %w", err)
		}
		s.result = validate.ValidateSource(data, validate.Options{
			Version: s.epubVersion,
			Profile: s.profile,
		})
		return nil
	})

	ctx.Step(`^no errors or warnings are reported$`, func() error {
		if s.result == nil {
			return fmt.Errorf("no validation result available")
		}
		var issues []string
		for _, m := range s.result.Messages {
			if m.Severity.AtLeast(report.Warning) {
				issues = append(issues, m.String())
			}
		}
		if len(issues) > 0 {
			return fmt.Errorf("expected no errors or warnings, but got:\n  %s", strings.Join(issues, "\n  "))
		}
		return nil
	})

	ctx.Step(`^no other errors or warnings are reported$`, func() error {
		if s.result == nil {
			return fmt.Errorf("no validation result available")
		}
		var unexpected []string
		for i, m := range s.result.Messages {
			if s.assertedIndices[i] {
				continue
			}
			if m.Severity.AtLeast(report.Warning) {
				unexpected = append(unexpected, m.String())
			}
		}
		if len(unexpected) > 0 {
			return fmt.Errorf("unexpected errors/warnings:\n  %s", strings.Join(unexpected, "\n  "))
		}
		return nil
	})

	ctx.Step(`^no diagnostics are reported$`, func() error {
		if s.result == nil {
			return fmt.Errorf("no validation result available")
		}
		if len(s.result.Messages) > 0 {
			return fmt.Errorf("expected an empty report, but got:\n%s", formatMessages(s.result.Messages))
		}
		return nil
	})

	assertCount := func(sev report.Severity) func(string, int) error {
		return func(code string, n int) error {
			if s.result == nil {
				return fmt.Errorf("no validation result available")
			}
			count := 0
			for i, m := range s.result.Messages {
				if m.Severity == sev && m.CheckID == code {
					count++
					s.markAsserted(i)
				}
			}
			if count != n {
				return fmt.Errorf("expected %s %s reported %d times, got %d.\nGot messages:\n%s",
					sev, code, n, count, formatMessages(s.result.Messages))
			}
			return nil
		}
	}
	assertOnce := func(sev report.Severity) func(string) error {
		counted := assertCount(sev)
		return func(code string) error { return counted(code, 1) }
	}

	ctx.Step(`^error ([A-Z]+-\d+\w*) is reported (\d+) times?$`, assertCount(report.Error))
	ctx.Step(`^error ([A-Z]+-\d+\w*) is reported$`, assertOnce(report.Error))
	ctx.Step(`^fatal error ([A-Z]+-\d+\w*) is reported$`, assertOnce(report.Fatal))
	ctx.Step(`^warning ([A-Z]+-\d+\w*) is reported (\d+) times?$`, assertCount(report.Warning))
	ctx.Step(`^warning ([A-Z]+-\d+\w*) is reported$`, assertOnce(report.Warning))
	ctx.Step(`^usage ([A-Z]+-\d+\w*) is reported (\d+) times?$`, assertCount(report.Usage))
	ctx.Step(`^usage ([A-Z]+-\d+\w*) is reported$`, assertOnce(report.Usage))
}
