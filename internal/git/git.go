// Package git reads staged changes from the working tree through the git CLI.
package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/adamking/ai-changelog/internal/clierr"
)

// ChangelogPath is never part of the collected diff.
const ChangelogPath = "CHANGELOG.md"

// Collector runs read-only git queries in WorkingDir (the process cwd when empty).
type Collector struct {
	WorkingDir string
	// Exclude lists repository-relative paths left out of the diff.
	// Defaults to ChangelogPath when nil.
	Exclude []string
	Logger  *zap.Logger
}

// NewCollector returns a collector for dir that excludes the changelog.
func NewCollector(dir string, logger *zap.Logger) *Collector {
	return &Collector{WorkingDir: dir, Exclude: []string{ChangelogPath}, Logger: logger}
}

// CheckInstalled verifies the git binary is on PATH.
func CheckInstalled() error {
	if _, err := exec.LookPath("git"); err != nil {
		return clierr.Environment(err, "git is not installed or not in $PATH",
			"install git and make sure it is on your $PATH")
	}
	return nil
}

// Root returns the top-level directory of the enclosing work tree.
func (c *Collector) Root(ctx context.Context) (string, error) {
	if err := CheckInstalled(); err != nil {
		return "", err
	}
	inside, err := c.run(ctx, c.WorkingDir, "rev-parse", "--is-inside-work-tree")
	if err != nil || strings.TrimSpace(inside) != "true" {
		return "", clierr.Environment(err, "not a git repository (or any of the parent directories)",
			"run ai-changelog from inside a git working tree")
	}
	root, err := c.run(ctx, c.WorkingDir, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", clierr.Environment(err, "cannot determine repository root")
	}
	return strings.TrimSpace(root), nil
}

// StagedDiff returns the cached diff of the whole tree minus the excluded
// paths. An empty staging area is an input error.
func (c *Collector) StagedDiff(ctx context.Context) (string, error) {
	root, err := c.Root(ctx)
	if err != nil {
		return "", err
	}

	args := append([]string{"diff", "--cached", "--", "."}, c.excludeSpecs()...)
	diff, err := c.run(ctx, root, args...)
	if err != nil {
		return "", clierr.Environment(err, "git diff --cached failed")
	}

	if strings.TrimSpace(diff) == "" {
		return "", clierr.Input(nil, "nothing staged",
			"stage the changes to describe with git add")
	}

	c.logger().Debug("collected staged diff",
		zap.String("root", root),
		zap.Int("bytes", len(diff)),
		zap.Strings("excluded", c.excludes()))
	return diff, nil
}

// StagedFiles lists staged paths, excluded paths omitted.
func (c *Collector) StagedFiles(ctx context.Context) ([]string, error) {
	root, err := c.Root(ctx)
	if err != nil {
		return nil, err
	}
	args := append([]string{"diff", "--cached", "--name-only", "--", "."}, c.excludeSpecs()...)
	out, err := c.run(ctx, root, args...)
	if err != nil {
		return nil, clierr.Environment(err, "git diff --cached --name-only failed")
	}
	var files []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			files = append(files, line)
		}
	}
	return files, nil
}

func (c *Collector) excludes() []string {
	if c.Exclude == nil {
		return []string{ChangelogPath}
	}
	return c.Exclude
}

func (c *Collector) excludeSpecs() []string {
	specs := make([]string, 0, len(c.excludes()))
	for _, p := range c.excludes() {
		specs = append(specs, ":(exclude)"+p)
	}
	return specs
}

func (c *Collector) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

func (c *Collector) run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	if dir != "" {
		cmd.Dir = dir
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return "", err
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("git %s: %s", args[0], msg)
		}
		return "", fmt.Errorf("git %s: %w: %s", args[0], err, msg)
	}
	return stdout.String(), nil
}
