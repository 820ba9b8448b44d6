package config

import (
	"fmt"
	"os"
	"text/template"

	"github.com/matheuscscp/cms-git-backend/internal/constants"
)

type GitConfig struct {
	RootPath      string `yaml:"rootPath" json:"rootPath" env:"CMS_GIT_ROOT_PATH"`
	Branch        string `yaml:"branch" json:"branch" env:"CMS_GIT_BRANCH"`
	CommitMessage string `yaml:"commitMessage" json:"commitMessage" env:"CMS_GIT_COMMIT_MESSAGE"`
	AuthorName    string `yaml:"authorName" json:"authorName" env:"CMS_GIT_AUTHOR_NAME"`
	AuthorEmail   string `yaml:"authorEmail" json:"authorEmail" env:"CMS_GIT_AUTHOR_EMAIL"`
}

// branchEnvVars are checked in order when no branch is configured. They are
// the variables hosting providers expose for the deployed ref.
var branchEnvVars = []string{"GITHUB_BRANCH", "VERCEL_GIT_COMMIT_REF", "HEAD"}

func DefaultBranch() string {
	for _, name := range branchEnvVars {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return constants.DefaultBranch
}

func (g *GitConfig) applyDefaults() {
	if g.RootPath == "" {
		if wd, err := os.Getwd(); err == nil {
			g.RootPath = wd
		}
	}
	if g.Branch == "" {
		g.Branch = DefaultBranch()
	}
	if g.CommitMessage == "" {
		g.CommitMessage = constants.DefaultCommitMessage
	}
}

func (g *GitConfig) validate() error {
	if g.RootPath == "" {
		return fmt.Errorf("git.rootPath must be set")
	}
	if _, err := template.New("commitMessage").Parse(g.CommitMessage); err != nil {
		return fmt.Errorf("failed to parse git.commitMessage template: %w", err)
	}
	return nil
}
