package gitprovider

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"text/template"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/matheuscscp/cms-git-backend/internal/auth"
	"github.com/matheuscscp/cms-git-backend/internal/constants"
	"github.com/matheuscscp/cms-git-backend/internal/logging"
)

const (
	OperationPut    = "put"
	OperationDelete = "delete"

	defaultAuthorName  = constants.CMSGitBackend
	defaultAuthorEmail = constants.CMSGitBackend + "@localhost"
)

var ErrInvalidKey = errors.New("invalid content key")

type Options struct {
	RootPath      string
	Branch        string
	CommitMessage string
	AuthorName    string
	AuthorEmail   string
}

// MessageData is the data available to the commit message template.
type MessageData struct {
	Key       string
	Operation string
	Editor    *auth.Editor
}

// Provider keeps a git working tree in sync with content edits. Each put or
// delete commits exactly the path it touched, and only when git reports a
// staged change for it. Mutations of the same repository are serialized.
type Provider struct {
	root        string
	branch      string
	message     *template.Template
	authorName  string
	authorEmail string
	lock        *sync.Mutex
	commits     *prometheus.CounterVec
}

func New(opts Options, promRegisterer prometheus.Registerer) (*Provider, error) {
	root, err := filepath.Abs(opts.RootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root path '%s': %w", opts.RootPath, err)
	}

	branch := opts.Branch
	if branch == "" {
		branch = constants.DefaultBranch
	}
	msg := opts.CommitMessage
	if msg == "" {
		msg = constants.DefaultCommitMessage
	}
	tmpl, err := template.New("commitMessage").Option("missingkey=zero").Parse(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse commit message template: %w", err)
	}

	authorName, authorEmail := opts.AuthorName, opts.AuthorEmail
	if authorName == "" {
		authorName = defaultAuthorName
	}
	if authorEmail == "" {
		authorEmail = defaultAuthorEmail
	}

	commits, err := registerCommitCounter(promRegisterer)
	if err != nil {
		return nil, err
	}

	return &Provider{
		root:        root,
		branch:      branch,
		message:     tmpl,
		authorName:  authorName,
		authorEmail: authorEmail,
		lock:        repoLock(root),
		commits:     commits,
	}, nil
}

func registerCommitCounter(promRegisterer prometheus.Registerer) (*prometheus.CounterVec, error) {
	commits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cms_git_commits_total",
		Help: "Total commits produced by content edits",
	}, []string{"operation"})
	if err := promRegisterer.Register(commits); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, fmt.Errorf("failed to register commit counter: %w", err)
		}
		existing, ok := are.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil, fmt.Errorf("failed to register commit counter: %w", err)
		}
		commits = existing
	}
	return commits, nil
}

// OnPut writes value to the file at key and commits it.
func (p *Provider) OnPut(ctx context.Context, key, value string) error {
	rel, err := cleanKey(key)
	if err != nil {
		return err
	}

	p.lock.Lock()
	defer p.lock.Unlock()

	if err := p.checkout(ctx); err != nil {
		return err
	}

	if err := p.checkWithinRoot(rel); err != nil {
		return err
	}
	abs := filepath.Join(p.root, rel)
	if fi, err := os.Lstat(abs); err == nil && fi.Mode()&fs.ModeSymlink != 0 {
		return fmt.Errorf("%w: '%s' is a symbolic link", ErrInvalidKey, key)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("failed to create parent directories of '%s': %w", rel, err)
	}
	if err := os.WriteFile(abs, []byte(value), 0o644); err != nil {
		return fmt.Errorf("failed to write '%s': %w", rel, err)
	}

	if _, err := p.git(ctx, nil, "add", "--", rel); err != nil {
		return err
	}
	return p.commitIfStaged(ctx, rel, OperationPut)
}

// OnDelete removes the file at key, if present, and commits the removal.
func (p *Provider) OnDelete(ctx context.Context, key string) error {
	rel, err := cleanKey(key)
	if err != nil {
		return err
	}

	p.lock.Lock()
	defer p.lock.Unlock()

	if err := p.checkout(ctx); err != nil {
		return err
	}

	if err := p.checkWithinRoot(rel); err != nil {
		return err
	}
	abs := filepath.Join(p.root, rel)
	if err := os.Remove(abs); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove '%s': %w", rel, err)
	}

	if _, err := p.git(ctx, nil, "rm", "--cached", "--ignore-unmatch", "-q", "--", rel); err != nil {
		return err
	}
	return p.commitIfStaged(ctx, rel, OperationDelete)
}

func (p *Provider) checkout(ctx context.Context) error {
	_, err := p.git(ctx, nil, "checkout", "-q", p.branch)
	return err
}

func (p *Provider) commitIfStaged(ctx context.Context, rel, operation string) error {
	l := logging.FromContext(ctx).WithField("git", logrus.Fields{
		"branch":    p.branch,
		"key":       filepath.ToSlash(rel),
		"operation": operation,
	})

	staged, err := p.git(ctx, nil, "diff", "--cached", "--name-only", "--", rel)
	if err != nil {
		return err
	}
	if strings.TrimSpace(staged) == "" {
		l.Debug("no staged changes, skipping commit")
		return nil
	}

	editor, _ := auth.EditorFromContext(ctx)
	msg, err := p.renderMessage(MessageData{
		Key:       filepath.ToSlash(rel),
		Operation: operation,
		Editor:    editor,
	})
	if err != nil {
		return err
	}

	if _, err := p.git(ctx, p.identityEnv(editor), "commit", "-q", "-m", msg, "--", rel); err != nil {
		return err
	}
	p.commits.WithLabelValues(operation).Inc()

	l.Info("content committed")
	return nil
}

func (p *Provider) renderMessage(data MessageData) (string, error) {
	var sb strings.Builder
	if err := p.message.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to render commit message: %w", err)
	}
	return sb.String(), nil
}

// identityEnv attributes the commit to the editor when one is known. The
// configured identity is always the committer.
func (p *Provider) identityEnv(editor *auth.Editor) []string {
	authorName, authorEmail := p.authorName, p.authorEmail
	if editor != nil {
		authorName = editor.DisplayName()
		if editor.Email != "" {
			authorEmail = editor.Email
		}
	}
	return []string{
		"GIT_AUTHOR_NAME=" + authorName,
		"GIT_AUTHOR_EMAIL=" + authorEmail,
		"GIT_COMMITTER_NAME=" + p.authorName,
		"GIT_COMMITTER_EMAIL=" + p.authorEmail,
	}
}

// checkWithinRoot rejects keys whose parent directory resolves outside the
// repository, or into its git directory, through symbolic links already
// present in the working tree. The deepest existing ancestor is resolved, so
// nothing is created on disk before the check passes.
func (p *Provider) checkWithinRoot(rel string) error {
	root, err := filepath.EvalSymlinks(p.root)
	if err != nil {
		return fmt.Errorf("failed to resolve root path '%s': %w", p.root, err)
	}

	dir := filepath.Dir(rel)
	for {
		path := filepath.Join(p.root, dir)
		resolved, err := filepath.EvalSymlinks(path)
		if err == nil {
			inRepo, err := filepath.Rel(root, resolved)
			if err != nil {
				return fmt.Errorf("%w: '%s'", ErrInvalidKey, filepath.ToSlash(rel))
			}
			first, _, _ := strings.Cut(filepath.ToSlash(inRepo), "/")
			if first == ".." || first == ".git" {
				return fmt.Errorf("%w: '%s' resolves outside the repository", ErrInvalidKey, filepath.ToSlash(rel))
			}
			return nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to resolve '%s': %w", filepath.ToSlash(dir), err)
		}
		// Dangling symbolic link.
		if _, lerr := os.Lstat(path); lerr == nil {
			return fmt.Errorf("%w: '%s' resolves outside the repository", ErrInvalidKey, filepath.ToSlash(rel))
		}
		if dir == "." {
			return fmt.Errorf("failed to resolve root path '%s': %w", p.root, err)
		}
		dir = filepath.Dir(dir)
	}
}

// CleanKey returns the canonical slash-separated form of a content key, the
// path its file is committed under.
func CleanKey(key string) (string, error) {
	rel, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// cleanKey turns a content key into a path relative to the repository root,
// rejecting keys that would escape it or reach into the git directory.
func cleanKey(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || filepath.IsAbs(key) {
		return "", fmt.Errorf("%w: '%s'", ErrInvalidKey, key)
	}
	rel := filepath.Clean(filepath.FromSlash(key))
	first, _, _ := strings.Cut(filepath.ToSlash(rel), "/")
	if rel == "." || first == ".." || first == ".git" {
		return "", fmt.Errorf("%w: '%s'", ErrInvalidKey, key)
	}
	return rel, nil
}
