package workflow

import (
	"context"
	"strings"
	"sync"

	"github.com/ariel-frischer/gitchangelog/internal/git"
)

const (
	commitA = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	commitB = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	commitC = "cccccccccccccccccccccccccccccccccccccccc"
)

// MockGit is an in-memory Git. Answers are keyed by the rendered command
// line (rev-list and log) or by argument (rev-parse, show, tags).
// Unknown queries fail fatally so tests notice unexpected calls.
type MockGit struct {
	mu sync.Mutex

	dir         string
	refs        map[string]string
	revLists    map[string][]string
	logs        map[string]string
	tags        []git.Tag
	tagsErr     error
	commitInfo  map[string]string
	tagContents map[string]string
	fetchErr    error

	// Call tracking
	Calls       []string
	MergedRefs  []string
	FetchedTags []string
}

// NewMockGit creates a MockGit rooted at dir.
func NewMockGit(dir string) *MockGit {
	return &MockGit{
		dir:         dir,
		refs:        map[string]string{},
		revLists:    map[string][]string{},
		logs:        map[string]string{},
		commitInfo:  map[string]string{},
		tagContents: map[string]string{},
	}
}

// WithRef answers rev-parse ref with commit.
func (m *MockGit) WithRef(ref, commit string) *MockGit {
	m.refs[ref] = commit
	return m
}

// WithRevList answers the rev-list command line line.
func (m *MockGit) WithRevList(line string, commits ...string) *MockGit {
	m.revLists[line] = commits
	return m
}

// WithLog answers the log command line line.
func (m *MockGit) WithLog(line, out string) *MockGit {
	m.logs[line] = out
	return m
}

// WithTags sets the tags listed by ListTags, oldest first.
func (m *MockGit) WithTags(tags ...git.Tag) *MockGit {
	m.tags = tags
	return m
}

// WithTagsError makes ListTags fail.
func (m *MockGit) WithTagsError(err error) *MockGit {
	m.tagsErr = err
	return m
}

// WithCommitInfo answers CommitInfo for hash.
func (m *MockGit) WithCommitInfo(hash, out string) *MockGit {
	m.commitInfo[hash] = out
	return m
}

// WithTagContents answers TagContents for tag.
func (m *MockGit) WithTagContents(tag, out string) *MockGit {
	m.tagContents[tag] = out
	return m
}

// WithFetchError makes FetchTagCLI fail.
func (m *MockGit) WithFetchError(err error) *MockGit {
	m.fetchErr = err
	return m
}

func (m *MockGit) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, call)
}

func (m *MockGit) failure(op, msg string, p git.Policy) error {
	return &git.Error{Op: op, Message: msg, Fatal: !p.NonFatal}
}

func (m *MockGit) Dir() string {
	return m.dir
}

func (m *MockGit) RevParse(_ context.Context, ref string, p git.Policy) (string, error) {
	m.record("rev-parse " + ref)
	if c, ok := m.refs[ref]; ok {
		return c, nil
	}
	return "", m.failure("rev-parse", "unknown ref "+ref, p)
}

func (m *MockGit) RevList(_ context.Context, opts git.RevListOptions, p git.Policy) ([]string, error) {
	line := strings.Join(opts.Args(), " ")
	m.record(line)
	if commits, ok := m.revLists[line]; ok {
		return commits, nil
	}
	return nil, m.failure("rev-list", "unexpected "+line, p)
}

func (m *MockGit) Log(_ context.Context, opts git.LogOptions, p git.Policy) (string, error) {
	line := strings.Join(opts.Args(), " ")
	m.record(line)
	if out, ok := m.logs[line]; ok {
		return out, nil
	}
	return "", m.failure("log", "unexpected "+line, p)
}

func (m *MockGit) ListTags(_ context.Context, ref string, p git.Policy) (git.TagGraph, error) {
	m.record("tag -l --merged=" + ref)
	m.mu.Lock()
	m.MergedRefs = append(m.MergedRefs, ref)
	m.mu.Unlock()
	if m.tagsErr != nil {
		empty, _ := git.NewTagGraph()
		return empty, m.tagsErr
	}
	return git.NewTagGraph(m.tags...)
}

func (m *MockGit) CommitInfo(_ context.Context, hash, format string, p git.Policy) (string, error) {
	m.record("log -1 --pretty=" + format + " " + hash)
	if out, ok := m.commitInfo[hash]; ok {
		return out, nil
	}
	return "", m.failure("log", "no such commit found: "+hash, p)
}

func (m *MockGit) TagContents(_ context.Context, tag string, p git.Policy) (string, error) {
	m.record("tag -l --format=%(contents) " + tag)
	if out, ok := m.tagContents[tag]; ok {
		return out, nil
	}
	return "", m.failure("tag", "retrieving the git tag "+tag, p)
}

func (m *MockGit) FetchTagCLI(_ context.Context, remote, tag string, p git.Policy) error {
	m.record("fetch " + remote + " refs/tags/" + tag + ":refs/tags/" + tag)
	m.mu.Lock()
	m.FetchedTags = append(m.FetchedTags, tag)
	m.mu.Unlock()
	if m.fetchErr != nil {
		return m.failure("fetch", m.fetchErr.Error(), p)
	}
	return nil
}

// standardHistory is two tags and one unreleased commit on HEAD.
func standardHistory(dir string) *MockGit {
	return NewMockGit(dir).
		WithRef("HEAD", commitC).
		WithTags(git.Tag{Name: "v1", Commit: commitA}, git.Tag{Name: "v2", Commit: commitB}).
		WithLog("log --no-merges --pretty=format:%B "+commitA, "Initial release").
		WithLog("log --no-merges --pretty=format:%B "+commitA+".."+commitB, "Added feature").
		WithLog("log --no-merges --pretty=format:%B "+commitB+".."+commitC, "Fix bug")
}
