// Package runinfo collects CI/run metadata embedded in session audit reports.
package runinfo

import (
	"os"
	"regexp"
	"strings"
)

var githubPullRefPattern = regexp.MustCompile(`^refs/pull/([0-9]+)/`)

// BasicInfo captures CI/run metadata for logs and audit cases.
type BasicInfo struct {
	CI          bool   `json:"ci,omitempty"`
	Provider    string `json:"provider,omitempty"`
	Repository  string `json:"repository,omitempty"`
	Branch      string `json:"branch,omitempty"`
	Commit      string `json:"commit,omitempty"`
	RunID       string `json:"run_id,omitempty"`
	Event       string `json:"event,omitempty"`
	PullRequest string `json:"pull_request,omitempty"`
	Actor       string `json:"actor,omitempty"`
	BuildURL    string `json:"build_url,omitempty"`
}

// FromEnv builds run metadata from environment variables.
// Explicit BIAI_CI_* values take precedence over provider defaults.
func FromEnv() *BasicInfo {
	info := detectBase()
	applyOverrides(&info)
	normalize(&info)
	if info.IsZero() {
		return nil
	}
	return &info
}

// IsZero reports whether all fields are empty.
func (b BasicInfo) IsZero() bool {
	return !b.CI &&
		b.Provider == "" &&
		b.Repository == "" &&
		b.Branch == "" &&
		b.Commit == "" &&
		b.RunID == "" &&
		b.Event == "" &&
		b.PullRequest == "" &&
		b.Actor == "" &&
		b.BuildURL == ""
}

func detectBase() BasicInfo {
	info := BasicInfo{}

	if isTruthy(env("GITHUB_ACTIONS")) {
		info.CI = true
		info.Provider = "github_actions"
		info.Repository = env("GITHUB_REPOSITORY")
		info.Branch = envFirst("GITHUB_HEAD_REF", "GITHUB_REF_NAME")
		info.Commit = env("GITHUB_SHA")
		info.RunID = env("GITHUB_RUN_ID")
		info.Event = env("GITHUB_EVENT_NAME")
		info.Actor = env("GITHUB_ACTOR")
		info.PullRequest = githubPullRequestFromRef(env("GITHUB_REF"))
		serverURL := env("GITHUB_SERVER_URL")
		if serverURL == "" {
			serverURL = "https://github.com"
		}
		if info.Repository != "" && info.RunID != "" {
			info.BuildURL = strings.TrimRight(serverURL, "/") + "/" + info.Repository + "/actions/runs/" + info.RunID
		}
	}

	if isTruthy(env("GITLAB_CI")) {
		info.CI = true
		if info.Provider == "" {
			info.Provider = "gitlab_ci"
		}
	}
	if isTruthy(env("CI")) {
		info.CI = true
	}

	setIfEmpty(&info.Repository, envFirst("CI_PROJECT_PATH", "BUILD_REPOSITORY_NAME"))
	setIfEmpty(&info.Branch, envFirst("CI_COMMIT_REF_NAME", "BRANCH_NAME", "GIT_BRANCH"))
	setIfEmpty(&info.Commit, envFirst("CI_COMMIT_SHA", "GIT_COMMIT"))
	setIfEmpty(&info.RunID, envFirst("CI_PIPELINE_ID", "BUILD_ID"))
	setIfEmpty(&info.Actor, envFirst("GITLAB_USER_LOGIN"))
	setIfEmpty(&info.BuildURL, envFirst("CI_JOB_URL", "BUILD_URL"))

	return info
}

func applyOverrides(info *BasicInfo) {
	if info == nil {
		return
	}
	explicit := false
	if v, ok := lookupTrimmed("BIAI_CI"); ok && v != "" {
		info.CI = isTruthy(v)
	}
	explicit = setFromEnv(&info.Provider, "BIAI_CI_PROVIDER") || explicit
	explicit = setFromEnv(&info.Repository, "BIAI_CI_REPOSITORY") || explicit
	explicit = setFromEnv(&info.Branch, "BIAI_CI_BRANCH") || explicit
	explicit = setFromEnv(&info.Commit, "BIAI_CI_COMMIT") || explicit
	explicit = setFromEnv(&info.RunID, "BIAI_CI_RUN_ID") || explicit
	explicit = setFromEnv(&info.Event, "BIAI_CI_EVENT") || explicit
	explicit = setFromEnv(&info.PullRequest, "BIAI_CI_PULL_REQUEST") || explicit
	explicit = setFromEnv(&info.Actor, "BIAI_CI_ACTOR") || explicit
	explicit = setFromEnv(&info.BuildURL, "BIAI_CI_BUILD_URL") || explicit
	if explicit && !info.CI && !ciExplicitFalse() {
		info.CI = true
	}
}

func normalize(info *BasicInfo) {
	if info == nil {
		return
	}
	info.Provider = strings.TrimSpace(strings.ToLower(info.Provider))
	info.Repository = strings.TrimSpace(info.Repository)
	info.Branch = normalizeBranch(info.Branch)
	info.Commit = strings.TrimSpace(info.Commit)
	info.RunID = strings.TrimSpace(info.RunID)
	info.Event = strings.TrimSpace(info.Event)
	info.PullRequest = strings.TrimSpace(info.PullRequest)
	info.Actor = strings.TrimSpace(info.Actor)
	info.BuildURL = strings.TrimSpace(info.BuildURL)
	if !info.CI && (info.Provider != "" || info.Repository != "" || info.RunID != "" || info.Commit != "") && !ciExplicitFalse() {
		info.CI = true
	}
	if info.CI && info.Provider == "" {
		info.Provider = "generic"
	}
}

func ciExplicitFalse() bool {
	v, ok := lookupTrimmed("BIAI_CI")
	return ok && v != "" && !isTruthy(v)
}

func normalizeBranch(branch string) string {
	branch = strings.TrimSpace(branch)
	branch = strings.TrimPrefix(branch, "refs/heads/")
	branch = strings.TrimPrefix(branch, "origin/")
	return branch
}

func githubPullRequestFromRef(ref string) string {
	ref = strings.TrimSpace(ref)
	m := githubPullRefPattern.FindStringSubmatch(ref)
	if len(m) > 1 {
		return m[1]
	}
	return ""
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func envFirst(keys ...string) string {
	for _, key := range keys {
		if v := env(key); v != "" {
			return v
		}
	}
	return ""
}

func lookupTrimmed(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	return strings.TrimSpace(v), ok
}

func setIfEmpty(dst *string, value string) {
	if dst == nil || *dst != "" {
		return
	}
	*dst = value
}

func setFromEnv(dst *string, key string) bool {
	v, ok := lookupTrimmed(key)
	if !ok || v == "" {
		return false
	}
	*dst = v
	return true
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
