package runinfo

import "testing"

func clearCIEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CI", "GITHUB_ACTIONS", "GITHUB_REPOSITORY", "GITHUB_HEAD_REF", "GITHUB_REF_NAME",
		"GITHUB_SHA", "GITHUB_RUN_ID", "GITHUB_EVENT_NAME", "GITHUB_ACTOR", "GITHUB_REF",
		"GITHUB_SERVER_URL", "GITLAB_CI", "CI_PROJECT_PATH", "CI_COMMIT_REF_NAME",
		"CI_COMMIT_SHA", "CI_PIPELINE_ID", "CI_JOB_URL", "GITLAB_USER_LOGIN",
		"BRANCH_NAME", "GIT_BRANCH", "GIT_COMMIT", "BUILD_ID", "BUILD_URL",
		"BUILD_REPOSITORY_NAME", "BIAI_CI", "BIAI_CI_PROVIDER", "BIAI_CI_REPOSITORY",
		"BIAI_CI_BRANCH", "BIAI_CI_COMMIT", "BIAI_CI_RUN_ID", "BIAI_CI_EVENT",
		"BIAI_CI_PULL_REQUEST", "BIAI_CI_ACTOR", "BIAI_CI_BUILD_URL",
	} {
		t.Setenv(key, "")
	}
}

func TestFromEnvEmpty(t *testing.T) {
	clearCIEnv(t)
	if info := FromEnv(); info != nil {
		t.Fatalf("expected nil info, got %+v", info)
	}
}

func TestFromEnvGitHubActions(t *testing.T) {
	clearCIEnv(t)
	t.Setenv("GITHUB_ACTIONS", "true")
	t.Setenv("GITHUB_REPOSITORY", "acme/biai")
	t.Setenv("GITHUB_REF", "refs/pull/42/merge")
	t.Setenv("GITHUB_RUN_ID", "1234")
	info := FromEnv()
	if info == nil {
		t.Fatal("expected run info")
	}
	if !info.CI || info.Provider != "github_actions" {
		t.Fatalf("unexpected provider info: %+v", info)
	}
	if info.PullRequest != "42" {
		t.Fatalf("unexpected pull request: %s", info.PullRequest)
	}
	if info.BuildURL != "https://github.com/acme/biai/actions/runs/1234" {
		t.Fatalf("unexpected build url: %s", info.BuildURL)
	}
}

func TestFromEnvExplicitOverrides(t *testing.T) {
	clearCIEnv(t)
	t.Setenv("BIAI_CI_PROVIDER", "Custom")
	t.Setenv("BIAI_CI_BRANCH", "refs/heads/main")
	info := FromEnv()
	if info == nil {
		t.Fatal("expected run info")
	}
	if !info.CI {
		t.Fatal("explicit overrides should imply CI")
	}
	if info.Provider != "custom" {
		t.Fatalf("provider not normalized: %s", info.Provider)
	}
	if info.Branch != "main" {
		t.Fatalf("branch not normalized: %s", info.Branch)
	}
}
